package patch

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Encoding names a fixed-width numeric encoding.
type Encoding string

const (
	// EncodingFloat32 is IEEE-754 single precision, little-endian.
	EncodingFloat32 Encoding = "float32"
	// EncodingInt32 is a two's complement signed 32-bit integer, little-endian.
	EncodingInt32 Encoding = "int32"
)

// NumericWidth is the byte width of every supported numeric encoding.
const NumericWidth = 4

// ParseEncoding normalizes an encoding name. "float" and the empty string
// mean float32. Unknown names are returned as-is so that the request carrying
// them fails on its own when applied.
func ParseEncoding(name string) Encoding {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "float", "float32", "f32":
		return EncodingFloat32
	case "int", "int32", "i32":
		return EncodingInt32
	default:
		return Encoding(name)
	}
}

// Supported reports whether e is a known encoding.
func (e Encoding) Supported() bool {
	return e == EncodingFloat32 || e == EncodingInt32
}

// Encode returns the 4-byte little-endian encoding of v.
func (e Encoding) Encode(v float64) ([]byte, error) {
	buf := make([]byte, NumericWidth)
	switch e {
	case EncodingFloat32:
		if !math.IsInf(v, 0) && !math.IsNaN(v) && math.Abs(v) > math.MaxFloat32 {
			return nil, fmt.Errorf("%w: %v overflows float32", ErrInvalidRequest, v)
		}
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
	case EncodingInt32:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %v is not an integer", ErrInvalidRequest, v)
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("%w: %v overflows int32", ErrInvalidRequest, v)
		}
		binary.LittleEndian.PutUint32(buf, uint32(int32(v)))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, string(e))
	}
	return buf, nil
}

// Decode reads a value previously written by Encode.
func (e Encoding) Decode(b []byte) (float64, error) {
	if len(b) != NumericWidth {
		return 0, fmt.Errorf("%w: need %d bytes, got %d", ErrLengthMismatch, NumericWidth, len(b))
	}
	bits := binary.LittleEndian.Uint32(b)
	switch e {
	case EncodingFloat32:
		return float64(math.Float32frombits(bits)), nil
	case EncodingInt32:
		return float64(int32(bits)), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, string(e))
	}
}
