package patch

import (
	"fmt"
	"strconv"
)

// Kind identifies the variant of a Request.
type Kind string

const (
	// KindText replaces a literal byte sequence.
	KindText Kind = "text"
	// KindNumeric replaces a fixed-width encoded number.
	KindNumeric Kind = "numeric"
	// KindInvalid marks a record that could not be turned into a request.
	KindInvalid Kind = "invalid"
)

// Request is a single declarative patch. It is implemented by Text, Numeric
// and Invalid only; the engine resolves it with a type switch.
type Request interface {
	// Kind returns the request variant.
	Kind() Kind
	// Describe returns a short human-readable summary of the change.
	Describe() string

	sealed()
}

// Text replaces every occurrence of Match with Replacement, normalized to the
// width of Match (zero padded when shorter, truncated when longer).
type Text struct {
	Match       []byte
	Replacement []byte
	// MaxOccurrences bounds the number of splices. Zero or less means unbounded.
	MaxOccurrences int
	// Description is an optional note carried into the report.
	Description string
}

// NewText builds a Text request from UTF-8 strings.
func NewText(match, replacement string, maxOccurrences int) Text {
	return Text{
		Match:          []byte(match),
		Replacement:    []byte(replacement),
		MaxOccurrences: maxOccurrences,
	}
}

// Kind implements Request.
func (Text) Kind() Kind { return KindText }

// Describe implements Request.
func (r Text) Describe() string {
	if r.Description != "" {
		return r.Description
	}
	return fmt.Sprintf("%q -> %q", r.Match, r.Replacement)
}

func (Text) sealed() {}

// Numeric replaces every 4-byte encoding of Match with the encoding of
// Replacement. Both sides share one Encoding, so widths always agree.
type Numeric struct {
	Match       float64
	Replacement float64
	Encoding    Encoding
	// MaxOccurrences bounds the number of splices. Zero or less means unbounded.
	MaxOccurrences int
	// Description is an optional note carried into the report.
	Description string
}

// NewNumeric builds a Numeric request.
func NewNumeric(match, replacement float64, enc Encoding) Numeric {
	return Numeric{
		Match:       match,
		Replacement: replacement,
		Encoding:    enc,
	}
}

// Kind implements Request.
func (Numeric) Kind() Kind { return KindNumeric }

// Describe implements Request.
func (r Numeric) Describe() string {
	if r.Description != "" {
		return r.Description
	}
	return fmt.Sprintf("%s -> %s (%s)", formatNumber(r.Match), formatNumber(r.Replacement), r.Encoding)
}

func (Numeric) sealed() {}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Invalid carries a batch record that failed to decode. Applying it always
// yields an Outcome with Err set, so bad records surface in order alongside
// the rest of the batch instead of aborting it.
type Invalid struct {
	Err         error
	Description string
}

// Kind implements Request.
func (Invalid) Kind() Kind { return KindInvalid }

// Describe implements Request.
func (r Invalid) Describe() string {
	if r.Description != "" {
		return r.Description
	}
	return "invalid request"
}

func (Invalid) sealed() {}
