// Package batch decodes patch batch documents into engine requests.
//
// A batch is a YAML document with an ordered "patches" list. Records are
// validated lazily: a record that cannot be decoded becomes a patch.Invalid
// request, which fails on its own when applied while the rest of the batch
// runs. Only a document that is not valid YAML, or has the wrong shape,
// fails as a whole.
package batch

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	cerrors "github.com/wasmpatch/wasmpatch/internal/errors"
	"github.com/wasmpatch/wasmpatch/internal/patch"
)

// Record types accepted in the "type" field.
const (
	TypeString  = "string"
	TypeText    = "text"
	TypeNumeric = "numeric"
)

// maxBatchSize caps batch files; they are hand-written configuration.
const maxBatchSize = 1 << 20

// File describes a batch document for the JSON Schema.
type File struct {
	Patches []Record `yaml:"patches" json:"patches" jsonschema:"required,description=Ordered patch records; applied in order against the same image"`
}

// Record is one patch entry.
type Record struct {
	Type            string `yaml:"type" json:"type" jsonschema:"required,enum=string,enum=text,enum=numeric"`
	Old             Scalar `yaml:"old" json:"old" jsonschema:"required,description=Value to search for"`
	New             Scalar `yaml:"new" json:"new" jsonschema:"required,description=Replacement value"`
	MaxReplacements int    `yaml:"max_replacements,omitempty" json:"max_replacements,omitempty" jsonschema:"minimum=0,description=Upper bound on replacements; 0 means unbounded"`
	ValueType       string `yaml:"value_type,omitempty" json:"value_type,omitempty" jsonschema:"enum=float,enum=float32,enum=int32,default=float,description=Numeric encoding"`
	Hex             bool   `yaml:"hex,omitempty" json:"hex,omitempty" jsonschema:"description=Text old/new are hex-encoded bytes"`
	Description     string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Scalar holds the literal text of a YAML scalar, so "200" and 200.0 keep
// their spelling until the record type decides how to read them.
type Scalar string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.New("expected a scalar value")
	}
	*s = Scalar(node.Value)
	return nil
}

// JSONSchema lets the schema reflector describe Scalar as string or number.
func (Scalar) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "number"},
		},
	}
}

// document is the raw shape of a batch. Records stay undecoded so each one
// can fail on its own.
type document struct {
	Patches yaml.Node `yaml:"patches"`
}

// Parse decodes a batch document into requests. Only a document that is not a
// mapping, or whose "patches" is not a sequence, is rejected as a whole.
func Parse(data []byte) ([]patch.Request, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse batch: %w", err)
	}

	switch {
	case doc.Patches.Kind == 0, doc.Patches.Tag == "!!null":
		return nil, nil
	case doc.Patches.Kind == yaml.SequenceNode:
	default:
		return nil, fmt.Errorf("parse batch: line %d: patches must be a list", doc.Patches.Line)
	}

	reqs := make([]patch.Request, len(doc.Patches.Content))
	for i, node := range doc.Patches.Content {
		r, err := decodeRecord(node)
		if err != nil {
			reqs[i] = patch.Invalid{
				Err:         fmt.Errorf("%w: line %d: %w", patch.ErrInvalidRequest, node.Line, err),
				Description: fmt.Sprintf("record %d", i+1),
			}
			continue
		}
		reqs[i] = r.Request()
	}
	return reqs, nil
}

// recordKeys holds the yaml keys a record may use.
var recordKeys = func() map[string]bool {
	keys := map[string]bool{}
	t := reflect.TypeOf(Record{})
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
		keys[name] = true
	}
	return keys
}()

// decodeRecord decodes one record strictly: unknown keys, non-scalar values
// and mistyped fields are errors.
func decodeRecord(node *yaml.Node) (Record, error) {
	var r Record
	if node.Kind != yaml.MappingNode {
		return r, errors.New("record must be a mapping")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if key := node.Content[i].Value; !recordKeys[key] {
			return r, fmt.Errorf("unknown field %q", key)
		}
	}
	if err := node.Decode(&r); err != nil {
		return r, err
	}
	return r, nil
}

// LoadFile reads and decodes a batch file.
func LoadFile(path string, logger zerolog.Logger) ([]patch.Request, error) {
	//nolint:gosec // G304: batch path is supplied by the operator.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch %s: %w", path, err)
	}
	defer cerrors.DeferClose(logger, f, "failed to close batch file")

	data, err := io.ReadAll(io.LimitReader(f, maxBatchSize+1))
	if err != nil {
		return nil, fmt.Errorf("read batch %s: %w", path, err)
	}
	if len(data) > maxBatchSize {
		return nil, fmt.Errorf("batch %s exceeds %d bytes", path, maxBatchSize)
	}

	reqs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.Debug().Str("path", path).Int("requests", len(reqs)).Msg("Loaded batch file")
	return reqs, nil
}

// Request converts the record. Records that cannot be converted yield a
// patch.Invalid describing why.
func (r Record) Request() patch.Request {
	req, err := r.request()
	if err != nil {
		desc := r.Description
		if desc == "" {
			desc = fmt.Sprintf("%s %q -> %q", r.Type, string(r.Old), string(r.New))
		}
		return patch.Invalid{Err: err, Description: desc}
	}
	return req
}

func (r Record) request() (patch.Request, error) {
	if r.MaxReplacements < 0 {
		return nil, fmt.Errorf("%w: max_replacements must not be negative, got %d",
			patch.ErrInvalidRequest, r.MaxReplacements)
	}

	switch strings.ToLower(strings.TrimSpace(r.Type)) {
	case TypeString, TypeText:
		match, err := r.textBytes(r.Old)
		if err != nil {
			return nil, fmt.Errorf("old: %w", err)
		}
		repl, err := r.textBytes(r.New)
		if err != nil {
			return nil, fmt.Errorf("new: %w", err)
		}
		return patch.Text{
			Match:          match,
			Replacement:    repl,
			MaxOccurrences: r.MaxReplacements,
			Description:    r.Description,
		}, nil

	case TypeNumeric:
		oldV, err := parseNumber(r.Old)
		if err != nil {
			return nil, fmt.Errorf("old: %w", err)
		}
		newV, err := parseNumber(r.New)
		if err != nil {
			return nil, fmt.Errorf("new: %w", err)
		}
		return patch.Numeric{
			Match:          oldV,
			Replacement:    newV,
			Encoding:       patch.ParseEncoding(r.ValueType),
			MaxOccurrences: r.MaxReplacements,
			Description:    r.Description,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown record type %q", patch.ErrInvalidRequest, r.Type)
	}
}

func (r Record) textBytes(s Scalar) ([]byte, error) {
	if !r.Hex {
		return []byte(s), nil
	}
	b, err := hex.DecodeString(strings.ReplaceAll(string(s), " ", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: bad hex: %v", patch.ErrInvalidRequest, err)
	}
	return b, nil
}

func parseNumber(s Scalar) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", patch.ErrInvalidRequest, string(s))
	}
	return v, nil
}
