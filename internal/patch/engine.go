// Package patch turns declarative patch requests into fixed-length splices
// against an in-memory module image.
//
// Requests in a batch run strictly in submission order against the same
// image, each with its own full scan of the current bytes. A rejected request
// yields a zero-count Outcome with Err set; the batch carries on.
//
// Text replacements longer than their match are truncated to the match width
// by default, with a warning. That can corrupt adjacent data if the dropped
// bytes mattered, so Config.Strict turns it into a per-request
// ErrLengthMismatch instead.
package patch

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wasmpatch/wasmpatch/internal/image"
)

var (
	// ErrLengthMismatch reports a replacement that cannot keep the image length.
	ErrLengthMismatch = image.ErrLengthMismatch

	// ErrUnsupportedEncoding reports an unknown numeric encoding.
	ErrUnsupportedEncoding = errors.New("unsupported numeric encoding")

	// ErrInvalidRequest reports a request that cannot be applied as given,
	// such as an empty match or a value outside its encoding's range.
	ErrInvalidRequest = errors.New("invalid patch request")
)

// Config controls engine behavior.
type Config struct {
	// Strict rejects text replacements longer than their match instead of
	// truncating them.
	Strict bool

	// Logger receives warnings and per-request results.
	Logger zerolog.Logger
}

// DefaultConfig returns the default engine configuration: truncation allowed,
// logging disabled.
func DefaultConfig() Config {
	return Config{
		Strict: false,
		Logger: zerolog.Nop(),
	}
}

// Engine applies patch requests to a single image.
type Engine struct {
	img    *image.Image
	cfg    Config
	logger zerolog.Logger
}

// NewEngine creates an engine mutating img.
func NewEngine(img *image.Image, cfg Config) *Engine {
	return &Engine{
		img:    img,
		cfg:    cfg,
		logger: cfg.Logger.With().Str("image", img.Path()).Logger(),
	}
}

// Image returns the image the engine mutates.
func (e *Engine) Image() *image.Image {
	return e.img
}

// Apply runs requests in order and returns one Outcome per request.
func (e *Engine) Apply(requests []Request) []Outcome {
	outcomes := make([]Outcome, len(requests))
	for i, req := range requests {
		outcomes[i] = e.apply(i, req)
	}
	return outcomes
}

// ApplyOne runs a single request.
func (e *Engine) ApplyOne(req Request) Outcome {
	return e.apply(0, req)
}

func (e *Engine) apply(index int, req Request) Outcome {
	out := Outcome{Index: index, Request: req}

	var maxOccurrences int
	switch r := req.(type) {
	case Text:
		out.Match = r.Match
		maxOccurrences = r.MaxOccurrences
		if len(r.Match) == 0 {
			out.Err = fmt.Errorf("%w: empty match", ErrInvalidRequest)
			break
		}
		out.Replacement, out.Warnings, out.Err = e.normalizeText(r)
	case Numeric:
		out.Match, out.Replacement, out.Err = encodePair(r)
		maxOccurrences = r.MaxOccurrences
	case Invalid:
		out.Err = r.Err
		if out.Err == nil {
			out.Err = ErrInvalidRequest
		}
	case nil:
		out.Err = fmt.Errorf("%w: nil request", ErrInvalidRequest)
	default:
		out.Err = fmt.Errorf("%w: unknown request type %T", ErrInvalidRequest, req)
	}

	if out.Err != nil {
		e.logger.Warn().
			Err(out.Err).
			Int("request", index).
			Msg("Patch request rejected")
		return out
	}

	for _, w := range out.Warnings {
		if w.Kind == WarnTruncated {
			e.logger.Warn().
				Int("request", index).
				Str("change", req.Describe()).
				Msg(w.Message)
		}
	}

	out.FoundOffsets = e.img.FindAll(out.Match, 0)
	out.Found = len(out.FoundOffsets)
	out.Offsets, out.Err = e.replace(out.Match, out.Replacement, maxOccurrences)

	e.logger.Debug().
		Int("request", index).
		Str("kind", string(req.Kind())).
		Str("change", req.Describe()).
		Int("found", out.Found).
		Int("applied", out.Applied()).
		Msg("Patch request applied")

	return out
}

// normalizeText sizes the replacement to the match width.
func (e *Engine) normalizeText(r Text) ([]byte, []Warning, error) {
	match, repl := len(r.Match), len(r.Replacement)

	switch {
	case repl > match:
		if e.cfg.Strict {
			return nil, nil, fmt.Errorf("%w: replacement is %d bytes, match is %d bytes",
				ErrLengthMismatch, repl, match)
		}
		out := make([]byte, match)
		copy(out, r.Replacement)
		return out, []Warning{{
			Kind: WarnTruncated,
			Message: fmt.Sprintf("replacement is %d bytes, match is %d bytes; dropped %q",
				repl, match, r.Replacement[match:]),
		}}, nil

	case repl < match:
		out := make([]byte, match)
		copy(out, r.Replacement)
		return out, []Warning{{
			Kind:    WarnPadded,
			Message: fmt.Sprintf("padded with %d zero bytes", match-repl),
		}}, nil

	default:
		out := make([]byte, match)
		copy(out, r.Replacement)
		return out, nil, nil
	}
}

func encodePair(r Numeric) ([]byte, []byte, error) {
	if !r.Encoding.Supported() {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, string(r.Encoding))
	}
	match, err := r.Encoding.Encode(r.Match)
	if err != nil {
		return nil, nil, fmt.Errorf("encode match: %w", err)
	}
	repl, err := r.Encoding.Encode(r.Replacement)
	if err != nil {
		return nil, nil, fmt.Errorf("encode replacement: %w", err)
	}
	return match, repl, nil
}

// replace splices repl over each occurrence of match, scanning from the
// start. The cursor resumes right after each written region so written bytes
// are never rescanned.
func (e *Engine) replace(match, repl []byte, maxOccurrences int) ([]int, error) {
	var offsets []int
	cursor := 0
	for maxOccurrences <= 0 || len(offsets) < maxOccurrences {
		pos := image.Next(e.img.Bytes(), match, cursor)
		if pos < 0 {
			break
		}
		if err := e.img.Splice(pos, len(match), repl); err != nil {
			return offsets, err
		}
		offsets = append(offsets, pos)
		cursor = pos + len(repl)
	}
	return offsets, nil
}

// Find returns the non-overlapping offsets of text without mutating the image.
func (e *Engine) Find(text string) []int {
	return e.FindBytes([]byte(text))
}

// FindBytes returns the non-overlapping offsets of b without mutating the image.
func (e *Engine) FindBytes(b []byte) []int {
	return e.img.FindAll(b, 0)
}

// FindNumeric returns the offsets of the encoding of v.
func (e *Engine) FindNumeric(v float64, enc Encoding) ([]int, error) {
	b, err := enc.Encode(v)
	if err != nil {
		return nil, err
	}
	return e.img.FindAll(b, 0), nil
}
