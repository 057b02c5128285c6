package patch

import (
	"fmt"
	"strconv"
	"strings"
)

// WarningKind classifies a width normalization applied to a text replacement.
type WarningKind string

const (
	// WarnTruncated means the replacement was longer than the match and its
	// tail was dropped. The dropped bytes never reach the image.
	WarnTruncated WarningKind = "truncated"
	// WarnPadded means the replacement was shorter than the match and was
	// right-padded with zero bytes.
	WarnPadded WarningKind = "padded"
)

// Warning records a normalization applied to one request.
type Warning struct {
	Kind    WarningKind `json:"kind" yaml:"kind"`
	Message string      `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	return string(w.Kind) + ": " + w.Message
}

// Outcome is the result of applying one request.
type Outcome struct {
	// Index is the position of the request in its batch.
	Index   int
	Request Request
	// Match and Replacement are the exact bytes searched for and written.
	Match       []byte
	Replacement []byte
	// FoundOffsets lists the non-overlapping occurrences present before the
	// request ran, including any left untouched by MaxOccurrences.
	FoundOffsets []int
	// Found is len(FoundOffsets).
	Found int
	// Offsets lists where a splice was applied, in ascending order.
	Offsets  []int
	Warnings []Warning
	// Err is set when the request was rejected. No splices happen in that case.
	Err error
}

// Applied returns the number of splices performed.
func (o Outcome) Applied() int {
	return len(o.Offsets)
}

// Truncated reports whether the replacement lost bytes to truncation.
func (o Outcome) Truncated() bool {
	for _, w := range o.Warnings {
		if w.Kind == WarnTruncated {
			return true
		}
	}
	return false
}

// Summary is the flat, serializable view of an Outcome used by reports.
type Summary struct {
	Index       int       `json:"index" yaml:"index" header:"#"`
	Kind        Kind      `json:"kind" yaml:"kind" header:"KIND"`
	Change      string    `json:"change" yaml:"change" header:"CHANGE"`
	Found       int       `json:"found" yaml:"found" header:"FOUND"`
	Applied     int       `json:"applied" yaml:"applied" header:"APPLIED"`
	FoundAt     []int     `json:"found_offsets" yaml:"found_offsets"`
	Offsets     []int     `json:"offsets" yaml:"offsets"`
	OffsetList  string    `json:"-" yaml:"-" header:"OFFSETS"`
	Match       string    `json:"match_hex" yaml:"match_hex"`
	Replacement string    `json:"replacement_hex" yaml:"replacement_hex"`
	Warnings    []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Notes       string    `json:"-" yaml:"-" header:"NOTES"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summarize flattens the outcome for rendering.
func (o Outcome) Summarize() Summary {
	s := Summary{
		Index:       o.Index,
		Found:       o.Found,
		Applied:     o.Applied(),
		Offsets:     o.Offsets,
		OffsetList:  formatOffsets(o.Offsets),
		Match:       fmt.Sprintf("%x", o.Match),
		Replacement: fmt.Sprintf("%x", o.Replacement),
		Warnings:    o.Warnings,
	}
	if s.Offsets == nil {
		s.Offsets = []int{}
	}
	s.FoundAt = o.FoundOffsets
	if s.FoundAt == nil {
		s.FoundAt = []int{}
	}
	if o.Request != nil {
		s.Kind = o.Request.Kind()
		s.Change = o.Request.Describe()
	}

	var notes []string
	for _, w := range o.Warnings {
		notes = append(notes, w.String())
	}
	if o.Err != nil {
		s.Error = o.Err.Error()
		notes = append(notes, "error: "+s.Error)
	}
	s.Notes = strings.Join(notes, "; ")

	return s
}

const maxListedOffsets = 8

func formatOffsets(offsets []int) string {
	if len(offsets) == 0 {
		return "-"
	}
	parts := make([]string, 0, maxListedOffsets+1)
	for i, off := range offsets {
		if i == maxListedOffsets {
			parts = append(parts, "+"+strconv.Itoa(len(offsets)-maxListedOffsets)+" more")
			break
		}
		parts = append(parts, fmt.Sprintf("0x%x", off))
	}
	return strings.Join(parts, ",")
}
