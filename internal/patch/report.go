package patch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Report summarizes one patch session over a single image.
type Report struct {
	SessionID    string    `json:"session_id" yaml:"session_id"`
	Source       string    `json:"source" yaml:"source"`
	Output       string    `json:"output,omitempty" yaml:"output,omitempty"`
	Size         int       `json:"size" yaml:"size"`
	DigestBefore string    `json:"digest_before" yaml:"digest_before"`
	DigestAfter  string    `json:"digest_after" yaml:"digest_after"`
	DryRun       bool      `json:"dry_run" yaml:"dry_run"`
	Strict       bool      `json:"strict" yaml:"strict"`
	Requests     int       `json:"requests" yaml:"requests"`
	Applied      int       `json:"applied" yaml:"applied"`
	Failed       int       `json:"failed" yaml:"failed"`
	Truncated    int       `json:"truncated" yaml:"truncated"`
	Outcomes     []Summary `json:"outcomes" yaml:"outcomes"`
	StartedAt    time.Time `json:"started_at" yaml:"started_at"`
}

// Session applies a batch to the engine's image and records a Report.
type Session struct {
	engine *Engine
	report Report
}

// NewSession starts a session, capturing the image digest before any change.
func NewSession(e *Engine) *Session {
	img := e.Image()
	return &Session{
		engine: e,
		report: Report{
			SessionID:    uuid.New().String(),
			Source:       img.Path(),
			Size:         img.Len(),
			DigestBefore: formatDigest(img.Digest()),
			Strict:       e.cfg.Strict,
			Outcomes:     []Summary{},
			StartedAt:    time.Now().UTC(),
		},
	}
}

// Run applies requests and folds their outcomes into the report.
func (s *Session) Run(requests []Request) []Outcome {
	outcomes := s.engine.Apply(requests)
	offset := s.report.Requests
	for _, o := range outcomes {
		o.Index += offset
		s.report.Outcomes = append(s.report.Outcomes, o.Summarize())
		s.report.Requests++
		s.report.Applied += o.Applied()
		if o.Err != nil {
			s.report.Failed++
		}
		if o.Truncated() {
			s.report.Truncated++
		}
	}
	return outcomes
}

// Report returns the report with the current image digest.
func (s *Session) Report() Report {
	r := s.report
	r.DigestAfter = formatDigest(s.engine.Image().Digest())
	return r
}

// SetOutput records where the image was (or would be) written.
func (s *Session) SetOutput(path string, dryRun bool) {
	s.report.Output = path
	s.report.DryRun = dryRun
}

func formatDigest(d uint64) string {
	return fmt.Sprintf("xxh3:%016x", d)
}
