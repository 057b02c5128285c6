package helpers

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/wasmpatch/wasmpatch/internal/patch"
)

// WriteReport renders a patch report in the given format.
func WriteReport(w io.Writer, format OutputFormat, report patch.Report) error {
	if format != FormatTable {
		formatter, err := NewFormatter(format)
		if err != nil {
			return err
		}
		return formatter.Format(report, w)
	}

	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true)
	okStyle := r.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle := r.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle := r.NewStyle().Foreground(lipgloss.Color("9"))

	if _, err := fmt.Fprintf(w, "%s %s (%d bytes)\n", title.Render("Image:"), report.Source, report.Size); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s %s\n\n", title.Render("Session:"), report.SessionID); err != nil {
		return err
	}

	if err := (&TableFormatter{}).Format(report.Outcomes, w); err != nil {
		return err
	}

	summary := okStyle.Render(fmt.Sprintf("%d replacement(s) across %d request(s)", report.Applied, report.Requests))
	if _, err := fmt.Fprintf(w, "\n%s\n", summary); err != nil {
		return err
	}
	if report.Truncated > 0 {
		msg := fmt.Sprintf("%d request(s) truncated: replacement longer than match, excess bytes dropped", report.Truncated)
		if _, err := fmt.Fprintln(w, warnStyle.Render(msg)); err != nil {
			return err
		}
	}
	if report.Failed > 0 {
		msg := fmt.Sprintf("%d request(s) rejected, see NOTES", report.Failed)
		if _, err := fmt.Fprintln(w, errStyle.Render(msg)); err != nil {
			return err
		}
	}

	switch {
	case report.DryRun:
		_, err := fmt.Fprintf(w, "Dry run: would write %s\n", report.Output)
		return err
	case report.Output != "":
		_, err := fmt.Fprintf(w, "Wrote %s (%s)\n", report.Output, report.DigestAfter)
		return err
	}
	return nil
}
