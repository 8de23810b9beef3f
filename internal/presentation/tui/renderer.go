package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/studioflow/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour. When
// the terminal style cannot be set up the markdown is returned unchanged.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Summary formats a run record as markdown: a status header, one table row
// per step and the objective functions.
func Summary(rec *domain.RunRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Run `%s`\n\n", rec.ID)
	fmt.Fprintf(&sb, "- **Status:** %s\n", rec.Status)
	fmt.Fprintf(&sb, "- **Workflow:** `%s`\n", rec.WorkflowPath)
	fmt.Fprintf(&sb, "- **Run directory:** `%s`\n", rec.RunDir)
	if rec.CompletedAt != nil {
		fmt.Fprintf(&sb, "- **Duration:** %s\n", rec.CompletedAt.Sub(rec.StartedAt).Round(time.Millisecond))
	}
	if rec.Error != "" {
		fmt.Fprintf(&sb, "- **Error:** %s\n", escape(rec.Error))
	}

	if len(rec.Steps) > 0 {
		sb.WriteString("\n## Steps\n\n")
		sb.WriteString("| # | Measure | Kind | Result | Warnings |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, s := range rec.Steps {
			fmt.Fprintf(&sb, "| %d | %s | %s | %s | %d |\n",
				s.Index, escape(s.Measure), s.Kind, stepResult(s), len(s.Warnings))
		}
	}

	if len(rec.ObjectiveFunctions) > 0 {
		sb.WriteString("\n## Objective functions\n\n")
		keys := make([]string, 0, len(rec.ObjectiveFunctions))
		for k := range rec.ObjectiveFunctions {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "- `%s`: %v\n", k, rec.ObjectiveFunctions[k])
		}
	}
	return sb.String()
}

func stepResult(s domain.StepRecord) string {
	switch {
	case len(s.Errors) > 0:
		return "Fail: " + escape(s.Errors[0])
	case !s.Applicable:
		return "NA"
	default:
		return "Success"
	}
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
