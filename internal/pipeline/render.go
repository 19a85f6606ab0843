package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/argscope/internal/argmap"
	"github.com/ppiankov/argscope/internal/model"
)

// WriteJSON writes report as indented JSON, creating parent directories.
func WriteJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteSummary prints a short human-readable overview of report.
func WriteSummary(w io.Writer, report *model.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Source: %s\n", report.Source)
	if report.Oracle != nil {
		fmt.Fprintf(&b, "Oracle: %s", report.Oracle.Provider)
		if report.Oracle.Model != "" {
			fmt.Fprintf(&b, "/%s", report.Oracle.Model)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nPlan:\n")
	if len(report.Plan) == 0 {
		b.WriteString("  (nothing to run)\n")
	}
	for i, s := range report.Plan {
		fmt.Fprintf(&b, "  %d. %-28s -> %-28s needs %s\n", i+1, s.Name, s.Product, s.Requirements)
	}

	if arts := report.State.Artifacts(); len(arts) > 0 {
		b.WriteString("\nArtifacts:\n")
		for _, a := range arts {
			fmt.Fprintf(&b, "  %-28s %s\n", a.ID, describeData(a.Data))
		}
	}

	if scores := report.State.Scores(); len(scores) > 0 {
		b.WriteString("\nScores:\n")
		for _, sc := range scores {
			fmt.Fprintf(&b, "  %-28s %8.4f", sc.ID, sc.Value)
			if sc.Comment != "" {
				fmt.Fprintf(&b, "  (%s)", sc.Comment)
			}
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func describeData(data any) string {
	switch d := data.(type) {
	case argmap.Graph:
		return fmt.Sprintf("%d nodes, %d edges", len(d.Nodes), len(d.Edges))
	case argmap.Document:
		return fmt.Sprintf("%d nodes, %d links", len(d.Nodes), len(d.Links))
	default:
		return fmt.Sprintf("%T", data)
	}
}

// ReportName derives a file name from a bundle path: the base name without
// extension, with anything but letters, digits, dot, dash and underscore
// replaced.
func ReportName(source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return '_'
		}
	}, base)
	if len(name) > 100 {
		name = name[:100]
	}
	if name == "" || name == "." || name == ".." {
		name = "report"
	}
	return name
}
