package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zjrosen/stackline/internal/stack/domain"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7A7A7A"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#43BF6D"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E05252"))
)

func heading(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf(format, args...)))
}

// renderBranch lists a branch's series top to bottom with their patches.
func renderBranch(w io.Writer, b domain.VirtualBranch) {
	heading(w, "%s %s", b.Name, mutedStyle.Render("("+b.ID+")"))
	if len(b.Series) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("  (no series)"))
	}
	for _, s := range b.Series {
		_, _ = fmt.Fprintf(w, "  %s\n", s.Name)
		if len(s.Patches) == 0 {
			_, _ = fmt.Fprintln(w, mutedStyle.Render("    (empty)"))
		}
		for _, p := range s.Patches {
			if p.Subject == "" {
				_, _ = fmt.Fprintf(w, "    %s\n", p.ID)
				continue
			}
			_, _ = fmt.Fprintf(w, "    %s %s\n", p.ID, p.Subject)
		}
	}
}

// arrangementText renders an arrangement one line per series and commit.
func arrangementText(a domain.Arrangement) string {
	var sb strings.Builder
	for _, s := range a.Series {
		sb.WriteString(s.Name)
		sb.WriteString(":\n")
		for _, id := range s.CommitIDs {
			sb.WriteString("  ")
			sb.WriteString(id)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// renderOrderDiff writes a line diff between two arrangements.
func renderOrderDiff(w io.Writer, before, after domain.Arrangement) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(arrangementText(before), arrangementText(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			line = strings.TrimSuffix(line, "\n")
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				_, _ = fmt.Fprintln(w, addedStyle.Render("+ "+line))
			case diffmatchpatch.DiffDelete:
				_, _ = fmt.Fprintln(w, removedStyle.Render("- "+line))
			default:
				_, _ = fmt.Fprintln(w, "  "+line)
			}
		}
	}
}
