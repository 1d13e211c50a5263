package converter

import (
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff computes a line-level diff between the original and the
// converted source.
func Diff(before, after string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()

	beforeChars, afterChars, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)

	return dmp.DiffCharsToLines(diffs, lines)
}

// FormatDiff renders line diffs with -/+ markers, colored when
// enabled. Equal runs are kept, so small files read as a full
// annotated listing.
func FormatDiff(diffs []diffmatchpatch.Diff, colored bool) string {
	var b strings.Builder

	for _, diff := range diffs {
		for _, line := range splitDiffLines(diff.Text) {
			switch diff.Type {
			case diffmatchpatch.DiffDelete:
				writeDiffLine(&b, "-", line, colored, color.RedString)
			case diffmatchpatch.DiffInsert:
				writeDiffLine(&b, "+", line, colored, color.GreenString)
			case diffmatchpatch.DiffEqual:
				b.WriteString("  " + line + "\n")
			}
		}
	}

	return b.String()
}

func writeDiffLine(b *strings.Builder, marker, line string, colored bool, paint func(string, ...any) string) {
	text := marker + " " + line

	if colored {
		text = paint("%s", text)
	}

	b.WriteString(text + "\n")
}

func splitDiffLines(text string) []string {
	trimmed := strings.TrimSuffix(text, "\n")
	if trimmed == "" {
		return nil
	}

	return strings.Split(trimmed, "\n")
}
