package render

import (
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Diff returns a line diff of from and to. Lines are prefixed with "-",
// "+" or " "; with c, removed lines are red and added lines green.
func Diff(from, to string, c *Colors) string {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	var sb strings.Builder
	for _, d := range diffs {
		for _, l := range splitLines(d.Text) {
			switch d.Type {
			case diffpatch.DiffDelete:
				sb.WriteString(c.Attr(color.FgRed, "-"+l))
			case diffpatch.DiffInsert:
				sb.WriteString(c.Attr(color.FgGreen, "+"+l))
			default:
				sb.WriteString(" " + l)
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
