package diag

import (
	"fmt"
	"strings"
)

// FormatGolden renders diagnostics one per line, sorted, in the form used by
// golden tests: `severity Lnnn uri:line:char message`. Multi-line messages are
// folded into one line.
func FormatGolden(items []Diagnostic, baseDir string) string {
	sorted := append([]Diagnostic(nil), items...)
	Sort(sorted)

	var b strings.Builder
	for i, d := range sorted {
		start := d.Primary.Start
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s",
			d.Severity, d.Code.ID(),
			start.URI.Display(baseDir), start.Line, start.Character,
			sanitizeMessage(d.Message))
		if i < len(sorted)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	fields := strings.Fields(strings.ReplaceAll(msg, "\n", " "))
	return strings.Join(fields, " ")
}
