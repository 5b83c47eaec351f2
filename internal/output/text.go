package output

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// TextWriter outputs a human-readable summary.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, s *Summary) error {
	ew := &errWriter{w: w}

	ew.printf("codeward run %s\n", s.RunID)
	ew.println(strings.Repeat("-", 60))
	ew.printf("Jobs: %d total", len(s.Jobs))
	if len(s.Jobs) > 0 {
		ew.printf(" (%d completed, %d skipped, %d failed)",
			s.Count("completed"), s.Count("skipped"), s.Count("failed"))
	}
	ew.println("")
	ew.println(strings.Repeat("-", 60))

	for _, j := range s.Jobs {
		ew.printf("\n%s %s\n", stateIcon(j.State), j.Name)
		ew.printf("  Target: %s\n", j.Target)
		if j.Reason != "" {
			for _, line := range wrapText(j.Reason, 70) {
				ew.printf("    %s\n", line)
			}
		}
		ew.printf("  Units: %d | Messages: %d | Failures: %d | Tokens: %d\n",
			j.Units, j.Messages, j.Failures, j.Tokens)
		if j.LogPath != "" {
			ew.printf("  Log: %s\n", j.LogPath)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("-", 60))
	ew.printf("Completed in %s\n", s.Finished.Sub(s.Started).Round(time.Millisecond))

	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func stateIcon(state string) string {
	switch state {
	case "completed":
		return "[ok]"
	case "skipped":
		return "[--]"
	case "failed":
		return "[!!]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
