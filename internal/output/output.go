package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// JobSummary is the final record of one job.
type JobSummary struct {
	Name     string        `json:"name"`
	State    string        `json:"state"`
	Reason   string        `json:"reason,omitempty"`
	Target   string        `json:"target"`
	Units    int           `json:"units"`
	Messages int           `json:"messages"`
	Failures int           `json:"failures"`
	Tokens   int           `json:"tokens"`
	LogPath  string        `json:"logPath,omitempty"`
	Elapsed  time.Duration `json:"elapsedNs"`
}

// Summary is the record of one invocation.
type Summary struct {
	RunID    string       `json:"runId"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
	Jobs     []JobSummary `json:"jobs"`
}

// Count returns how many jobs ended in state.
func (s *Summary) Count(state string) int {
	n := 0
	for _, j := range s.Jobs {
		if j.State == state {
			n++
		}
	}
	return n
}

// Writer writes a summary in a specific format.
type Writer interface {
	Write(w io.Writer, s *Summary) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatFor picks the format from a file name: JSON for .json, text otherwise.
func FormatFor(path string) string {
	if filepath.Ext(path) == ".json" {
		return "json"
	}
	return "text"
}

// WriteSummary writes s to outPath, or stdout when outPath is empty.
func WriteSummary(s *Summary, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating summary file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, s)
}
