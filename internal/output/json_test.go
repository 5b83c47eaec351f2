package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestJSONWriter(t *testing.T) {
	summary := &Summary{
		RunID:   "test-run",
		Started: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Jobs: []JobSummary{
			{Name: "nightly", State: "completed", Target: "./src", Units: 3, Messages: 6, LogPath: "/tmp/nightly-log.txt"},
			{Name: "shared", State: "skipped", Reason: "locked by ann on box at 2024-01-01T00:00:00Z"},
		},
	}

	var buf bytes.Buffer
	w := &JSONWriter{}
	if err := w.Write(&buf, summary); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var parsed Summary
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed.RunID != "test-run" {
		t.Errorf("RunID = %q, want %q", parsed.RunID, "test-run")
	}
	if len(parsed.Jobs) != 2 {
		t.Fatalf("Jobs count = %d, want 2", len(parsed.Jobs))
	}
	if parsed.Jobs[0].Messages != 6 {
		t.Errorf("Messages = %d, want 6", parsed.Jobs[0].Messages)
	}
	if parsed.Jobs[1].State != "skipped" {
		t.Errorf("State = %q, want skipped", parsed.Jobs[1].State)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"logPath": "/tmp/nightly-log.txt"`)) {
		t.Errorf("missing logPath in %s", buf.String())
	}
}

func TestGetWriter(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		if _, err := GetWriter(format); err != nil {
			t.Errorf("GetWriter(%q): %v", format, err)
		}
	}
	if _, err := GetWriter("sarif"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFormatFor(t *testing.T) {
	tests := map[string]string{
		"out.json":    "json",
		"summary.txt": "text",
		"":            "text",
	}
	for path, want := range tests {
		if got := FormatFor(path); got != want {
			t.Errorf("FormatFor(%q) = %q, want %q", path, got, want)
		}
	}
}
