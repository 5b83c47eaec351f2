package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dshills/codeward/internal/analysis"
	"github.com/dshills/codeward/internal/extract"
	"github.com/dshills/codeward/internal/prompts"
)

const (
	sectionRule = "------------------------------------------------------------"
	closingRule = "************************************************************"
	stampLayout = "2006-01-02 15:04:05"
)

// LogFileName returns the log file name for a job.
func LogFileName(job string) string {
	r := strings.NewReplacer(":", "_", "/", "_", `\`, "_")
	return r.Replace(job) + "-log.txt"
}

// JobLog is the append-only log of one job. It is safe for use from one
// goroutine at a time plus an interrupt handler calling Close.
type JobLog struct {
	path string
	now  func() time.Time

	mu    sync.Mutex
	f     *os.File
	ew    *errWriter
	units int
}

// OpenJobLog creates or truncates the log for job under dir and writes the
// opening timestamp. A nil now means time.Now.
func OpenJobLog(dir, job string, now func() time.Time) (*JobLog, error) {
	return openJobLog(dir, job, now, os.O_TRUNC)
}

// AppendJobLog is OpenJobLog without truncation, for a log an earlier job of
// the same run already wrote.
func AppendJobLog(dir, job string, now func() time.Time) (*JobLog, error) {
	return openJobLog(dir, job, now, os.O_APPEND)
}

func openJobLog(dir, job string, now func() time.Time, mode int) (*JobLog, error) {
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	path := filepath.Join(dir, LogFileName(job))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|mode, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating job log: %w", err)
	}
	l := &JobLog{path: path, now: now, f: f, ew: &errWriter{w: f}}
	l.ew.printf("%s\n\n", now().Format(stampLayout))
	if l.ew.err != nil {
		f.Close()
		return nil, fmt.Errorf("writing job log: %w", l.ew.err)
	}
	return l, nil
}

// Path returns the log file path.
func (l *JobLog) Path() string { return l.path }

// Units returns how many units were announced.
func (l *JobLog) Units() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.units
}

// UnitReady counts the unit. Units appear in the log only with their answers.
func (l *JobLog) UnitReady(extract.Unit) {
	l.mu.Lock()
	l.units++
	l.mu.Unlock()
}

// MessageReady appends one section for m.
func (l *JobLog) MessageReady(m analysis.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return
	}
	l.ew.println(sectionRule)
	l.ew.printf("%s (%s): %s\n", Heading(m), m.Model, m.Unit)
	l.ew.println(m.Prompt.User)
	l.ew.println(sectionRule)
	l.ew.println(m.Content)
	l.ew.println(closingRule)
	l.ew.printf("\n%s\n\n\n", m.At.Format(stampLayout))
}

// RequestFailed appends a section recording a failed request.
func (l *JobLog) RequestFailed(m analysis.Message, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return
	}
	l.ew.println(sectionRule)
	l.ew.printf("%s (%s): %s\n", Heading(m), m.Model, m.Unit)
	l.ew.printf("Request failed: %v\n", err)
	l.ew.println(closingRule)
	l.ew.printf("\n%s\n\n\n", l.now().Format(stampLayout))
}

// Err returns the first write error, if any.
func (l *JobLog) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ew.err
}

// Close closes the file. Further sections are dropped.
func (l *JobLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	if l.ew.err != nil {
		return fmt.Errorf("writing job log: %w", l.ew.err)
	}
	return err
}

// Heading is the first line of a log section without the model and unit.
func Heading(m analysis.Message) string {
	if m.Mode == prompts.CodeOnly {
		return "Code-Only Analysis or Malware Check"
	}
	return fmt.Sprintf("Code Analysis with %d Issues", m.IssueCount)
}

var (
	_ extract.Observer     = (*JobLog)(nil)
	_ analysis.Sink        = (*JobLog)(nil)
	_ analysis.FailureSink = (*JobLog)(nil)
)
