package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"sync"
	"time"
)

// ErrHeld is matched by the error Acquire returns when the marker exists.
var ErrHeld = errors.New("lock held")

// Owner is the content of a marker.
type Owner struct {
	User       string    `json:"user"`
	Host       string    `json:"host"`
	PID        int       `json:"pid"`
	RunID      string    `json:"runId"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

func (o Owner) String() string {
	return fmt.Sprintf("locked by %s on %s at %s", o.User, o.Host, o.AcquiredAt.Format(time.RFC3339))
}

// HeldError reports the current holder of a marker.
type HeldError struct {
	Path  string
	Owner Owner
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Owner)
}

func (e *HeldError) Is(target error) bool { return target == ErrHeld }

// Lock is a marker file at a fixed path.
type Lock struct {
	path string
	now  func() time.Time

	mu   sync.Mutex
	held map[*Handle]struct{}
}

// New returns the lock at path.
func New(path string) *Lock {
	return &Lock{path: path, now: time.Now, held: make(map[*Handle]struct{})}
}

// DefaultPath is the machine-wide marker location.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), "codeward", "shared.lock")
}

// Path returns the marker path.
func (l *Lock) Path() string { return l.path }

// Acquire writes the marker for runID. It fails with a *HeldError when the
// marker already exists.
func (l *Lock) Acquire(runID string) (*Handle, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			owner, _, rerr := l.Status()
			if rerr != nil {
				owner = Owner{User: "unknown", Host: "unknown"}
			}
			return nil, &HeldError{Path: l.path, Owner: owner}
		}
		return nil, fmt.Errorf("creating lock marker: %w", err)
	}

	owner := currentOwner(runID, l.now())
	data, err := json.Marshal(owner)
	if err == nil {
		_, err = f.Write(data)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(l.path)
		return nil, fmt.Errorf("writing lock marker: %w", err)
	}

	h := &Handle{lock: l, owner: owner}
	l.mu.Lock()
	l.held[h] = struct{}{}
	l.mu.Unlock()
	return h, nil
}

// Status reads the marker. The bool is false when no marker exists.
func (l *Lock) Status() (Owner, bool, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Owner{}, false, nil
		}
		return Owner{}, false, fmt.Errorf("reading lock marker: %w", err)
	}
	var o Owner
	if err := json.Unmarshal(data, &o); err != nil {
		return Owner{}, true, fmt.Errorf("parsing lock marker: %w", err)
	}
	return o, true, nil
}

// Clear removes the marker regardless of its owner.
func (l *Lock) Clear() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing lock marker: %w", err)
	}
	return nil
}

// ReleaseAll releases every handle acquired through l that is still held.
func (l *Lock) ReleaseAll() error {
	l.mu.Lock()
	handles := make([]*Handle, 0, len(l.held))
	for h := range l.held {
		handles = append(handles, h)
	}
	l.mu.Unlock()

	var errs []error
	for _, h := range handles {
		if err := h.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Held reports how many handles acquired through l are still held.
func (l *Lock) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}

// Handle is a held marker.
type Handle struct {
	lock  *Lock
	owner Owner
	once  sync.Once
	err   error
}

// Owner returns what the marker records.
func (h *Handle) Owner() Owner { return h.owner }

// Release removes the marker if it still carries this handle's run id. It is
// safe to call more than once and from several goroutines.
func (h *Handle) Release() error {
	h.once.Do(func() {
		l := h.lock
		l.mu.Lock()
		delete(l.held, h)
		l.mu.Unlock()

		cur, ok, err := l.Status()
		switch {
		case err != nil:
			h.err = err
		case !ok:
		case cur.RunID != h.owner.RunID:
			h.err = fmt.Errorf("lock marker now belongs to run %s, leaving it in place", cur.RunID)
		default:
			if rerr := os.Remove(l.path); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
				h.err = fmt.Errorf("removing lock marker: %w", rerr)
			}
		}
	})
	return h.err
}

func currentOwner(runID string, now time.Time) Owner {
	name := os.Getenv("USER")
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	if name == "" {
		name = os.Getenv("USERNAME")
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return Owner{
		User:       name,
		Host:       host,
		PID:        os.Getpid(),
		RunID:      runID,
		AcquiredAt: now.UTC(),
	}
}
