package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/codeward/internal/analysis"
	"github.com/dshills/codeward/internal/cache"
	"github.com/dshills/codeward/internal/changes"
	"github.com/dshills/codeward/internal/config"
	"github.com/dshills/codeward/internal/extract"
	"github.com/dshills/codeward/internal/issues"
	"github.com/dshills/codeward/internal/lock"
	"github.com/dshills/codeward/internal/logging"
	"github.com/dshills/codeward/internal/output"
	"github.com/dshills/codeward/internal/prompts"
	"github.com/dshills/codeward/internal/providers"
	"github.com/dshills/codeward/internal/redact"
	"github.com/dshills/codeward/internal/workspace"
)

// State is the position of a job in its lifecycle.
type State int

const (
	Pending State = iota
	LockCheck
	Running
	Completed
	Skipped
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case LockCheck:
		return "lock-check"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Transition reports a state change of one job.
type Transition struct {
	Job    string
	RunID  string
	From   State
	To     State
	Reason string
}

// Result is the final state of one job.
type Result struct {
	Name    string
	RunID   string
	Target  string
	State   State
	Reason  string
	Err     error
	LogPath string
	Stats   analysis.Stats
	Elapsed time.Duration
}

// Summary converts r for the run report.
func (r Result) Summary() output.JobSummary {
	return output.JobSummary{
		Name:     r.Name,
		State:    r.State.String(),
		Reason:   r.Reason,
		Target:   r.Target,
		Units:    r.Stats.Units,
		Messages: r.Stats.Messages,
		Failures: r.Stats.Failures,
		Tokens:   r.Stats.Tokens,
		LogPath:  r.LogPath,
		Elapsed:  r.Elapsed,
	}
}

// BackendFactory builds the backend of one job.
type BackendFactory func(ctx context.Context, s Settings) (providers.Backend, error)

// Orchestrator runs jobs sequentially against one shared lock.
type Orchestrator struct {
	Lock   *lock.Lock
	Global config.Config
	Logger *zap.Logger
	// NewBackend defaults to NewBackend.
	NewBackend BackendFactory
	// OnTransition, when set, is called for every state change.
	OnTransition func(Transition)
	// Now defaults to time.Now.
	Now func() time.Time

	// logs records the job logs written so far. A later job resolving to the
	// same file appends instead of truncating it.
	logs map[string]bool
}

// NewBackend selects the backend for s by credential precedence, or by name
// when s.Backend is set, and wraps it with the response cache.
func NewBackend(ctx context.Context, s Settings) (providers.Backend, error) {
	opts := providers.Options{
		CodeServerURL:      s.CodeServer.URL,
		CodeServerProtocol: s.CodeServer.Protocol,
		Insecure:           s.CodeServer.Insecure,
		Timeout:            s.Timeout,
	}
	var (
		b   providers.Backend
		err error
	)
	if s.Backend != "" {
		b, err = providers.New(ctx, s.Backend, s.Credentials, opts)
	} else {
		b, err = providers.Select(ctx, s.Credentials, opts)
	}
	if err != nil {
		return nil, err
	}
	c, err := cache.New(s.Cache.Enabled, s.Cache.Dir, s.Cache.TTLSeconds)
	if err != nil {
		return nil, err
	}
	return cache.Wrap(b, c), nil
}

// Run runs jobs in order and returns one result per job.
func (o *Orchestrator) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, 0, len(jobs))
	for _, j := range jobs {
		results = append(results, o.RunJob(ctx, j))
	}
	return results
}

// RunJob runs a single job. Panics inside the job are recovered and reported
// as Failed.
func (o *Orchestrator) RunJob(ctx context.Context, j Job) (res Result) {
	now := o.now()
	start := now()
	res = Result{Name: j.Name, RunID: uuid.NewString(), Target: j.Target, State: Pending}
	if res.Target == "" && j.Source != nil {
		res.Target = "-"
	}
	if res.Name == "" {
		res.Name = filepath.Base(res.Target)
	}
	log := logging.OrNop(o.Logger).With(zap.String("run", res.RunID))

	defer func() {
		if r := recover(); r != nil {
			o.fail(&res, fmt.Errorf("panic: %v", r))
			log.Error("job panicked", zap.Any("panic", r))
		}
		res.Elapsed = now().Sub(start)
	}()

	s, err := j.Resolve(o.Global)
	if err != nil {
		o.fail(&res, err)
		log.Error("invalid job", zap.Error(err))
		return res
	}
	res.Name = s.Name
	log = log.With(zap.String("job", s.Name))

	if s.Source == nil {
		if _, err := os.Stat(s.Target); err != nil {
			err = fmt.Errorf("%w: %s", workspace.ErrTargetNotFound, s.Target)
			o.fail(&res, err)
			log.Error("target not found", zap.String("target", s.Target))
			return res
		}
	}

	if !s.Bypass {
		o.transition(&res, LockCheck, "")
		h, err := o.Lock.Acquire(res.RunID)
		if err != nil {
			var held *lock.HeldError
			if errors.As(err, &held) {
				o.transition(&res, Skipped, held.Owner.String())
				log.Info("job skipped, lock held", zap.String("owner", held.Owner.String()))
				return res
			}
			o.fail(&res, err)
			log.Error("acquiring lock", zap.Error(err))
			return res
		}
		defer func() {
			if err := h.Release(); err != nil {
				log.Warn("releasing lock", zap.Error(err))
			}
		}()
	}

	o.transition(&res, Running, "")
	if err := o.execute(ctx, s, &res, log); err != nil {
		o.fail(&res, err)
		log.Error("job failed", zap.Error(err))
		return res
	}
	o.transition(&res, Completed, "")
	log.Info("job completed",
		zap.Int("units", res.Stats.Units),
		zap.Int("messages", res.Stats.Messages),
		zap.Int("failures", res.Stats.Failures))
	return res
}

func (o *Orchestrator) openLog(s Settings) (*output.JobLog, error) {
	path := filepath.Join(s.LogDir, output.LogFileName(s.Name))
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	open := output.OpenJobLog
	if o.logs[path] {
		open = output.AppendJobLog
	}
	jl, err := open(s.LogDir, s.Name, o.Now)
	if err != nil {
		return nil, err
	}
	if o.logs == nil {
		o.logs = make(map[string]bool)
	}
	o.logs[path] = true
	return jl, nil
}

func (o *Orchestrator) execute(ctx context.Context, s Settings, res *Result, log *zap.Logger) error {
	jl, err := o.openLog(s)
	if err != nil {
		return err
	}
	res.LogPath = jl.Path()
	defer func() {
		if err := jl.Close(); err != nil {
			log.Warn("closing job log", zap.Error(err))
		}
	}()

	ignore := issues.DefaultIgnore()
	if s.IgnoreFile != "" {
		loaded, err := issues.LoadFile(s.IgnoreFile)
		if err != nil {
			log.Warn("ignore file unreadable, keeping defaults", zap.String("path", s.IgnoreFile), zap.Error(err))
		} else {
			ignore = loaded
		}
	}

	catalog := prompts.Builtin()
	if s.PromptFile != "" {
		if catalog, err = prompts.Load(s.PromptFile); err != nil {
			return err
		}
	}
	if len(s.Focus) > 0 {
		catalog.Focus = s.Focus
	}

	factory := o.NewBackend
	if factory == nil {
		factory = NewBackend
	}
	backend, err := factory(ctx, s)
	if err != nil {
		return fmt.Errorf("creating backend: %w", err)
	}
	log.Info("job running",
		zap.String("target", res.Target),
		zap.String("granularity", string(s.Granularity)),
		zap.String("backend", backend.Name()),
		zap.Strings("models", s.Models))

	ex, err := o.extractor(ctx, s, extract.Options{Ignore: ignore, Observer: jl, Logger: log})
	if err != nil {
		return err
	}

	d := analysis.New(analysis.Config{
		Backend:     backend,
		Catalog:     catalog,
		Templates:   catalog.Select(s.Locale, s.Detail),
		Models:      s.Models,
		Modes:       s.Modes,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
		Redact:      redact.Policy{Secrets: s.Privacy.RedactSecrets, Paths: s.Privacy.RedactPaths},
		Sink:        jl,
		Logger:      log,
		Now:         o.Now,
	})

	for u, err := range ex.Units(ctx) {
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("skipping unit", zap.Error(err))
			continue
		}
		d.Dispatch(ctx, u)
		res.Stats = d.Stats()
	}
	res.Stats = d.Stats()
	return jl.Err()
}

func (o *Orchestrator) extractor(ctx context.Context, s Settings, opts extract.Options) (*extract.Extractor, error) {
	if s.Granularity == extract.ByGitDiff {
		dir := s.Target
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			dir = filepath.Dir(dir)
		}
		return extract.FromGitDiff(dir, &changes.Detector{Logger: opts.Logger}, opts), nil
	}

	loader := &workspace.Loader{Include: s.Include, Exclude: s.Exclude, Logger: opts.Logger}
	var (
		ws  *workspace.Workspace
		err error
	)
	if s.Source != nil {
		ws, err = loader.LoadSource(ctx, "", s.Lang, s.Source)
	} else {
		ws, err = loader.Load(ctx, s.Target)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", s.Target, err)
	}
	return extract.FromWorkspace(ws, s.Granularity, opts)
}

func (o *Orchestrator) now() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return time.Now
}

func (o *Orchestrator) fail(res *Result, err error) {
	res.Err = err
	o.transition(res, Failed, err.Error())
}

func (o *Orchestrator) transition(res *Result, to State, reason string) {
	t := Transition{Job: res.Name, RunID: res.RunID, From: res.State, To: to, Reason: reason}
	res.State = to
	res.Reason = reason
	if o.OnTransition != nil {
		o.OnTransition(t)
	}
}
