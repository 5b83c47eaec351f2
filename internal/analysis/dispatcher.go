package analysis

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/codeward/internal/extract"
	"github.com/dshills/codeward/internal/logging"
	"github.com/dshills/codeward/internal/prompts"
	"github.com/dshills/codeward/internal/providers"
	"github.com/dshills/codeward/internal/redact"
)

// Modes selects which analyses run for every unit.
type Modes struct {
	CodeWithIssues bool
	CodeOnly       bool
}

// Any reports whether at least one mode is enabled.
func (m Modes) Any() bool { return m.CodeWithIssues || m.CodeOnly }

// Message is a snapshot of one backend round-trip.
type Message struct {
	Unit    string
	Model   string
	Backend string
	// Mode is the requested analysis. A CodeWithIssues request for a unit
	// without issues carries the code-only prompt.
	Mode       prompts.Mode
	IssueCount int
	Prompt     prompts.Prompt
	Content    string
	TokensUsed int
	Elapsed    time.Duration
	At         time.Time
}

// Sink receives every answer. MessageReady must return before the
// dispatcher continues.
type Sink interface {
	MessageReady(Message)
}

// FailureSink is implemented by sinks that also record failed requests.
type FailureSink interface {
	RequestFailed(Message, error)
}

// Config configures a Dispatcher.
type Config struct {
	Backend     providers.Backend
	Catalog     *prompts.Catalog
	Templates   prompts.Templates
	Models      []string
	Modes       Modes
	Temperature float64
	MaxTokens   int
	Redact      redact.Policy
	Sink        Sink
	Logger      *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Stats counts dispatch outcomes.
type Stats struct {
	Units    int `json:"units"`
	Messages int `json:"messages"`
	Failures int `json:"failures"`
	Tokens   int `json:"tokens"`
}

// Dispatcher forwards units to a backend.
type Dispatcher struct {
	cfg   Config
	log   *zap.Logger
	stats Stats
}

// New creates a Dispatcher.
func New(cfg Config) *Dispatcher {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = providers.DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = providers.DefaultMaxTokens
	}
	return &Dispatcher{cfg: cfg, log: logging.OrNop(cfg.Logger)}
}

// Stats returns the counts so far.
func (d *Dispatcher) Stats() Stats { return d.stats }

// Dispatch analyzes u with every configured model and mode. It returns once
// all calls have completed or failed.
func (d *Dispatcher) Dispatch(ctx context.Context, u extract.Unit) {
	d.stats.Units++
	u = d.scrub(u)
	code, issues := u.SourceText, u.IssueText

	for _, model := range d.cfg.Models {
		if d.cfg.Modes.CodeWithIssues {
			d.send(ctx, u, model, prompts.CodeWithIssues, d.cfg.Templates.Build(prompts.CodeWithIssues, code, u.IssueCount, issues))
		}
		if d.cfg.Modes.CodeOnly {
			d.send(ctx, u, model, prompts.CodeOnly, d.cfg.Templates.Build(prompts.CodeOnly, code, 0, ""))
		}
	}
}

// scrub applies the redaction policy to every text of u that can reach a
// backend. Git-diff units carry the previous body inside the issue text too.
func (d *Dispatcher) scrub(u extract.Unit) extract.Unit {
	p := d.cfg.Redact
	u.SourceText = p.Unit(u.Identifier, u.SourceText)
	u.IssueText = p.Unit(u.Identifier, u.IssueText)
	u.PriorVersionText = p.Unit(u.Identifier, u.PriorVersionText)
	return u
}

func (d *Dispatcher) send(ctx context.Context, u extract.Unit, model string, mode prompts.Mode, p prompts.Prompt) {
	if d.cfg.Catalog != nil {
		p = d.cfg.Catalog.WithFocus(p)
	}
	msg := Message{
		Unit:       u.Identifier,
		Model:      model,
		Backend:    d.cfg.Backend.Name(),
		Mode:       mode,
		IssueCount: u.IssueCount,
		Prompt:     p,
	}

	log := d.log.With(
		zap.String("unit", u.Identifier),
		zap.String("model", model),
		zap.String("mode", mode.String()),
	)
	log.Info("sending unit", zap.Int("issues", u.IssueCount))

	start := d.cfg.Now()
	resp, err := d.cfg.Backend.Analyze(ctx, providers.AnalysisRequest{
		SystemPrompt: p.System,
		UserPrompt:   p.User,
		Model:        model,
		MaxTokens:    d.cfg.MaxTokens,
		Temperature:  d.cfg.Temperature,
	})
	msg.At = d.cfg.Now()
	msg.Elapsed = msg.At.Sub(start)
	if err != nil {
		d.stats.Failures++
		log.Warn("backend request failed", zap.Error(err), zap.Duration("elapsed", msg.Elapsed))
		if fs, ok := d.cfg.Sink.(FailureSink); ok {
			fs.RequestFailed(msg, err)
		}
		return
	}

	d.stats.Messages++
	d.stats.Tokens += resp.TokensUsed
	msg.Content = resp.Content
	msg.TokensUsed = resp.TokensUsed
	log.Debug("message received", zap.Int("tokens", resp.TokensUsed), zap.Duration("elapsed", msg.Elapsed))
	if d.cfg.Sink != nil {
		d.cfg.Sink.MessageReady(msg)
	}
}
