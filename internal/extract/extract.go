package extract

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/codeward/internal/changes"
	"github.com/dshills/codeward/internal/issues"
	"github.com/dshills/codeward/internal/logging"
	"github.com/dshills/codeward/internal/syntax"
	"github.com/dshills/codeward/internal/workspace"
)

// ErrConsumed is yielded when a unit sequence is ranged over a second time.
var ErrConsumed = errors.New("unit sequence already consumed")

// Granularity selects how a target is cut into units.
type Granularity string

const (
	WholeSource Granularity = "whole"
	ByClass     Granularity = "class"
	ByFunction  Granularity = "function"
	ByGitDiff   Granularity = "git-diff"
)

// ParseGranularity accepts the canonical names and a few aliases.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "whole", "whole-source", "file", "source":
		return WholeSource, nil
	case "class", "type", "types":
		return ByClass, nil
	case "function", "func", "method", "functions":
		return ByFunction, nil
	case "git-diff", "diff", "git":
		return ByGitDiff, nil
	default:
		return "", fmt.Errorf("unknown granularity %q (valid: whole, class, function, git-diff)", s)
	}
}

// previousVersionNote introduces the old text of a modified function in the
// issue text.
const previousVersionNote = "\n\nThe previous version of the code retrieved from the repository looked like this: \n"

// Unit is one analyzable fragment. Units are snapshots; nothing in the
// extractor refers to them after they are yielded.
type Unit struct {
	Identifier string
	Lang       syntax.Language
	SourceText string
	// Diagnostics are the raw findings scoped to the unit, before filtering.
	Diagnostics []string
	IssueCount  int
	IssueText   string
	// PriorVersionText is the old body of a function modified by the last
	// commit. Empty for every other unit.
	PriorVersionText string
	// Change is set for git-diff units.
	Change string
}

// Observer is notified of every unit after filtering and before the
// consumer receives it.
type Observer interface {
	UnitReady(Unit)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Unit)

func (f ObserverFunc) UnitReady(u Unit) { f(u) }

// Predicate selects the declarations units are cut from.
type Predicate func(*syntax.Decl) bool

// Types selects type-level declarations.
func Types(d *syntax.Decl) bool { return d.Kind == syntax.KindType }

// Funcs selects function-level declarations.
func Funcs(d *syntax.Decl) bool { return d.Kind == syntax.KindFunc }

// Options configure an Extractor.
type Options struct {
	Ignore   issues.IgnoreList
	Observer Observer
	Logger   *zap.Logger
}

// candidate is a unit before filtering.
type candidate struct {
	id     string
	lang   syntax.Language
	text   string
	diags  []string
	prior  string
	note   string
	change string
}

// Extractor produces units from one source.
type Extractor struct {
	opts     Options
	walk     func(ctx context.Context) iter.Seq2[candidate, error]
	consumed atomic.Bool
}

// FromWorkspace builds an extractor for the whole, class and function
// granularities.
func FromWorkspace(ws *workspace.Workspace, g Granularity, opts Options) (*Extractor, error) {
	var match Predicate
	switch g {
	case WholeSource:
	case ByClass:
		match = Types
	case ByFunction:
		match = Funcs
	default:
		return nil, fmt.Errorf("granularity %q does not read a workspace", g)
	}
	return &Extractor{opts: opts, walk: walkWorkspace(ws, match)}, nil
}

// FromGitDiff builds an extractor over the functions added or modified by
// the most recent commit reachable from dir.
func FromGitDiff(dir string, d *changes.Detector, opts Options) *Extractor {
	return &Extractor{opts: opts, walk: walkChanges(dir, d)}
}

// Units returns the unit sequence. The sequence is lazy: each unit is built,
// filtered and reported to the observer only when the previous loop body has
// returned. Non-fatal source errors are yielded with a zero Unit and
// enumeration continues.
func (e *Extractor) Units(ctx context.Context) iter.Seq2[Unit, error] {
	return func(yield func(Unit, error) bool) {
		if !e.consumed.CompareAndSwap(false, true) {
			yield(Unit{}, ErrConsumed)
			return
		}
		log := logging.OrNop(e.opts.Logger)
		for c, err := range e.walk(ctx) {
			if err != nil {
				if !yield(Unit{}, err) {
					return
				}
				continue
			}
			u := e.build(c)
			log.Debug("unit ready",
				zap.String("unit", u.Identifier),
				zap.Int("issues", u.IssueCount),
				zap.Int("suppressed", len(u.Diagnostics)-u.IssueCount))
			if e.opts.Observer != nil {
				e.opts.Observer.UnitReady(u)
			}
			if !yield(u, nil) {
				return
			}
		}
	}
}

func (e *Extractor) build(c candidate) Unit {
	res := issues.Filter(c.diags, e.opts.Ignore)
	return Unit{
		Identifier:       c.id,
		Lang:             c.lang,
		SourceText:       c.text,
		Diagnostics:      c.diags,
		IssueCount:       res.Count,
		IssueText:        res.Text + c.note,
		PriorVersionText: c.prior,
		Change:           c.change,
	}
}

func unitName(f *syntax.File, d *syntax.Decl) string {
	name := d.Name
	if d.Kind == syntax.KindFunc && d.Key != "" {
		name = d.Key
	}
	return f.Path + " | " + name
}

func walkWorkspace(ws *workspace.Workspace, match Predicate) func(context.Context) iter.Seq2[candidate, error] {
	return func(ctx context.Context) iter.Seq2[candidate, error] {
		return func(yield func(candidate, error) bool) {
			for _, p := range ws.Projects {
				for _, f := range p.Files {
					if err := ctx.Err(); err != nil {
						yield(candidate{}, err)
						return
					}
					if match == nil {
						c := candidate{id: f.Path, lang: f.Lang, text: string(f.Src), diags: f.AllDiagnostics()}
						if !yield(c, nil) {
							return
						}
						continue
					}
					for _, d := range f.Decls {
						if !match(d) {
							continue
						}
						c := candidate{id: unitName(f, d), lang: f.Lang, text: d.Text, diags: f.DiagnosticsIn(d)}
						if !yield(c, nil) {
							return
						}
					}
				}
			}
		}
	}
}

func walkChanges(dir string, d *changes.Detector) func(context.Context) iter.Seq2[candidate, error] {
	return func(ctx context.Context) iter.Seq2[candidate, error] {
		return func(yield func(candidate, error) bool) {
			for ch, err := range d.Detect(ctx, dir) {
				if err != nil {
					if !yield(candidate{}, err) {
						return
					}
					continue
				}
				c := candidate{
					id:     unitName(ch.File, ch.Decl),
					lang:   ch.File.Lang,
					text:   ch.Decl.Text,
					diags:  ch.File.DiagnosticsIn(ch.Decl),
					change: ch.Kind.String(),
				}
				if ch.Kind == changes.Modified && ch.Prior != nil {
					c.prior = ch.Prior.Body
					c.note = previousVersionNote + priorForNote(ch.File.Lang, ch.Prior) + "\n"
				}
				if !yield(c, nil) {
					return
				}
			}
		}
	}
}

// priorForNote is the old code quoted in a modified unit's issue text: the
// body for Go, the whole definition for block-style languages.
func priorForNote(lang syntax.Language, prior *syntax.Decl) string {
	if lang == syntax.Go {
		return prior.Body
	}
	return prior.Text
}
