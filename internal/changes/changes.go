package changes

import (
	"context"
	"errors"
	"iter"

	"go.uber.org/zap"

	"github.com/dshills/codeward/internal/gitctx"
	"github.com/dshills/codeward/internal/logging"
	"github.com/dshills/codeward/internal/syntax"
)

// Kind classifies a function across two revisions.
type Kind int

const (
	Added Kind = iota + 1
	Modified
	Unchanged
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Change is one classified function.
type Change struct {
	Kind Kind
	// File is the new revision, compiled on its own.
	File *syntax.File
	Decl *syntax.Decl
	// Prior is the old declaration of a Modified function.
	Prior *syntax.Decl
}

// Classify matches the functions of newFile against oldFile. Either side may
// be nil. Results follow declaration order in newFile; deletions are not
// reported.
func Classify(oldFile, newFile *syntax.File) []Change {
	if newFile == nil {
		return nil
	}
	var old map[string]*syntax.Decl
	if oldFile != nil {
		old = oldFile.Keyed()
	}

	var out []Change
	for key, decl := range orderedKeys(newFile) {
		prior, ok := old[key]
		switch {
		case !ok:
			out = append(out, Change{Kind: Added, File: newFile, Decl: decl})
		case !decl.Equivalent(prior):
			out = append(out, Change{Kind: Modified, File: newFile, Decl: decl, Prior: prior})
		default:
			out = append(out, Change{Kind: Unchanged, File: newFile, Decl: decl})
		}
	}
	return out
}

// orderedKeys yields each signature key of f once, in declaration order.
func orderedKeys(f *syntax.File) iter.Seq2[string, *syntax.Decl] {
	return func(yield func(string, *syntax.Decl) bool) {
		keyed := f.Keyed()
		seen := make(map[string]bool, len(keyed))
		for _, d := range f.Decls {
			if d.Kind != syntax.KindFunc || d.Key == "" || seen[d.Key] {
				continue
			}
			seen[d.Key] = true
			if !yield(d.Key, keyed[d.Key]) {
				return
			}
		}
	}
}

// Detector walks the diff between the two most recent commits.
type Detector struct {
	Logger *zap.Logger
}

// Detect yields the Added and Modified functions between the two most recent
// commits reachable from dir, in diff order then declaration order. Paths
// without a recognized source extension are ignored. A missing repository or
// a history shorter than two commits yields nothing.
func (d *Detector) Detect(ctx context.Context, dir string) iter.Seq2[Change, error] {
	return func(yield func(Change, error) bool) {
		log := logging.OrNop(d.Logger)

		older, newer, err := gitctx.LatestPair(dir)
		if err != nil {
			if errors.Is(err, gitctx.ErrNotRepository) || errors.Is(err, gitctx.ErrTooFewCommits) {
				log.Warn("no commit pair to compare", zap.String("dir", dir), zap.Error(err))
				return
			}
			yield(Change{}, err)
			return
		}
		log.Debug("comparing commits",
			zap.String("old", older.SHA), zap.String("new", newer.SHA),
			zap.String("subject", newer.Subject))

		paths, err := gitctx.ChangedPaths(dir, older.SHA, newer.SHA)
		if err != nil {
			yield(Change{}, err)
			return
		}

		for _, fc := range paths {
			if !syntax.Recognized(fc.Path) {
				continue
			}
			if err := ctx.Err(); err != nil {
				yield(Change{}, err)
				return
			}
			for _, c := range d.compareFile(ctx, dir, older.SHA, fc.Path) {
				if c.Kind == Unchanged {
					continue
				}
				if !yield(c, nil) {
					return
				}
			}
		}
	}
}

// compareFile compares the working-tree text of path with its text at
// oldSHA. Unreadable or unparsable sides are logged and treated as absent.
func (d *Detector) compareFile(ctx context.Context, dir, oldSHA, path string) []Change {
	log := logging.OrNop(d.Logger).With(zap.String("file", path))

	current, ok, err := gitctx.ReadWorkingFile(dir, path)
	if err != nil {
		log.Warn("skipping file", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	newFile, err := syntax.ParseFile(ctx, path, []byte(current))
	if err != nil {
		log.Warn("skipping file", zap.Error(err))
		return nil
	}

	var oldFile *syntax.File
	previous, ok, err := gitctx.ShowFile(dir, oldSHA, path)
	switch {
	case err != nil:
		log.Warn("previous revision unavailable", zap.Error(err))
	case ok:
		oldFile, err = syntax.Outline(ctx, path, []byte(previous))
		if err != nil {
			log.Warn("previous revision unparsable", zap.Error(err))
			oldFile = nil
		}
	}
	return Classify(oldFile, newFile)
}
