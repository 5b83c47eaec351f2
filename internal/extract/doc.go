// Package extract cuts a loaded workspace, or the last commit's changes,
// into a sequence of analyzable units.
//
// A single [Extractor] covers every granularity. Whole-source, class and
// function extraction differ only in the predicate that selects
// declarations; git-diff extraction takes its declarations from the change
// detector instead of the workspace. Every unit has its diagnostics scoped
// to its own text and filtered through the ignore list before it is handed
// out.
//
// [Extractor.Units] returns a range-over-func iterator. The loop body runs
// before the next unit is built, so consumers process units in lockstep
// with enumeration. The sequence can be ranged over only once.
package extract
