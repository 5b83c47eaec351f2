// Package gitctx reads commits, tree diffs and file contents from a git
// repository by shelling out to git.
//
// It supplies exactly what method-level change detection needs: the two
// most recent commits reachable from a directory ([RecentCommits]), the
// path-level diff between two commits ([ChangedPaths]), and a file's text at
// a commit ([ShowFile]) or in the working tree ([ReadWorkingFile]).
// [ListFiles] and [MatchesAny] drive include/exclude filtering when a
// directory is walked for source files.
package gitctx
