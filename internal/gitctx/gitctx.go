package gitctx

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrNotRepository is returned when a directory is not inside a git work tree.
	ErrNotRepository = errors.New("not a git repository")
	// ErrTooFewCommits is returned when fewer than two commits are reachable.
	ErrTooFewCommits = errors.New("fewer than two commits")
)

// CommitInfo holds a commit SHA and its subject line.
type CommitInfo struct {
	SHA     string
	Subject string
}

// FileChange is one entry of a tree-level diff.
type FileChange struct {
	// Status is git's name-status letter: A, M, D, T.
	Status string
	// Path is relative to the directory the diff was taken from.
	Path string
}

// RepoRoot returns the top-level directory of the work tree containing dir.
func RepoRoot(dir string) (string, error) {
	out, err := gitOutput(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotRepository, dir)
	}
	return strings.TrimSpace(out), nil
}

// GitDir returns the absolute .git directory for dir.
func GitDir(dir string) (string, error) {
	out, err := gitOutput(dir, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotRepository, dir)
	}
	return strings.TrimSpace(out), nil
}

// RecentCommits returns up to n commits reachable from HEAD, newest first.
func RecentCommits(dir string, n int) ([]CommitInfo, error) {
	if _, err := RepoRoot(dir); err != nil {
		return nil, err
	}
	out, err := gitOutput(dir, "log", fmt.Sprintf("-n%d", n), "--format=%H%x09%s")
	if err != nil {
		// A repository without commits has no HEAD to log from.
		return nil, nil
	}
	return parseLog(out), nil
}

// LatestPair returns the parent and child of the two most recent commits.
func LatestPair(dir string) (older, newer CommitInfo, err error) {
	commits, err := RecentCommits(dir, 2)
	if err != nil {
		return CommitInfo{}, CommitInfo{}, err
	}
	if len(commits) < 2 {
		return CommitInfo{}, CommitInfo{}, ErrTooFewCommits
	}
	return commits[1], commits[0], nil
}

func parseLog(out string) []CommitInfo {
	var commits []CommitInfo
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		sha, subject, _ := strings.Cut(line, "\t")
		commits = append(commits, CommitInfo{SHA: strings.TrimSpace(sha), Subject: subject})
	}
	return commits
}

// ChangedPaths lists the files that differ between two commit trees, limited
// to dir and reported relative to it, in git's path order.
func ChangedPaths(dir, oldSHA, newSHA string) ([]FileChange, error) {
	out, err := gitOutput(dir, "diff", "--name-status", "--no-renames", "--relative", oldSHA, newSHA, "--", ".")
	if err != nil {
		return nil, fmt.Errorf("git diff %s %s: %w", short(oldSHA), short(newSHA), err)
	}
	return parseNameStatus(out), nil
}

func parseNameStatus(out string) []FileChange {
	var changes []FileChange
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		status, path, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		changes = append(changes, FileChange{Status: status, Path: filepath.ToSlash(path)})
	}
	return changes
}

// ShowFile returns the content of path (relative to dir) at commit sha. The
// boolean is false when the file does not exist in that commit.
func ShowFile(dir, sha, path string) (string, bool, error) {
	rel := "./" + filepath.ToSlash(path)
	listing, err := gitOutput(dir, "ls-tree", "--name-only", sha, "--", rel)
	if err != nil {
		return "", false, fmt.Errorf("git ls-tree %s: %w", short(sha), err)
	}
	if strings.TrimSpace(listing) == "" {
		return "", false, nil
	}
	out, err := gitOutput(dir, "show", sha+":"+rel)
	if err != nil {
		return "", false, fmt.Errorf("git show %s:%s: %w", short(sha), path, err)
	}
	return out, true, nil
}

// ReadWorkingFile returns the working-tree content of path relative to dir.
// The boolean is false when the file does not exist.
func ReadWorkingFile(dir, path string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(path)))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), true, nil
}

// ListFiles returns tracked and untracked, non-ignored files below dir,
// relative to it and sorted, filtered by the include/exclude globs. An empty
// include list accepts everything.
func ListFiles(dir string, include, exclude []string) ([]string, error) {
	out, err := gitOutput(dir, "ls-files", "--cached", "--others", "--exclude-standard")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	seen := make(map[string]bool)
	var files []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		if len(include) > 0 && !MatchesAny(line, include) {
			continue
		}
		if MatchesAny(line, exclude) {
			continue
		}
		files = append(files, line)
	}

	sort.Strings(files)
	return files, nil
}

// MatchesAny returns true if the path matches any of the given glob patterns.
// A trailing "/**" matches everything below that directory; a leading "**/"
// also tries the pattern against the base name.
func MatchesAny(path string, patterns []string) bool {
	path = filepath.ToSlash(path)
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok && !strings.ContainsAny(dir, "*?[") {
			if strings.HasPrefix(path, dir+"/") {
				return true
			}
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			if dir, ok := strings.CutSuffix(clean, "/**"); ok {
				if path == dir || strings.HasPrefix(path, dir+"/") || strings.Contains(path, "/"+dir+"/") {
					return true
				}
			}
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

func short(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
