package issues

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// IgnoreList is an ordered set of case-sensitive substrings.
type IgnoreList []string

// DefaultIgnore returns the built-in list. It hides the import and
// cross-file reference errors an isolated single-file compile produces.
func DefaultIgnore() IgnoreList {
	return IgnoreList{"could not import", "undefined: "}
}

// Suppresses reports whether diagnostic contains any entry.
func (l IgnoreList) Suppresses(diagnostic string) bool {
	for _, entry := range l {
		if strings.Contains(diagnostic, entry) {
			return true
		}
	}
	return false
}

var commentPrefixes = []string{"//", "#", ";", "'", "rem"}

// Parse reads one entry per line. Blank lines and comment lines are skipped.
// Entries are trimmed; duplicates keep their first position.
func Parse(r io.Reader) (IgnoreList, error) {
	var list IgnoreList
	seen := make(map[string]bool)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || isComment(line) || seen[line] {
			continue
		}
		seen[line] = true
		list = append(list, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore list: %w", err)
	}
	return list, nil
}

// LoadFile replaces the default list with the entries in path.
func LoadFile(path string) (IgnoreList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func isComment(line string) bool {
	for _, p := range commentPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
