package extract

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codeward/internal/changes"
	"github.com/dshills/codeward/internal/issues"
	"github.com/dshills/codeward/internal/syntax"
	"github.com/dshills/codeward/internal/workspace"
)

const goSrc = `package demo

type Server struct{ port int }

func (s *Server) Start() int { return s.port }

func broken() int {
	var n int = "s"
	return n
}
`

func loadSnippet(t *testing.T) *workspace.Workspace {
	t.Helper()
	l := &workspace.Loader{}
	ws, err := l.LoadSource(context.Background(), "", syntax.Go, []byte(goSrc))
	require.NoError(t, err)
	return ws
}

func drain(t *testing.T, e *Extractor) []Unit {
	t.Helper()
	var out []Unit
	for u, err := range e.Units(context.Background()) {
		require.NoError(t, err)
		out = append(out, u)
	}
	return out
}

func ids(units []Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Identifier
	}
	return out
}

func TestParseGranularity(t *testing.T) {
	tests := []struct {
		in   string
		want Granularity
	}{
		{"whole", WholeSource},
		{"File", WholeSource},
		{"class", ByClass},
		{" function ", ByFunction},
		{"method", ByFunction},
		{"git-diff", ByGitDiff},
		{"diff", ByGitDiff},
	}
	for _, tt := range tests {
		got, err := ParseGranularity(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseGranularity("line")
	assert.Error(t, err)
}

func TestFromWorkspace_RejectsGitDiff(t *testing.T) {
	_, err := FromWorkspace(loadSnippet(t), ByGitDiff, Options{})
	assert.Error(t, err)
}

func TestUnits_WholeSource(t *testing.T) {
	e, err := FromWorkspace(loadSnippet(t), WholeSource, Options{})
	require.NoError(t, err)

	units := drain(t, e)
	require.Len(t, units, 1)
	u := units[0]
	assert.Equal(t, "snippet.go", u.Identifier)
	assert.Equal(t, goSrc, u.SourceText)
	assert.Equal(t, 1, u.IssueCount)
	assert.Contains(t, u.IssueText, "cannot use")
	assert.Empty(t, u.PriorVersionText)
}

func TestUnits_ByClass(t *testing.T) {
	e, err := FromWorkspace(loadSnippet(t), ByClass, Options{})
	require.NoError(t, err)

	units := drain(t, e)
	require.Len(t, units, 1)
	assert.Equal(t, "snippet.go | Server", units[0].Identifier)
	assert.Contains(t, units[0].SourceText, "type Server")
	assert.Equal(t, 0, units[0].IssueCount)
	assert.Empty(t, units[0].IssueText)
}

func TestUnits_ByFunction(t *testing.T) {
	e, err := FromWorkspace(loadSnippet(t), ByFunction, Options{})
	require.NoError(t, err)

	units := drain(t, e)
	assert.Equal(t, []string{"snippet.go | (*Server).Start()", "snippet.go | broken()"}, ids(units))

	assert.Equal(t, 0, units[0].IssueCount)
	assert.Equal(t, 1, units[1].IssueCount)
	assert.Contains(t, units[1].IssueText, "\nsnippet.go:8:")
	assert.Len(t, units[1].Diagnostics, 1)
}

func TestUnits_StableAcrossRuns(t *testing.T) {
	ws := loadSnippet(t)
	first, err := FromWorkspace(ws, ByFunction, Options{})
	require.NoError(t, err)
	second, err := FromWorkspace(ws, ByFunction, Options{})
	require.NoError(t, err)

	assert.Equal(t, drain(t, first), drain(t, second))
}

func TestUnits_IgnoreListSuppresses(t *testing.T) {
	e, err := FromWorkspace(loadSnippet(t), ByFunction, Options{Ignore: issues.IgnoreList{"cannot use"}})
	require.NoError(t, err)

	units := drain(t, e)
	require.Len(t, units, 2)
	assert.Equal(t, 0, units[1].IssueCount)
	assert.Empty(t, units[1].IssueText)
	assert.Len(t, units[1].Diagnostics, 1, "raw diagnostics are kept")
}

func TestUnits_Lockstep(t *testing.T) {
	var events []string
	obs := ObserverFunc(func(u Unit) { events = append(events, "ready "+u.Identifier) })
	e, err := FromWorkspace(loadSnippet(t), ByFunction, Options{Observer: obs})
	require.NoError(t, err)

	for u, err := range e.Units(context.Background()) {
		require.NoError(t, err)
		events = append(events, "got "+u.Identifier)
	}

	assert.Equal(t, []string{
		"ready snippet.go | (*Server).Start()",
		"got snippet.go | (*Server).Start()",
		"ready snippet.go | broken()",
		"got snippet.go | broken()",
	}, events)
}

func TestUnits_EarlyBreakStopsEnumeration(t *testing.T) {
	var ready int
	obs := ObserverFunc(func(Unit) { ready++ })
	e, err := FromWorkspace(loadSnippet(t), ByFunction, Options{Observer: obs})
	require.NoError(t, err)

	for range e.Units(context.Background()) {
		break
	}
	assert.Equal(t, 1, ready)
}

func TestUnits_SecondRangeIsConsumed(t *testing.T) {
	e, err := FromWorkspace(loadSnippet(t), WholeSource, Options{})
	require.NoError(t, err)
	drain(t, e)

	var errs []error
	for u, err := range e.Units(context.Background()) {
		assert.Zero(t, u)
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], ErrConsumed))
}

func TestUnits_CancelledContext(t *testing.T) {
	e, err := FromWorkspace(loadSnippet(t), WholeSource, Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var errs []error
	for _, err := range e.Units(ctx) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
}

func TestUnits_BlockStyleClasses(t *testing.T) {
	src := "class Greeter:\n    def hello(self):\n        return 1\n\n\ndef main():\n    pass\n"
	l := &workspace.Loader{}
	ws, err := l.LoadSource(context.Background(), "greet.py", syntax.Python, []byte(src))
	require.NoError(t, err)

	e, err := FromWorkspace(ws, ByClass, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"greet.py | Greeter"}, ids(drain(t, e)))

	e, err = FromWorkspace(ws, ByFunction, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"greet.py | def Greeter.hello", "greet.py | def main"}, ids(drain(t, e)))
}

func commitTwice(t *testing.T, oldFiles, newFiles map[string]string) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	write := func(files map[string]string) {
		for name, content := range files {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
		}
	}
	run("init")
	write(oldFiles)
	run("add", "-A")
	run("commit", "-m", "old")
	write(newFiles)
	run("add", "-A")
	run("commit", "--allow-empty", "-m", "new")
	return dir
}

func TestUnits_ByGitDiff(t *testing.T) {
	dir := commitTwice(t,
		map[string]string{"demo.go": "package demo\n\nfunc f(x int) int {\n\treturn x\n}\n"},
		map[string]string{"demo.go": "package demo\n\nfunc f(x int) int {\n\treturn x + 1\n}\n\nfunc g() {}\n"},
	)

	e := FromGitDiff(dir, &changes.Detector{}, Options{})
	units := drain(t, e)
	require.Len(t, units, 2)

	mod := units[0]
	assert.Equal(t, "demo.go | f(x int)", mod.Identifier)
	assert.Equal(t, "modified", mod.Change)
	assert.Equal(t, "{\n\treturn x\n}", mod.PriorVersionText)
	assert.Equal(t, 0, mod.IssueCount)
	assert.Equal(t, previousVersionNote+"{\n\treturn x\n}\n", mod.IssueText)

	added := units[1]
	assert.Equal(t, "demo.go | g()", added.Identifier)
	assert.Equal(t, "added", added.Change)
	assert.Empty(t, added.PriorVersionText)
	assert.Empty(t, added.IssueText)
}

func TestUnits_ByGitDiffBlockStyleQuotesWholeDefinition(t *testing.T) {
	dir := commitTwice(t,
		map[string]string{"demo.py": "def f(x):\n    return x\n"},
		map[string]string{"demo.py": "def f(x):\n    return x + 1\n"},
	)

	units := drain(t, FromGitDiff(dir, &changes.Detector{}, Options{}))
	require.Len(t, units, 1)
	assert.Equal(t, "modified", units[0].Change)
	assert.Equal(t, previousVersionNote+"def f(x):\n    return x\n", units[0].IssueText)
}

func TestUnits_ByGitDiffOutsideRepository(t *testing.T) {
	e := FromGitDiff(t.TempDir(), &changes.Detector{}, Options{})
	assert.Empty(t, drain(t, e))
}
