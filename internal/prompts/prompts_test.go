package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDetail(t *testing.T) {
	d, err := ParseDetail("")
	require.NoError(t, err)
	assert.Equal(t, Concise, d)

	d, err = ParseDetail("Detailed")
	require.NoError(t, err)
	assert.Equal(t, Detailed, d)

	_, err = ParseDetail("verbose")
	assert.Error(t, err)
}

func TestBuiltin_Complete(t *testing.T) {
	c := Builtin()
	for _, tag := range []string{"en", "de"} {
		for _, d := range []Detail{Concise, Detailed} {
			tmpl := c.Languages[tag][d]
			assert.Contains(t, tmpl.CodeOnlyUser, codePlaceholder, "%s/%s", tag, d)
			assert.Contains(t, tmpl.CodeWithIssuesUser, codePlaceholder, "%s/%s", tag, d)
			assert.Contains(t, tmpl.Issue, issuePlaceholder, "%s/%s", tag, d)
			assert.Contains(t, tmpl.MultipleIssues, issuePlaceholder, "%s/%s", tag, d)
			assert.NotEmpty(t, tmpl.CodeOnlySystem)
			assert.NotEmpty(t, tmpl.CodeWithIssuesSystem)
		}
	}
}

func TestBuild_SingleIssue(t *testing.T) {
	tmpl := Builtin().Languages["en"][Concise]
	p := tmpl.Build(CodeWithIssues, "func f() {}", 1, "\nmain.go:1:1: error: boom")

	assert.Equal(t, tmpl.CodeWithIssuesSystem, p.System)
	assert.Equal(t, 1, p.IssueCount)
	assert.True(t, strings.HasPrefix(p.User, "Step 1 -- "))
	assert.Contains(t, p.User, "func f() {}")
	assert.Contains(t, p.User, "\n\nStep 2 -- "+strings.Replace(tmpl.Issue, issuePlaceholder, "\nmain.go:1:1: error: boom", 1))
	assert.NotContains(t, p.User, "issues below")
}

func TestBuild_MultipleIssues(t *testing.T) {
	tmpl := Builtin().Languages["en"][Concise]
	p := tmpl.Build(CodeWithIssues, "x", 2, "\na\nb")

	assert.Contains(t, p.User, "issues below")
	assert.True(t, strings.HasSuffix(p.User, "\na\nb"))
}

func TestBuild_NoIssuesFallsBackToCodeOnly(t *testing.T) {
	tmpl := Builtin().Languages["en"][Concise]
	p := tmpl.Build(CodeWithIssues, "x", 0, "")

	assert.Equal(t, tmpl.CodeOnlySystem, p.System)
	assert.Equal(t, strings.Replace(tmpl.CodeOnlyUser, codePlaceholder, "x", 1), p.User)
	assert.NotContains(t, p.User, "Step 1")
	assert.Zero(t, p.IssueCount)
}

func TestBuild_CodeOnlyIgnoresIssues(t *testing.T) {
	tmpl := Builtin().Languages["de"][Detailed]
	p := tmpl.Build(CodeOnly, "x", 3, "\na\nb\nc")

	assert.Equal(t, tmpl.CodeOnlySystem, p.System)
	assert.NotContains(t, p.User, "\na\nb\nc")
}

func TestBuild_PlaceholderInCodeIsNotExpanded(t *testing.T) {
	tmpl := Builtin().Languages["en"][Concise]
	p := tmpl.Build(CodeWithIssues, `s := "{issue_prompt}"`, 1, "\nissue")
	assert.Contains(t, p.User, `s := "{issue_prompt}"`)
}

func TestSelect_LanguageMatching(t *testing.T) {
	c := Builtin()
	tests := []struct {
		locale string
		want   string
	}{
		{"en", "en"},
		{"de", "de"},
		{"de-AT", "de"},
		{"en-GB", "en"},
		{"fr", "en"},
		{"", "en"},
		{"not a tag", "en"},
	}
	for _, tt := range tests {
		got := c.Select(tt.locale, Concise)
		assert.Equal(t, c.Languages[tt.want][Concise], got, tt.locale)
	}
}

func TestCatalog_Tags(t *testing.T) {
	assert.Equal(t, []string{"en", "de"}, Builtin().Tags())
}

func TestLoad_PartialCatalogFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := `focus: [security]
languages:
  de:
    concise:
      codeOnlyUser: "Nur Code:\n{code_prompt}"
  nl:
    detailed:
      issue: "Probleem:\n{issue_prompt}"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	de := c.Select("de", Concise)
	assert.Equal(t, "Nur Code:\n{code_prompt}", de.CodeOnlyUser)
	assert.Equal(t, Builtin().Languages["de"][Concise].Issue, de.Issue)

	nl := c.Select("nl-BE", Detailed)
	assert.Equal(t, "Probleem:\n{issue_prompt}", nl.Issue)
	assert.Equal(t, Builtin().Languages["en"][Detailed].CodeOnlySystem, nl.CodeOnlySystem)

	nlConcise := c.Select("nl", Concise)
	assert.Equal(t, "Probleem:\n{issue_prompt}", nlConcise.Issue)

	p := c.WithFocus(de.Build(CodeOnly, "x", 0, ""))
	assert.Contains(t, p.System, "Focus areas: security.")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("languages: [oops"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prompts.yaml")
	require.NoError(t, Builtin().Save(path))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Builtin().Languages, c.Languages)
}
