package prompts

import (
	"fmt"
	"strings"
)

// Mode is the kind of analysis a prompt requests.
type Mode int

const (
	// CodeWithIssues asks for an explanation of the code and fixes for the
	// reported diagnostics.
	CodeWithIssues Mode = iota
	// CodeOnly asks only for a security review of the code.
	CodeOnly
)

func (m Mode) String() string {
	switch m {
	case CodeWithIssues:
		return "code-with-issues"
	case CodeOnly:
		return "code-only"
	default:
		return "unknown"
	}
}

// Prompt is a ready-to-send system/user pair.
type Prompt struct {
	System string
	User   string
	// IssueCount is the number of diagnostics the user prompt carries.
	IssueCount int
}

// Build renders the prompt for one unit. In CodeWithIssues mode a unit
// without surviving diagnostics falls back to the code-only wording.
func (t Templates) Build(mode Mode, code string, issueCount int, issueText string) Prompt {
	if mode == CodeOnly || issueCount <= 0 {
		return Prompt{
			System: t.CodeOnlySystem,
			User:   expand(t.CodeOnlyUser, code, ""),
		}
	}

	step2 := t.Issue
	if issueCount > 1 {
		step2 = t.MultipleIssues
	}
	var b strings.Builder
	b.WriteString("Step 1 -- ")
	b.WriteString(expand(t.CodeWithIssuesUser, code, issueText))
	b.WriteString("\n\nStep 2 -- ")
	b.WriteString(expand(step2, code, issueText))
	return Prompt{
		System:     t.CodeWithIssuesSystem,
		User:       b.String(),
		IssueCount: issueCount,
	}
}

// WithFocus appends the catalog's focus areas to the system prompt.
func (c *Catalog) WithFocus(p Prompt) Prompt {
	if len(c.Focus) == 0 {
		return p
	}
	p.System += fmt.Sprintf("\n\nFocus areas: %s. Prioritize findings in these areas.", strings.Join(c.Focus, ", "))
	return p
}

func expand(tmpl, code, issues string) string {
	return strings.NewReplacer(codePlaceholder, code, issuePlaceholder, issues).Replace(tmpl)
}
