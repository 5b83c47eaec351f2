package job

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Template is the commented job file written by WriteTemplate.
const Template = `# codeward job file. Each [[job]] table is one job; jobs run in order.
# Fields left out inherit the global config (codeward config show).

[[job]]
name = "nightly"
# Folder, go.mod, or single source file. Relative to this file.
target = "."
# whole | class | function | git-diff
granularity = "function"
# code-with-issues and/or code-only
modes = ["code-with-issues"]
models = ["qwen2.5-coder:32b"]
# Prompt language and detail: concise | detailed
language = "en"
detail = "concise"
# focus = ["security", "concurrency"]
# logDir = "codeward-logs"
# ignoreFile = "codeward-ignore.txt"
# promptFile = "prompts.yaml"
# Skip the shared lock. Always true when a credential is set.
bypass = false

# Vendor keys select a private backend: OpenAI, then Gemini, then Anthropic.
# [job.credentials]
# openai = "${OPENAI_API_KEY}"
# gemini = "${GEMINI_API_KEY}"
# anthropic = "${ANTHROPIC_API_KEY}"
`

// WriteTemplate writes Template to path. It refuses to overwrite a file.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	return os.WriteFile(path, []byte(Template), 0o644)
}
