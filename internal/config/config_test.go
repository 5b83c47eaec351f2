package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if !reflect.DeepEqual(cfg.Models, []string{"qwen2.5-coder:32b"}) {
		t.Errorf("Default models = %v", cfg.Models)
	}
	if !reflect.DeepEqual(cfg.Modes, []string{ModeCodeWithIssues}) {
		t.Errorf("Default modes = %v", cfg.Modes)
	}
	if cfg.Granularity != "function" {
		t.Errorf("Default granularity = %q, want %q", cfg.Granularity, "function")
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("Default temperature = %v, want 0.7", cfg.Temperature)
	}
	if cfg.MaxTokens != 1500 {
		t.Errorf("Default maxTokens = %d, want 1500", cfg.MaxTokens)
	}
	if cfg.TimeoutSeconds != 900 {
		t.Errorf("Default timeoutSeconds = %d, want 900", cfg.TimeoutSeconds)
	}
	if cfg.Cache.Enabled {
		t.Error("Default cache should be disabled")
	}
	if !cfg.Privacy.RedactSecrets {
		t.Error("Default redactSecrets should be true")
	}
}

func TestMergeEnv(t *testing.T) {
	t.Setenv("CODEWARD_MODELS", "a:7b, b")
	t.Setenv("CODEWARD_MODES", "code-only")
	t.Setenv("CODEWARD_GRANULARITY", "class")
	t.Setenv("CODEWARD_TEMPERATURE", "0.2")
	t.Setenv("CODEWARD_MAX_TOKENS", "800")
	t.Setenv("CODEWARD_LOG_DIR", "/var/log/cw")
	t.Setenv("CODEWARD_CODESERVER_URL", "https://ai.internal/chat")
	t.Setenv("CODEWARD_CODESERVER_INSECURE", "true")

	cfg := Default()
	if err := mergeEnv(&cfg); err != nil {
		t.Fatalf("mergeEnv error: %v", err)
	}

	if !reflect.DeepEqual(cfg.Models, []string{"a:7b", "b"}) {
		t.Errorf("Models = %v", cfg.Models)
	}
	if !reflect.DeepEqual(cfg.Modes, []string{ModeCodeOnly}) {
		t.Errorf("Modes = %v", cfg.Modes)
	}
	if cfg.Granularity != "class" {
		t.Errorf("Granularity = %q", cfg.Granularity)
	}
	if cfg.Temperature != 0.2 {
		t.Errorf("Temperature = %v", cfg.Temperature)
	}
	if cfg.MaxTokens != 800 {
		t.Errorf("MaxTokens = %d", cfg.MaxTokens)
	}
	if cfg.LogDir != "/var/log/cw" {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.CodeServer.URL != "https://ai.internal/chat" || !cfg.CodeServer.Insecure {
		t.Errorf("CodeServer = %+v", cfg.CodeServer)
	}
}

func TestMergeEnv_Invalid(t *testing.T) {
	t.Setenv("CODEWARD_MAX_TOKENS", "lots")

	cfg := Default()
	err := mergeEnv(&cfg)
	if err == nil {
		t.Fatal("expected error for invalid CODEWARD_MAX_TOKENS")
	}
	if !strings.Contains(err.Error(), "CODEWARD_MAX_TOKENS") {
		t.Errorf("error should name the variable: %v", err)
	}
}

func TestMergeOverrides(t *testing.T) {
	cfg := Default()
	err := mergeOverrides(&cfg, map[string]string{
		"models":      "gpt-4o",
		"granularity": "git-diff",
		"logDir":      "",
	})
	if err != nil {
		t.Fatalf("mergeOverrides error: %v", err)
	}
	if !reflect.DeepEqual(cfg.Models, []string{"gpt-4o"}) {
		t.Errorf("Models = %v", cfg.Models)
	}
	if cfg.Granularity != "git-diff" {
		t.Errorf("Granularity = %q", cfg.Granularity)
	}
	if cfg.LogDir != Default().LogDir {
		t.Error("empty override should not clear logDir")
	}
}

func TestMergeOverrides_Nil(t *testing.T) {
	cfg := Default()
	if err := mergeOverrides(&cfg, nil); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Error("nil overrides should leave config unchanged")
	}
}

func TestSetField(t *testing.T) {
	tests := []struct {
		key, value string
		check      func(Config) bool
	}{
		{"models", "a,b", func(c Config) bool { return len(c.Models) == 2 }},
		{"modes", "code-with-issues,code-only", func(c Config) bool { return len(c.Modes) == 2 }},
		{"language", "de", func(c Config) bool { return c.Language == "de" }},
		{"detail", "detailed", func(c Config) bool { return c.Detail == "detailed" }},
		{"temperature", "1.5", func(c Config) bool { return c.Temperature == 1.5 }},
		{"timeoutSeconds", "60", func(c Config) bool { return c.TimeoutSeconds == 60 }},
		{"lockFile", "/tmp/x.lock", func(c Config) bool { return c.LockFile == "/tmp/x.lock" }},
		{"ignoreFile", "ignore.txt", func(c Config) bool { return c.IgnoreFile == "ignore.txt" }},
		{"promptFile", "p.yaml", func(c Config) bool { return c.PromptFile == "p.yaml" }},
		{"codeServer.protocol", "openai", func(c Config) bool { return c.CodeServer.Protocol == "openai" }},
		{"include", "**/*.go", func(c Config) bool { return c.Include[0] == "**/*.go" }},
		{"exclude", "gen/**", func(c Config) bool { return c.Exclude[0] == "gen/**" }},
		{"cache.enabled", "true", func(c Config) bool { return c.Cache.Enabled }},
		{"cache.dir", "/tmp/cache", func(c Config) bool { return c.Cache.Dir == "/tmp/cache" }},
		{"cache.ttlSeconds", "10", func(c Config) bool { return c.Cache.TTLSeconds == 10 }},
		{"privacy.redactSecrets", "false", func(c Config) bool { return !c.Privacy.RedactSecrets }},
		{"privacy.redactPaths", "*.pem", func(c Config) bool { return c.Privacy.RedactPaths[0] == "*.pem" }},
	}

	for _, tt := range tests {
		cfg := Default()
		if err := SetField(&cfg, tt.key, tt.value); err != nil {
			t.Errorf("SetField(%q, %q) error: %v", tt.key, tt.value, err)
			continue
		}
		if !tt.check(cfg) {
			t.Errorf("SetField(%q, %q) did not apply", tt.key, tt.value)
		}
	}
}

func TestSetField_Errors(t *testing.T) {
	tests := []struct{ key, value string }{
		{"nonexistent", "value"},
		{"maxTokens", "notanumber"},
		{"temperature", "warm"},
		{"cache.enabled", "maybe"},
		{"modes", "code-only,lint"},
	}
	for _, tt := range tests {
		cfg := Default()
		if err := SetField(&cfg, tt.key, tt.value); err == nil {
			t.Errorf("SetField(%q, %q) expected error", tt.key, tt.value)
		}
	}
}

func TestConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg-test", "codeward") {
		t.Errorf("ConfigDir = %q", dir)
	}
	path, err := ConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join("/tmp/xdg-test", "codeward", "config.json") {
		t.Errorf("ConfigPath = %q", path)
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Models = []string{"gpt-4o"}
	cfg.Cache.Enabled = true
	if err := Save(cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	loaded, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("loaded = %+v\nwant %+v", loaded, cfg)
	}
}

func TestLoadFile_NoFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Error("missing file should yield defaults")
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, "codeward", "config.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data := `{"privacy": {"redactSecrets": false}, "logDir": "out"}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Privacy.RedactSecrets {
		t.Error("file should be able to disable redactSecrets")
	}
	if cfg.LogDir != "out" {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.MaxTokens != 1500 {
		t.Errorf("MaxTokens = %d, want default", cfg.MaxTokens)
	}
}

func TestConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfg := Default()
	cfg.Granularity = "class"
	cfg.Language = "de"
	if err := Save(cfg); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CODEWARD_GRANULARITY", "whole")

	got, err := Load(map[string]string{"language": "en"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Granularity != "whole" {
		t.Errorf("env should beat file: granularity = %q", got.Granularity)
	}
	if got.Language != "en" {
		t.Errorf("flag should beat file: language = %q", got.Language)
	}
}

func TestKeys_AllSettable(t *testing.T) {
	samples := map[string]string{
		"modes":                 ModeCodeOnly,
		"temperature":           "0.2",
		"maxTokens":             "100",
		"timeoutSeconds":        "60",
		"cache.ttlSeconds":      "10",
		"codeServer.insecure":   "true",
		"cache.enabled":         "true",
		"privacy.redactSecrets": "false",
	}
	for _, key := range Keys {
		value, ok := samples[key]
		if !ok {
			value = "x"
		}
		cfg := Default()
		if err := SetField(&cfg, key, value); err != nil {
			t.Errorf("SetField(%q, %q): %v", key, value, err)
		}
	}
}
