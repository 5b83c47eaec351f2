package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Mode names accepted in Modes.
const (
	ModeCodeWithIssues = "code-with-issues"
	ModeCodeOnly       = "code-only"
)

// Config represents the codeward configuration.
type Config struct {
	Models         []string         `json:"models"`
	Modes          []string         `json:"modes"`
	Language       string           `json:"language"`
	Detail         string           `json:"detail"`
	Granularity    string           `json:"granularity"`
	Temperature    float64          `json:"temperature"`
	MaxTokens      int              `json:"maxTokens"`
	TimeoutSeconds int              `json:"timeoutSeconds"`
	LockFile       string           `json:"lockFile,omitempty"`
	IgnoreFile     string           `json:"ignoreFile,omitempty"`
	PromptFile     string           `json:"promptFile,omitempty"`
	LogDir         string           `json:"logDir"`
	CodeServer     CodeServerConfig `json:"codeServer"`
	Include        []string         `json:"include"`
	Exclude        []string         `json:"exclude"`
	Cache          CacheConfig      `json:"cache"`
	Privacy        PrivacyConfig    `json:"privacy"`
}

// CodeServerConfig points at the shared default backend.
type CodeServerConfig struct {
	URL string `json:"url"`
	// Protocol is "form" for the code server or "openai" for an
	// OpenAI-compatible local server.
	Protocol string `json:"protocol,omitempty"`
	Insecure bool   `json:"insecure"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `json:"enabled"`
	Dir        string `json:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Models:         []string{"qwen2.5-coder:32b"},
		Modes:          []string{ModeCodeWithIssues},
		Language:       "en",
		Detail:         "concise",
		Granularity:    "function",
		Temperature:    0.7,
		MaxTokens:      1500,
		TimeoutSeconds: 900,
		LogDir:         "codeward-logs",
		CodeServer: CodeServerConfig{
			URL:      "http://localhost:8000/chat",
			Protocol: "form",
		},
		Include: []string{"**/*"},
		Exclude: []string{"vendor/**", "**/node_modules/**", "**/testdata/**"},
		Cache: CacheConfig{
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for codeward.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "codeward"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "codeward"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "codeward"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "codeward"), nil
	default:
		return filepath.Join(home, ".config", "codeward"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile reads the config file over the defaults. Keys missing from the
// file keep their default value. A missing file yields Default().
func LoadFile() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKeys maps environment variables to config keys.
var envKeys = []struct {
	env, key string
}{
	{"CODEWARD_MODELS", "models"},
	{"CODEWARD_MODES", "modes"},
	{"CODEWARD_LANGUAGE", "language"},
	{"CODEWARD_DETAIL", "detail"},
	{"CODEWARD_GRANULARITY", "granularity"},
	{"CODEWARD_TEMPERATURE", "temperature"},
	{"CODEWARD_MAX_TOKENS", "maxTokens"},
	{"CODEWARD_TIMEOUT_SECONDS", "timeoutSeconds"},
	{"CODEWARD_LOCK_FILE", "lockFile"},
	{"CODEWARD_IGNORE_FILE", "ignoreFile"},
	{"CODEWARD_PROMPT_FILE", "promptFile"},
	{"CODEWARD_LOG_DIR", "logDir"},
	{"CODEWARD_CODESERVER_URL", "codeServer.url"},
	{"CODEWARD_CODESERVER_PROTOCOL", "codeServer.protocol"},
	{"CODEWARD_CODESERVER_INSECURE", "codeServer.insecure"},
}

func mergeEnv(cfg *Config) error {
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			return fmt.Errorf("%s: %w", e.env, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return err
		}
	}
	return nil
}

// Keys lists the keys SetField accepts, in config file order.
var Keys = []string{
	"models", "modes", "language", "detail", "granularity",
	"temperature", "maxTokens", "timeoutSeconds",
	"lockFile", "ignoreFile", "promptFile", "logDir",
	"codeServer.url", "codeServer.protocol", "codeServer.insecure",
	"include", "exclude",
	"cache.enabled", "cache.dir", "cache.ttlSeconds",
	"privacy.redactSecrets", "privacy.redactPaths",
}

// SetField sets a single config field by key name. Returns error if key is unknown.
// List values are comma separated.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "models":
		cfg.Models = splitList(value)
	case "modes":
		modes := splitList(value)
		for _, m := range modes {
			if m != ModeCodeWithIssues && m != ModeCodeOnly {
				return fmt.Errorf("unknown mode %q (want %s or %s)", m, ModeCodeWithIssues, ModeCodeOnly)
			}
		}
		cfg.Modes = modes
	case "language":
		cfg.Language = value
	case "detail":
		cfg.Detail = value
	case "granularity":
		cfg.Granularity = value
	case "temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("temperature must be a number: %w", err)
		}
		cfg.Temperature = f
	case "maxTokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxTokens must be an integer: %w", err)
		}
		cfg.MaxTokens = n
	case "timeoutSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("timeoutSeconds must be an integer: %w", err)
		}
		cfg.TimeoutSeconds = n
	case "lockFile":
		cfg.LockFile = value
	case "ignoreFile":
		cfg.IgnoreFile = value
	case "promptFile":
		cfg.PromptFile = value
	case "logDir":
		cfg.LogDir = value
	case "codeServer.url":
		cfg.CodeServer.URL = value
	case "codeServer.protocol":
		cfg.CodeServer.Protocol = value
	case "codeServer.insecure":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("codeServer.insecure must be a boolean: %w", err)
		}
		cfg.CodeServer.Insecure = b
	case "include":
		cfg.Include = splitList(value)
	case "exclude":
		cfg.Exclude = splitList(value)
	case "cache.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cache.enabled must be a boolean: %w", err)
		}
		cfg.Cache.Enabled = b
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("cache.ttlSeconds must be an integer: %w", err)
		}
		cfg.Cache.TTLSeconds = n
	case "privacy.redactSecrets":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("privacy.redactSecrets must be a boolean: %w", err)
		}
		cfg.Privacy.RedactSecrets = b
	case "privacy.redactPaths":
		cfg.Privacy.RedactPaths = splitList(value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
