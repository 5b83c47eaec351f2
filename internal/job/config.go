package job

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/dshills/codeward/internal/analysis"
	"github.com/dshills/codeward/internal/config"
	"github.com/dshills/codeward/internal/extract"
	"github.com/dshills/codeward/internal/prompts"
	"github.com/dshills/codeward/internal/providers"
	"github.com/dshills/codeward/internal/syntax"
)

// Credentials are vendor API keys. Values are expanded with os.ExpandEnv.
type Credentials struct {
	OpenAI    string `toml:"openai"`
	Gemini    string `toml:"gemini"`
	Anthropic string `toml:"anthropic"`
}

// Job is one [[job]] table.
type Job struct {
	Name           string      `toml:"name"`
	Target         string      `toml:"target"`
	Granularity    string      `toml:"granularity"`
	Modes          []string    `toml:"modes"`
	Models         []string    `toml:"models"`
	Language       string      `toml:"language"`
	Detail         string      `toml:"detail"`
	Focus          []string    `toml:"focus"`
	Temperature    float64     `toml:"temperature"`
	MaxTokens      int         `toml:"maxTokens"`
	TimeoutSeconds int         `toml:"timeoutSeconds"`
	IgnoreFile     string      `toml:"ignoreFile"`
	PromptFile     string      `toml:"promptFile"`
	LogDir         string      `toml:"logDir"`
	Include        []string    `toml:"include"`
	Exclude        []string    `toml:"exclude"`
	Backend        string      `toml:"backend"`
	Bypass         bool        `toml:"bypass"`
	Credentials    Credentials `toml:"credentials"`

	// Source holds in-memory code analyzed instead of Target, with Lang
	// naming its language.
	Source []byte `toml:"-"`
	Lang   string `toml:"-"`
}

type file struct {
	Jobs []Job `toml:"job"`
}

// LoadFile reads the jobs of a TOML job file. Relative targets and file
// paths are resolved against the job file's directory.
func LoadFile(path string) ([]Job, error) {
	var f file
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if len(f.Jobs) == 0 {
		return nil, fmt.Errorf("%s: no [[job]] tables", path)
	}

	base := filepath.Dir(path)
	for i := range f.Jobs {
		j := &f.Jobs[i]
		if strings.TrimSpace(j.Target) == "" {
			return nil, fmt.Errorf("%s: job %d: missing target", path, i+1)
		}
		j.Target = resolvePath(base, j.Target)
		j.IgnoreFile = resolvePath(base, j.IgnoreFile)
		j.PromptFile = resolvePath(base, j.PromptFile)
		j.LogDir = resolvePath(base, j.LogDir)
		j.Credentials = Credentials{
			OpenAI:    os.ExpandEnv(j.Credentials.OpenAI),
			Gemini:    os.ExpandEnv(j.Credentials.Gemini),
			Anthropic: os.ExpandEnv(j.Credentials.Anthropic),
		}
	}
	return f.Jobs, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Settings is a job with every inherited value filled in.
type Settings struct {
	Name        string
	Target      string
	Source      []byte
	Lang        syntax.Language
	Granularity extract.Granularity
	Modes       analysis.Modes
	Models      []string
	Locale      string
	Detail      prompts.Detail
	Focus       []string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	IgnoreFile  string
	PromptFile  string
	LogDir      string
	Include     []string
	Exclude     []string
	Backend     string
	Credentials providers.Credentials
	Bypass      bool
	CodeServer  config.CodeServerConfig
	Cache       config.CacheConfig
	Privacy     config.PrivacyConfig
}

// Resolve fills the empty fields of j from global and validates the result.
func (j Job) Resolve(global config.Config) (Settings, error) {
	s := Settings{
		Target:      j.Target,
		Source:      j.Source,
		Models:      firstList(j.Models, global.Models),
		Locale:      firstString(j.Language, global.Language),
		Focus:       j.Focus,
		Temperature: j.Temperature,
		MaxTokens:   j.MaxTokens,
		IgnoreFile:  firstString(j.IgnoreFile, global.IgnoreFile),
		PromptFile:  firstString(j.PromptFile, global.PromptFile),
		LogDir:      firstString(j.LogDir, global.LogDir),
		Include:     firstList(j.Include, global.Include),
		Exclude:     firstList(j.Exclude, global.Exclude),
		Backend:     j.Backend,
		Credentials: providers.Credentials(j.Credentials),
		CodeServer:  global.CodeServer,
		Cache:       global.Cache,
		Privacy:     global.Privacy,
	}
	s.Bypass = j.Bypass || s.Credentials.Any()

	var errs []error
	if len(s.Models) == 0 {
		errs = append(errs, errors.New("no models configured"))
	}
	if s.Target == "" && s.Source == nil {
		errs = append(errs, errors.New("missing target"))
	}

	g, err := extract.ParseGranularity(firstString(j.Granularity, global.Granularity))
	if err != nil {
		errs = append(errs, err)
	}
	s.Granularity = g

	d, err := prompts.ParseDetail(firstString(j.Detail, global.Detail))
	if err != nil {
		errs = append(errs, err)
	}
	s.Detail = d

	for _, m := range firstList(j.Modes, global.Modes) {
		switch m {
		case config.ModeCodeWithIssues:
			s.Modes.CodeWithIssues = true
		case config.ModeCodeOnly:
			s.Modes.CodeOnly = true
		default:
			errs = append(errs, fmt.Errorf("unknown mode %q", m))
		}
	}

	if j.Source != nil {
		lang, err := syntax.ParseLanguage(j.Lang)
		if err != nil {
			errs = append(errs, err)
		}
		s.Lang = lang
		if s.Granularity == extract.ByGitDiff {
			errs = append(errs, errors.New("git-diff granularity needs a repository target"))
		}
	}

	if s.Temperature == 0 {
		s.Temperature = global.Temperature
	}
	if s.MaxTokens == 0 {
		s.MaxTokens = global.MaxTokens
	}
	timeout := j.TimeoutSeconds
	if timeout == 0 {
		timeout = global.TimeoutSeconds
	}
	s.Timeout = time.Duration(timeout) * time.Second

	s.Name = j.Name
	if s.Name == "" {
		s.Name = s.defaultName()
	}

	if err := errors.Join(errs...); err != nil {
		return Settings{}, fmt.Errorf("job %s: %w", s.Name, err)
	}
	return s, nil
}

// defaultName is the first model, so logs of ad-hoc runs are kept per model.
func (s Settings) defaultName() string {
	if len(s.Models) > 0 {
		return s.Models[0]
	}
	if s.Target != "" {
		return filepath.Base(s.Target)
	}
	return "job"
}

func firstString(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func firstList(v, fallback []string) []string {
	if len(v) > 0 {
		return v
	}
	return fallback
}
