package providers

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1500
	DefaultTimeout     = 15 * time.Minute
)

// AnalysisRequest contains the data sent to a backend for one unit.
type AnalysisRequest struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	MaxTokens    int
	Temperature  float64
}

// AnalysisResponse contains the single message a backend returned.
type AnalysisResponse struct {
	Content    string
	TokensUsed int
}

// Backend is a text-completion service.
type Backend interface {
	Analyze(ctx context.Context, req AnalysisRequest) (AnalysisResponse, error)
	Name() string
}

// Credentials holds the vendor API keys for a run.
type Credentials struct {
	OpenAI    string
	Gemini    string
	Anthropic string
}

// Any reports whether at least one vendor key is set.
func (c Credentials) Any() bool {
	return c.OpenAI != "" || c.Gemini != "" || c.Anthropic != ""
}

// Options configure backend construction.
type Options struct {
	// CodeServerURL is the endpoint of the default backend.
	CodeServerURL string
	// CodeServerProtocol is "form" (the default) or "openai" for local
	// OpenAI-compatible servers such as Ollama or LM Studio.
	CodeServerProtocol string
	// Insecure disables TLS verification for the default backend.
	Insecure bool
	Timeout  time.Duration
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// Select picks the backend for a whole run. The first non-empty vendor key
// wins in the order OpenAI, Gemini, Anthropic; without any key the default
// code server is used.
func Select(ctx context.Context, creds Credentials, opts Options) (Backend, error) {
	switch {
	case creds.OpenAI != "":
		return NewOpenAI(creds.OpenAI, opts), nil
	case creds.Gemini != "":
		return NewGemini(ctx, creds.Gemini, opts)
	case creds.Anthropic != "":
		return NewAnthropic(creds.Anthropic, opts), nil
	default:
		return newDefault(opts), nil
	}
}

// New creates a backend by name.
func New(ctx context.Context, name string, creds Credentials, opts Options) (Backend, error) {
	switch name {
	case "openai":
		if creds.OpenAI == "" {
			return nil, fmt.Errorf("openai: no API key configured")
		}
		return NewOpenAI(creds.OpenAI, opts), nil
	case "gemini", "google":
		if creds.Gemini == "" {
			return nil, fmt.Errorf("gemini: no API key configured")
		}
		return NewGemini(ctx, creds.Gemini, opts)
	case "anthropic", "claude":
		if creds.Anthropic == "" {
			return nil, fmt.Errorf("anthropic: no API key configured")
		}
		return NewAnthropic(creds.Anthropic, opts), nil
	case "codeserver", "default", "":
		return newDefault(opts), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", name)
	}
}

func newDefault(opts Options) Backend {
	if opts.CodeServerProtocol == "openai" {
		return NewLocal(opts)
	}
	return NewCodeServer(opts)
}
