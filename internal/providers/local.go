package providers

import (
	"context"
	"net/http"
	"strings"
)

const defaultLocalURL = "http://localhost:11434"

// Local implements the Backend interface for OpenAI-compatible local servers
// such as Ollama and LM Studio.
type Local struct {
	baseURL string
	client  *http.Client
}

// NewLocal creates a backend for the server at opts.CodeServerURL.
func NewLocal(opts Options) *Local {
	baseURL := opts.CodeServerURL
	if baseURL == "" {
		baseURL = defaultLocalURL
	}

	// Normalize URL: strip trailing /, /v1, /v1/chat/completions
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/v1/chat/completions")
	baseURL = strings.TrimSuffix(baseURL, "/v1")

	return &Local{
		baseURL: baseURL + "/v1/chat/completions",
		client:  newHTTPClient(opts),
	}
}

func (l *Local) Name() string { return "local" }

func (l *Local) Analyze(ctx context.Context, req AnalysisRequest) (AnalysisResponse, error) {
	return chatCompletion(ctx, l.Name(), l.client, l.baseURL, "", req)
}
