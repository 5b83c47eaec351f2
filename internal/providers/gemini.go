package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// Gemini implements the Backend interface for Google's Gemini API.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a new Gemini backend.
func NewGemini(ctx context.Context, apiKey string, opts Options) (*Gemini, error) {
	return newGemini(ctx, apiKey, "", &http.Client{Timeout: opts.timeout()})
}

func newGemini(ctx context.Context, apiKey, baseURL string, hc *http.Client) (*Gemini, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Analyze(ctx context.Context, req AnalysisRequest) (AnalysisResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.UserPrompt), cfg)
	if err != nil {
		return AnalysisResponse{}, mapGeminiError(err)
	}

	content := resp.Text()
	if content == "" {
		return AnalysisResponse{}, fmt.Errorf("%s: no content in response", g.Name())
	}
	var tokens int
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return AnalysisResponse{Content: content, TokensUsed: tokens}, nil
}

func mapGeminiError(err error) error {
	code, msg := 0, ""
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, msg = apiErr.Code, apiErr.Message
	case errors.As(err, &apiErrPtr):
		code, msg = apiErrPtr.Code, apiErrPtr.Message
	default:
		return fmt.Errorf("gemini: %w", err)
	}
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return &AuthError{Backend: "gemini", Message: msg}
	}
	return &StatusError{Backend: "gemini", StatusCode: code, Body: msg}
}
