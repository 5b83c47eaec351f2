package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropic_Analyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify headers
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("Missing API key header")
		}
		if r.Header.Get("anthropic-version") != anthropicAPIVersion {
			t.Error("Missing anthropic-version header")
		}
		var body anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if body.Model != "claude-sonnet-4-20250514" {
			t.Errorf("model = %q", body.Model)
		}
		if body.System != "sys" {
			t.Errorf("system = %q", body.System)
		}
		if body.Temperature == nil || *body.Temperature != 0.7 {
			t.Errorf("temperature = %v, want 0.7", body.Temperature)
		}

		resp := anthropicResponse{
			Content: []anthropicBlock{
				{Type: "text", Text: "looks fine"},
			},
			Usage: anthropicUsage{InputTokens: 100, OutputTokens: 10},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a := &Anthropic{
		apiKey:  "test-key",
		baseURL: anthropicAPIURL,
		client: &http.Client{
			Transport: &rewriteTransport{
				base:    server.Client().Transport,
				baseURL: server.URL,
			},
		},
	}

	resp, err := a.Analyze(context.Background(), AnalysisRequest{
		SystemPrompt: "sys",
		UserPrompt:   "user",
		Model:        "claude-sonnet-4-20250514",
		Temperature:  0.7,
	})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if resp.Content != "looks fine" {
		t.Errorf("Content = %q, want %q", resp.Content, "looks fine")
	}
	if resp.TokensUsed != 110 {
		t.Errorf("TokensUsed = %d, want 110", resp.TokensUsed)
	}
}

func TestAnthropic_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer server.Close()

	a := &Anthropic{
		apiKey:  "bad-key",
		baseURL: anthropicAPIURL,
		client: &http.Client{
			Transport: &rewriteTransport{
				base:    server.Client().Transport,
				baseURL: server.URL,
			},
		},
	}

	_, err := a.Analyze(context.Background(), AnalysisRequest{
		SystemPrompt: "test",
		UserPrompt:   "test",
	})
	if err == nil {
		t.Fatal("Expected auth error")
	}
	if !IsAuthError(err) {
		t.Errorf("Expected auth error, got: %v", err)
	}
}

func TestAnthropic_ServerErrorIsNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(500)
		w.Write([]byte(`{"error":"internal server error"}`))
	}))
	defer server.Close()

	a := &Anthropic{apiKey: "k", baseURL: server.URL, client: server.Client()}

	_, err := a.Analyze(context.Background(), AnalysisRequest{UserPrompt: "test"})
	if err == nil {
		t.Fatal("Expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestAnthropic_DefaultMaxTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body anthropicRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.MaxTokens != DefaultMaxTokens {
			t.Errorf("max_tokens = %d, want %d", body.MaxTokens, DefaultMaxTokens)
		}
		json.NewEncoder(w).Encode(anthropicResponse{Content: []anthropicBlock{{Type: "text", Text: "ok"}}})
	}))
	defer server.Close()

	a := &Anthropic{apiKey: "k", baseURL: server.URL, client: server.Client()}
	if _, err := a.Analyze(context.Background(), AnalysisRequest{UserPrompt: "x"}); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
}

func TestAnthropic_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anthropicResponse{})
	}))
	defer server.Close()

	a := &Anthropic{apiKey: "k", baseURL: server.URL, client: server.Client()}
	if _, err := a.Analyze(context.Background(), AnalysisRequest{UserPrompt: "x"}); err == nil {
		t.Error("Expected error for empty content")
	}
}

// rewriteTransport rewrites all request URLs to point at the test server.
type rewriteTransport struct {
	base    http.RoundTripper
	baseURL string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = "http"
	req.URL.Host = t.baseURL[len("http://"):]
	if t.base != nil {
		return t.base.RoundTrip(req)
	}
	return http.DefaultTransport.RoundTrip(req)
}
