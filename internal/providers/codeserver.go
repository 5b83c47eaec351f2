package providers

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const defaultCodeServerURL = "http://localhost:8000/chat"

// CodeServer implements the Backend interface for the default in-house
// completion endpoint. Requests are form-encoded; the reply uses the OpenAI
// choices layout.
type CodeServer struct {
	url    string
	client *http.Client
}

// NewCodeServer creates the default backend.
func NewCodeServer(opts Options) *CodeServer {
	u := opts.CodeServerURL
	if u == "" {
		u = defaultCodeServerURL
	}
	return &CodeServer{url: u, client: newHTTPClient(opts)}
}

func newHTTPClient(opts Options) *http.Client {
	c := &http.Client{Timeout: opts.timeout()}
	if opts.Insecure {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		c.Transport = t
	}
	return c
}

func (c *CodeServer) Name() string { return "codeserver" }

func (c *CodeServer) Analyze(ctx context.Context, req AnalysisRequest) (AnalysisResponse, error) {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	form := url.Values{}
	form.Set("system", req.SystemPrompt)
	form.Set("user", req.UserPrompt)
	form.Set("model", req.Model)
	form.Set("temperature", strconv.FormatFloat(temperature, 'f', -1, 64))
	if req.MaxTokens > 0 {
		form.Set("max_tokens", strconv.Itoa(req.MaxTokens))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return AnalysisResponse{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return AnalysisResponse{}, fmt.Errorf("%s: sending request: %w", c.Name(), err)
	}
	defer httpResp.Body.Close()

	body, err := readResponse(c.Name(), httpResp)
	if err != nil {
		return AnalysisResponse{}, err
	}

	var result openaiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return AnalysisResponse{}, fmt.Errorf("%s: parsing response: %w", c.Name(), err)
	}
	if len(result.Choices) == 0 {
		return AnalysisResponse{}, fmt.Errorf("%s: no choices in response from %s", c.Name(), req.Model)
	}
	content := result.Choices[0].Message.Content
	if content == "" {
		return AnalysisResponse{}, fmt.Errorf("%s: empty message from %s", c.Name(), req.Model)
	}
	return AnalysisResponse{Content: content, TokensUsed: result.Usage.TotalTokens}, nil
}
