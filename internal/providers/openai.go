package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

// OpenAI implements the Backend interface for OpenAI's API.
type OpenAI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenAI creates a new OpenAI backend.
func NewOpenAI(apiKey string, opts Options) *OpenAI {
	return &OpenAI{
		apiKey:  apiKey,
		baseURL: defaultOpenAIURL,
		client:  &http.Client{Timeout: opts.timeout()},
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Analyze(ctx context.Context, req AnalysisRequest) (AnalysisResponse, error) {
	return chatCompletion(ctx, o.Name(), o.client, o.baseURL, o.apiKey, req)
}

// chatCompletion posts one system/user exchange in the OpenAI chat format.
func chatCompletion(ctx context.Context, name string, client *http.Client, url, apiKey string, req AnalysisRequest) (AnalysisResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	body := openaiRequest{
		Model: req.Model,
		Messages: []openaiMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return AnalysisResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return AnalysisResponse{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return AnalysisResponse{}, fmt.Errorf("%s: sending request: %w", name, err)
	}
	defer httpResp.Body.Close()

	respBody, err := readResponse(name, httpResp)
	if err != nil {
		return AnalysisResponse{}, err
	}

	var result openaiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return AnalysisResponse{}, fmt.Errorf("%s: parsing response: %w", name, err)
	}
	if len(result.Choices) == 0 {
		return AnalysisResponse{}, fmt.Errorf("%s: no choices in response", name)
	}
	if result.Choices[0].Message.Content == "" {
		return AnalysisResponse{}, fmt.Errorf("%s: empty text content in API response", name)
	}

	return AnalysisResponse{
		Content:    result.Choices[0].Message.Content,
		TokensUsed: result.Usage.TotalTokens,
	}, nil
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

type openaiUsage struct {
	TotalTokens int `json:"total_tokens"`
}
