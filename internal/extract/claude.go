package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultAnthropicURL = "https://api.anthropic.com/v1/messages"

// ClientOptions are shared by the HTTP model clients.
type ClientOptions struct {
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int
	Stats     *LLMStats
}

func (o ClientOptions) withDefaults(baseURL string) ClientOptions {
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = 120 * time.Second
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 4096
	}
	if o.Stats == nil {
		o.Stats = NewLLMStats(time.Hour)
	}
	return o
}

// ClaudeClient calls the Anthropic Messages API.
type ClaudeClient struct {
	apiKey     string
	model      string
	opts       ClientOptions
	httpClient *http.Client
}

func NewClaudeClient(apiKey, model string, opts ClientOptions) *ClaudeClient {
	opts = opts.withDefaults(defaultAnthropicURL)
	return &ClaudeClient{
		apiKey: apiKey,
		model:  model,
		opts:   opts,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one prompt to Claude and returns the concatenated text blocks.
func (c *ClaudeClient) Complete(ctx context.Context, system, user string) (text string, err error) {
	start := time.Now()
	defer func() { c.opts.Stats.Record(time.Since(start), err) }()

	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: c.opts.MaxTokens,
		System:    system,
		Messages: []anthropicMessage{
			{Role: "user", Content: user},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	respBody, err := doRequest(c.httpClient, httpReq, "claude")
	if err != nil {
		return "", err
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("claude error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	var sb bytes.Buffer
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("claude: %w", ErrEmptyResponse)
	}
	return sb.String(), nil
}

func (c *ClaudeClient) Provider() string { return "anthropic" }
func (c *ClaudeClient) Model() string    { return c.model }

// Stats returns the client's latency tracker.
func (c *ClaudeClient) Stats() *LLMStats { return c.opts.Stats }

// Close releases resources.
func (c *ClaudeClient) Close() {
	c.httpClient.CloseIdleConnections()
}

// doRequest executes req and classifies failures. Transport errors, 429 and
// 5xx come back as RetryableError.
func doRequest(client *http.Client, req *http.Request, name string) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, fmt.Errorf("%s api: %w", name, err)
		}
		return nil, &RetryableError{Message: fmt.Sprintf("%s api: %v", name, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s api status %d: %s", name, resp.StatusCode, truncate(string(respBody), 200))
	}
	return respBody, nil
}
