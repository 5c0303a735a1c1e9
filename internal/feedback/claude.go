package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const defaultAnthropicURL = "https://api.anthropic.com/v1/messages"

// ClaudeClient asks the Anthropic Messages API for diary feedback.
type ClaudeClient struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client

	Stats *LLMStats
}

func NewClaudeClient(apiKey, model string) *ClaudeClient {
	return &ClaudeClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultAnthropicURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		Stats: NewLLMStats(time.Hour),
	}
}

// WithEndpoint overrides the Messages API URL.
func (c *ClaudeClient) WithEndpoint(url string) *ClaudeClient {
	c.endpoint = url
	return c
}

// Model returns the configured model name.
func (c *ClaudeClient) Model() string {
	return c.model
}

func (c *ClaudeClient) LatencyStats() *LLMStats { return c.Stats }

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

// text joins the text blocks of the reply.
func (r *anthropicResponse) text() string {
	var sb strings.Builder
	for _, c := range r.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	return sb.String()
}

// Feedback sends the numbered words to Claude and parses the returned items.
func (c *ClaudeClient) Feedback(ctx context.Context, words []string) ([]Item, error) {
	apiResp, err := c.send(ctx, anthropicRequest{
		Model:     c.model,
		MaxTokens: 2048,
		Messages: []anthropicMessage{
			{Role: "user", Content: BuildFeedbackPrompt(words)},
		},
	})
	if err != nil {
		return nil, err
	}

	text := stripCodeBlock(apiResp.text())
	if text == "" {
		return nil, fmt.Errorf("empty response from claude")
	}
	var items []Item
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		if apiResp.StopReason == "max_tokens" {
			return nil, fmt.Errorf("feedback truncated at max_tokens: %w", err)
		}
		return nil, fmt.Errorf("parse feedback json: %w (raw: %s)", err, truncate(text, 200))
	}
	return items, nil
}

// send performs one Messages API call. 429 and 5xx come back as RetryableError.
func (c *ClaudeClient) send(ctx context.Context, req anthropicRequest) (*anthropicResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("claude api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	c.Stats.Record(time.Since(start).Milliseconds())
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("claude api status %d: %s", resp.StatusCode, truncate(string(respBody), 500))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("claude error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	return &apiResp, nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// Close releases resources.
func (c *ClaudeClient) Close() {
	c.httpClient.CloseIdleConnections()
}
