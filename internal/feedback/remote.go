package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RemoteClient posts word tokens to a standalone feedback service.
//
//	POST {baseURL}/feedback  {"content": ["word", ...]}
//	200 [{"start": 0, "end": 3, "content": "...", "author": "AI"}]
type RemoteClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	Stats *LLMStats
}

func NewRemoteClient(baseURL, apiKey string) *RemoteClient {
	return &RemoteClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		Stats: NewLLMStats(time.Hour),
	}
}

// Feedback sends one request. 429 and 5xx responses are RetryableError.
func (c *RemoteClient) Feedback(ctx context.Context, words []string) ([]Item, error) {
	body, err := json.Marshal(Request{Content: words})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/feedback", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("feedback service: %w", err)
	}
	defer resp.Body.Close()
	c.Stats.Record(time.Since(start).Milliseconds())

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("feedback service status %d: %s", resp.StatusCode, string(respBody))
	}

	var items []Item
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	return items, nil
}

// Model names the collaborator for stats output.
func (c *RemoteClient) Model() string {
	return "remote:" + c.baseURL
}

func (c *RemoteClient) LatencyStats() *LLMStats { return c.Stats }

// Close releases idle connections.
func (c *RemoteClient) Close() {
	c.httpClient.CloseIdleConnections()
}
