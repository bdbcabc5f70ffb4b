package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	options
	httpClient *http.Client
}

func NewClient(opts ...Option) (*Client, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	if options.endpoint == "" {
		return nil, errors.New("llm endpoint is required")
	}

	return &Client{
		options:    options,
		httpClient: &http.Client{Timeout: options.timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Run sends one completion request and returns the model output as raw
// JSON. Transient failures are retried per the configured retry budget;
// everything else surfaces to the calling stage.
func (c *Client) Run(ctx context.Context, req Request) (json.RawMessage, error) {
	if c.limit != nil {
		if err := c.limit.Wait(ctx); err != nil {
			return nil, err
		}
	}

	system := req.Instructions
	if req.SchemaHint != "" {
		system += "\n\nRespond with JSON matching this shape:\n" + req.SchemaHint
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: req.Content},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		out, retryable, err := c.do(ctx, body)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
		c.logger.Warn("llm call failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return nil, lastErr
}

func (c *Client) do(ctx context.Context, body []byte) (json.RawMessage, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// network errors and timeouts count as transient
		return nil, true, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, true, fmt.Errorf("llm backend status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("llm backend status %d: %s", resp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, false, fmt.Errorf("llm backend: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, false, errors.New("llm backend returned no choices")
	}

	return json.RawMessage(StripFences(parsed.Choices[0].Message.Content)), false, nil
}
