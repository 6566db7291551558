package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/meddor/scribe/internal/providers/llm/domain"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.openai.com/v1"

// topP mirrors the low-temperature sampling the summarizer was tuned with.
const topP = 0.2

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(apiKey string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, domain.ErrInvalidConfig
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.Named("llm.openai"),
	}, nil
}

func (c *Client) Name() string { return "openai" }

type chatRequest struct {
	Model     string        `json:"model"`
	TopP      float64       `json:"top_p"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.Completion, error) {
	body, err := json.Marshal(chatRequest{
		Model:     req.Model,
		TopP:      topP,
		MaxTokens: req.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.UserPrompt},
		},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, domain.ErrInvalidResponse
	}

	if resp.StatusCode != http.StatusOK {
		if isOverloaded(resp.StatusCode, parsed.Error) {
			return nil, domain.ErrOverloaded
		}
		return nil, fmt.Errorf("openai: status %d: %s", resp.StatusCode, errorMessage(parsed.Error))
	}
	if len(parsed.Choices) == 0 {
		return nil, domain.ErrInvalidResponse
	}

	return &domain.Completion{
		Text:         strings.TrimSpace(parsed.Choices[0].Message.Content),
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, nil
}

func isOverloaded(status int, apiErr *apiError) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	if apiErr == nil {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "overloaded")
}

func errorMessage(apiErr *apiError) string {
	if apiErr == nil {
		return "unknown error"
	}
	return apiErr.Message
}
