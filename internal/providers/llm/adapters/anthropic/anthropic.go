package anthropic

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

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"

	// statusOverloaded is the provider-specific capacity code.
	statusOverloaded = 529
)

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
		log:     log.Named("llm.anthropic"),
	}, nil
}

func (c *Client) Name() string { return "anthropic" }

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.Completion, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Messages: []message{
			{Role: "user", Content: req.UserPrompt},
		},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var parsed messagesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, domain.ErrInvalidResponse
	}

	if resp.StatusCode != http.StatusOK {
		if isOverloaded(resp.StatusCode, parsed.Error) {
			return nil, domain.ErrOverloaded
		}
		return nil, fmt.Errorf("anthropic: status %d: %s", resp.StatusCode, errorMessage(parsed.Error))
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, domain.ErrInvalidResponse
	}

	return &domain.Completion{
		Text:         strings.TrimSpace(text.String()),
		InputTokens:  parsed.Usage.InputTokens,
		OutputTokens: parsed.Usage.OutputTokens,
	}, nil
}

func isOverloaded(status int, apiErr *apiError) bool {
	if status == statusOverloaded || status == http.StatusServiceUnavailable {
		return true
	}
	if apiErr == nil {
		return false
	}
	return apiErr.Type == "overloaded_error"
}

func errorMessage(apiErr *apiError) string {
	if apiErr == nil {
		return "unknown error"
	}
	return apiErr.Message
}
