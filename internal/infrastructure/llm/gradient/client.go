// Package gradient implements the second-priority completion backend over an
// OpenAI-compatible inference endpoint. It does not serve embeddings.
package gradient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/grc-evidence-pipeline/internal/core/domain"
	"github.com/kirillkom/grc-evidence-pipeline/internal/infrastructure/llm"
	"github.com/kirillkom/grc-evidence-pipeline/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	enabled    bool
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, model string, enabled bool, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		enabled:    enabled,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

func (c *Client) Name() string { return "gradient" }

func (c *Client) IsAvailable(_ context.Context) bool {
	return c.enabled && c.apiKey != "" && c.baseURL != ""
}

func (c *Client) Complete(ctx context.Context, messages []domain.Message, opts domain.CompletionOptions) (string, error) {
	request := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": opts.Temperature,
		"max_tokens":  opts.MaxTokens,
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	err := c.execute(ctx, "gradient.complete", func(callCtx context.Context) error {
		return llm.PostJSON(callCtx, c.httpClient, c.baseURL+"/chat/completions", c.headers(), request, &response, "gradient complete")
	})
	if err != nil {
		return "", llm.WrapTemporary("gradient complete", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("gradient complete: empty choice list")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func (c *Client) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	if c.executor == nil {
		return call(ctx)
	}
	return c.executor.Execute(ctx, operation, call, llm.ClassifyError)
}
