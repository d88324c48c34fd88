// Package openai implements the metered API backend. Embeddings request the
// 768-dimension variant so vectors stay dimension-compatible with control
// embeddings produced elsewhere in the platform.
package openai

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
	genModel   string
	embedModel string
	dimensions int
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, genModel, embedModel string, dimensions int, executor *resilience.Executor) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if dimensions <= 0 {
		dimensions = 768
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		genModel:   genModel,
		embedModel: embedModel,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

func (c *Client) Name() string { return "openai" }

func (c *Client) IsAvailable(_ context.Context) bool {
	return c.apiKey != ""
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"model":      c.embedModel,
		"input":      text,
		"dimensions": c.dimensions,
	}

	var response struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	err := c.execute(ctx, "openai.embed", func(callCtx context.Context) error {
		return llm.PostJSON(callCtx, c.httpClient, c.baseURL+"/v1/embeddings", c.headers(), request, &response, "openai embed")
	})
	if err != nil {
		return nil, llm.WrapTemporary("openai embed", err)
	}
	if len(response.Data) == 0 {
		return nil, fmt.Errorf("openai embed: empty embedding result")
	}
	return response.Data[0].Embedding, nil
}

func (c *Client) Complete(ctx context.Context, messages []domain.Message, opts domain.CompletionOptions) (string, error) {
	request := map[string]any{
		"model":       c.genModel,
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
	err := c.execute(ctx, "openai.complete", func(callCtx context.Context) error {
		return llm.PostJSON(callCtx, c.httpClient, c.baseURL+"/v1/chat/completions", c.headers(), request, &response, "openai complete")
	})
	if err != nil {
		return "", llm.WrapTemporary("openai complete", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("openai complete: empty choice list")
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
