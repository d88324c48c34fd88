// Package ollama implements the local-inference backend. It is the cheapest
// embedder (first in the embedding priority order) and the weakest judge
// (last in the completion order).
package ollama

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
	baseURL     string
	genModel    string
	embedModel  string
	enabled     bool
	httpClient  *http.Client
	probeClient *http.Client
	executor    *resilience.Executor
}

func New(baseURL, genModel, embedModel string, enabled bool, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		genModel:    genModel,
		embedModel:  embedModel,
		enabled:     enabled,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		probeClient: &http.Client{Timeout: 3 * time.Second},
		executor:    executor,
	}
}

func (c *Client) Name() string { return "ollama" }

func (c *Client) IsAvailable(ctx context.Context) bool {
	if !c.enabled {
		return false
	}
	return llm.Probe(ctx, c.probeClient, c.baseURL+"/api/tags")
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"model": c.embedModel,
		"input": []string{text},
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := c.execute(ctx, "ollama.embed", func(callCtx context.Context) error {
		return llm.PostJSON(callCtx, c.httpClient, c.baseURL+"/api/embed", nil, request, &response, "ollama embed")
	})
	if err != nil {
		return nil, llm.WrapTemporary("ollama embed", err)
	}
	if len(response.Embeddings) == 0 {
		return nil, fmt.Errorf("ollama embed: empty embedding result")
	}
	return response.Embeddings[0], nil
}

func (c *Client) Complete(ctx context.Context, messages []domain.Message, opts domain.CompletionOptions) (string, error) {
	request := map[string]any{
		"model":    c.genModel,
		"messages": messages,
		"stream":   false,
		"options": map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}

	var response struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	err := c.execute(ctx, "ollama.chat", func(callCtx context.Context) error {
		return llm.PostJSON(callCtx, c.httpClient, c.baseURL+"/api/chat", nil, request, &response, "ollama chat")
	})
	if err != nil {
		return "", llm.WrapTemporary("ollama chat", err)
	}
	return strings.TrimSpace(response.Message.Content), nil
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	if c.executor == nil {
		return call(ctx)
	}
	return c.executor.Execute(ctx, operation, call, llm.ClassifyError)
}
