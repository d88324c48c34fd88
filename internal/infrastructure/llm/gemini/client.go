// Package gemini implements the highest-quality completion backend and the
// first cloud fallback for embeddings.
package gemini

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
	enabled    bool
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, genModel, embedModel string, enabled bool, executor *resilience.Executor) *Client {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		genModel:   genModel,
		embedModel: embedModel,
		enabled:    enabled,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

func (c *Client) Name() string { return "gemini" }

// IsAvailable is configuration-driven: the API is metered, so no probe call
// is spent on it.
func (c *Client) IsAvailable(_ context.Context) bool {
	return c.enabled && c.apiKey != ""
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:embedContent", c.baseURL, c.embedModel)
	request := map[string]any{
		"content": content{Parts: []part{{Text: text}}},
	}

	var response struct {
		Embedding struct {
			Values []float32 `json:"values"`
		} `json:"embedding"`
	}
	err := c.execute(ctx, "gemini.embed", func(callCtx context.Context) error {
		return llm.PostJSON(callCtx, c.httpClient, url, c.headers(), request, &response, "gemini embed")
	})
	if err != nil {
		return nil, llm.WrapTemporary("gemini embed", err)
	}
	return response.Embedding.Values, nil
}

func (c *Client) Complete(ctx context.Context, messages []domain.Message, opts domain.CompletionOptions) (string, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.genModel)

	request := map[string]any{
		"contents": toContents(messages),
		"generationConfig": map[string]any{
			"temperature":     opts.Temperature,
			"maxOutputTokens": opts.MaxTokens,
		},
	}
	if system := systemInstruction(messages); system != "" {
		request["systemInstruction"] = content{Parts: []part{{Text: system}}}
	}

	var response struct {
		Candidates []struct {
			Content content `json:"content"`
		} `json:"candidates"`
	}
	err := c.execute(ctx, "gemini.complete", func(callCtx context.Context) error {
		return llm.PostJSON(callCtx, c.httpClient, url, c.headers(), request, &response, "gemini complete")
	})
	if err != nil {
		return "", llm.WrapTemporary("gemini complete", err)
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini complete: empty candidate list")
	}
	return strings.TrimSpace(response.Candidates[0].Content.Parts[0].Text), nil
}

// toContents maps chat messages onto Gemini's role scheme; the system turn
// travels separately as systemInstruction.
func toContents(messages []domain.Message) []content {
	out := make([]content, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			continue
		}
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		out = append(out, content{Role: role, Parts: []part{{Text: m.Content}}})
	}
	return out
}

func systemInstruction(messages []domain.Message) string {
	for _, m := range messages {
		if m.Role == "system" {
			return m.Content
		}
	}
	return ""
}

func (c *Client) headers() map[string]string {
	return map[string]string{"x-goog-api-key": c.apiKey}
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	if c.executor == nil {
		return call(ctx)
	}
	return c.executor.Execute(ctx, operation, call, llm.ClassifyError)
}
