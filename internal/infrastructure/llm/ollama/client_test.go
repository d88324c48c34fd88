package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/grc-evidence-pipeline/internal/core/domain"
)

func TestIsAvailableProbesTagsEndpoint(t *testing.T) {
	var probedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probedPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL, "llama3.1:8b", "nomic-embed-text", true, nil)
	if !client.IsAvailable(context.Background()) {
		t.Fatal("expected backend to be available")
	}
	if probedPath != "/api/tags" {
		t.Fatalf("expected probe on /api/tags, got %s", probedPath)
	}
}

func TestIsAvailableFalseWhenDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("disabled backend must not probe")
	}))
	defer server.Close()

	client := New(server.URL, "llama3.1:8b", "nomic-embed-text", false, nil)
	if client.IsAvailable(context.Background()) {
		t.Fatal("disabled backend must report unavailable")
	}
}

func TestIsAvailableFalseWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "llama3.1:8b", "nomic-embed-text", true, nil)
	if client.IsAvailable(context.Background()) {
		t.Fatal("failing probe must report unavailable")
	}
}

func TestEmbedSendsModelAndReturnsFirstVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Model != "nomic-embed-text" {
			t.Errorf("unexpected model %q", body.Model)
		}
		if len(body.Input) != 1 || body.Input[0] != "chunk text" {
			t.Errorf("unexpected input %v", body.Input)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.1, 0.2, 0.3}},
		})
	}))
	defer server.Close()

	client := New(server.URL, "llama3.1:8b", "nomic-embed-text", true, nil)
	vector, err := client.Embed(context.Background(), "chunk text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vector) != 3 || vector[0] != 0.1 {
		t.Fatalf("unexpected vector %v", vector)
	}
}

func TestEmbedFailsOnEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{}})
	}))
	defer server.Close()

	client := New(server.URL, "llama3.1:8b", "nomic-embed-text", true, nil)
	if _, err := client.Embed(context.Background(), "chunk text"); err == nil {
		t.Fatal("expected error on empty embedding result")
	}
}

func TestCompleteSendsChatRequestAndTrimsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Model    string           `json:"model"`
			Messages []domain.Message `json:"messages"`
			Stream   bool             `json:"stream"`
			Options  struct {
				Temperature float64 `json:"temperature"`
				NumPredict  int     `json:"num_predict"`
			} `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Stream {
			t.Error("streaming must be disabled")
		}
		if body.Options.Temperature != 0.3 || body.Options.NumPredict != 2000 {
			t.Errorf("unexpected options %+v", body.Options)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("unexpected messages %+v", body.Messages)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": "  [{\"control_id\":1}]  \n"},
		})
	}))
	defer server.Close()

	client := New(server.URL, "llama3.1:8b", "nomic-embed-text", true, nil)
	messages := []domain.Message{
		{Role: "system", Content: "judge"},
		{Role: "user", Content: "score this"},
	}
	out, err := client.Complete(context.Background(), messages, domain.CompletionOptions{Temperature: 0.3, MaxTokens: 2000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `[{"control_id":1}]` {
		t.Fatalf("unexpected content %q", out)
	}
}

func TestCompleteSurfacesUpstreamErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("model not loaded"))
	}))
	defer server.Close()

	client := New(server.URL, "llama3.1:8b", "nomic-embed-text", true, nil)
	_, err := client.Complete(context.Background(), []domain.Message{{Role: "user", Content: "x"}}, domain.CompletionOptions{})
	if err == nil {
		t.Fatal("expected upstream error")
	}
	if !strings.Contains(err.Error(), "model not loaded") {
		t.Fatalf("expected upstream body in error, got %v", err)
	}
}
