package usecase

import (
	"context"
	"log/slog"

	"github.com/kirillkom/grc-evidence-pipeline/internal/core/ports"
)

// selectEmbedder probes embedding backends in priority order and returns the
// first available one, nil when none is reachable. Availability is checked
// lazily per run, never cached, since backends come and go between runs.
func selectEmbedder(ctx context.Context, backends []ports.EmbeddingBackend, logger *slog.Logger) ports.EmbeddingBackend {
	for _, backend := range backends {
		if backend.IsAvailable(ctx) {
			logger.Info("embedding backend selected", "backend", backend.Name())
			return backend
		}
	}
	return nil
}

// selectCompleter mirrors selectEmbedder for completion backends. The
// priority order differs: quality-first, local model last.
func selectCompleter(ctx context.Context, backends []ports.CompletionBackend, logger *slog.Logger) ports.CompletionBackend {
	for _, backend := range backends {
		if backend.IsAvailable(ctx) {
			logger.Info("completion backend selected", "backend", backend.Name())
			return backend
		}
	}
	return nil
}
