package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/grc-evidence-pipeline/internal/config"
	"github.com/kirillkom/grc-evidence-pipeline/internal/core/ports"
	"github.com/kirillkom/grc-evidence-pipeline/internal/core/usecase"
	"github.com/kirillkom/grc-evidence-pipeline/internal/infrastructure/chunking"
	"github.com/kirillkom/grc-evidence-pipeline/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/grc-evidence-pipeline/internal/infrastructure/llm/gradient"
	"github.com/kirillkom/grc-evidence-pipeline/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/grc-evidence-pipeline/internal/infrastructure/llm/openai"
	"github.com/kirillkom/grc-evidence-pipeline/internal/infrastructure/queue/nats"
	"github.com/kirillkom/grc-evidence-pipeline/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/grc-evidence-pipeline/internal/infrastructure/resilience"
	"github.com/kirillkom/grc-evidence-pipeline/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue     *nats.Queue
	ProcessUC ports.DocumentProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	uow := postgres.NewUnitOfWork(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init blob storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, cfg.OllamaEnabled, executor)
	geminiClient := gemini.New("https://generativelanguage.googleapis.com", cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiEmbedModel, cfg.GeminiEnabled, executor)
	openaiClient := openai.New("https://api.openai.com", cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIEmbedModel, cfg.OpenAIEmbedDimensions, executor)
	gradientClient := gradient.New(cfg.GradientURL, cfg.GradientAPIKey, cfg.GradientModel, cfg.GradientEnabled, executor)

	embedders := embeddersByPriority(cfg.EmbedPriority, map[string]ports.EmbeddingBackend{
		"ollama": ollamaClient,
		"gemini": geminiClient,
		"openai": openaiClient,
	})
	completers := completersByPriority(cfg.CompletionPriority, map[string]ports.CompletionBackend{
		"ollama":   ollamaClient,
		"gemini":   geminiClient,
		"openai":   openaiClient,
		"gradient": gradientClient,
	})

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	analyzer := usecase.NewRelevanceAnalyzer(completers, cfg.AnalysisBatchSize, logger)
	processUC := usecase.NewProcessDocumentUseCase(
		uow,
		storage,
		chunker,
		embedders,
		analyzer,
		cfg.ChunkSize,
		cfg.MinRelevanceScore,
		logger,
	)

	return &App{
		Config:    cfg,
		Queue:     queue,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func embeddersByPriority(priority string, known map[string]ports.EmbeddingBackend) []ports.EmbeddingBackend {
	var out []ports.EmbeddingBackend
	for _, name := range splitPriority(priority) {
		if backend, ok := known[name]; ok {
			out = append(out, backend)
		}
	}
	return out
}

func completersByPriority(priority string, known map[string]ports.CompletionBackend) []ports.CompletionBackend {
	var out []ports.CompletionBackend
	for _, name := range splitPriority(priority) {
		if backend, ok := known[name]; ok {
			out = append(out, backend)
		}
	}
	return out
}

func splitPriority(priority string) []string {
	var names []string
	for _, part := range strings.Split(priority, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
