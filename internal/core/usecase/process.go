package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/grc-evidence-pipeline/internal/core/domain"
	"github.com/kirillkom/grc-evidence-pipeline/internal/core/ports"
)

// ProcessDocumentUseCase scores an uploaded evidence document against every
// control of every standard the application subscribes to. The whole run,
// from the first read to the final task transition, executes inside one
// database transaction: a document is never observable as partially
// re-chunked.
type ProcessDocumentUseCase struct {
	uow          ports.UnitOfWork
	blobs        ports.BlobStore
	chunker      ports.Chunker
	embedders    []ports.EmbeddingBackend
	analyzer     *RelevanceAnalyzer
	chunkSize    int
	minRelevance int
	logger       *slog.Logger
}

func NewProcessDocumentUseCase(
	uow ports.UnitOfWork,
	blobs ports.BlobStore,
	chunker ports.Chunker,
	embedders []ports.EmbeddingBackend,
	analyzer *RelevanceAnalyzer,
	chunkSize int,
	minRelevance int,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if minRelevance <= 0 {
		minRelevance = 50
	}
	return &ProcessDocumentUseCase{
		uow:          uow,
		blobs:        blobs,
		chunker:      chunker,
		embedders:    embedders,
		analyzer:     analyzer,
		chunkSize:    chunkSize,
		minRelevance: minRelevance,
		logger:       logger,
	}
}

// Process runs the pipeline for one document. A duplicate queue delivery
// whose triggering task was already transitioned rolls back and returns as a
// no-op with zero stats.
func (uc *ProcessDocumentUseCase) Process(ctx context.Context, req domain.ProcessRequest) (domain.RunStats, error) {
	logger := uc.logger.With(
		"run_id", uuid.NewString(),
		"app_id", req.AppID,
		"source_id", req.SourceID,
	)
	logger.Info("starting document processing")

	var stats domain.RunStats
	err := uc.uow.InTransaction(ctx, func(ctx context.Context, store ports.ComplianceStore) error {
		runStats, err := uc.run(ctx, store, req, logger)
		stats = runStats
		return err
	})
	if err != nil {
		if domain.IsKind(err, domain.ErrTaskAlreadyHandled) {
			logger.Warn("no pending task for this document, treating run as duplicate delivery")
			return domain.RunStats{}, nil
		}
		return domain.RunStats{}, err
	}

	logger.Info("document processing completed", "chunks", stats.Chunks, "mappings", stats.Mappings)
	return stats, nil
}

func (uc *ProcessDocumentUseCase) run(ctx context.Context, store ports.ComplianceStore, req domain.ProcessRequest, logger *slog.Logger) (domain.RunStats, error) {
	var stats domain.RunStats

	text, version, err := uc.fetchDocumentText(ctx, store, req)
	if err != nil {
		return stats, err
	}

	standards, err := store.ListAppStandards(ctx, req.AppID)
	if err != nil {
		return stats, fmt.Errorf("list app standards: %w", err)
	}
	if len(standards) == 0 {
		return stats, domain.WrapError(domain.ErrNoStandards, "process document",
			fmt.Errorf("app %d subscribes to no standards", req.AppID))
	}

	windows := uc.chunker.Chunk(text)
	logger.Info("document chunked", "windows", len(windows))

	chunks, err := uc.persistChunks(ctx, store, req, windows, logger)
	if err != nil {
		return stats, err
	}
	stats.Chunks = len(chunks)

	for _, standard := range standards {
		families, err := controlFamiliesForStandard(ctx, store, standard.StandardID)
		if err != nil {
			return stats, err
		}
		if len(families) == 0 {
			logger.Warn("standard has no active controls, skipping", "standard_id", standard.StandardID)
			continue
		}

		analyses := uc.analyzer.Analyze(ctx, chunks, families)

		written, err := writeChunkControlMappings(ctx, store, chunks, analyses, req.AppID, uc.minRelevance)
		if err != nil {
			return stats, err
		}
		stats.Mappings += written
	}

	for _, standard := range standards {
		if err := recomputeFamilyCompleteness(ctx, store, req.AppID, standard.StandardID); err != nil {
			return stats, err
		}
	}

	return stats, uc.finalize(ctx, store, req, version)
}

// fetchDocumentText enforces the fail-fast guards: missing text path,
// missing blob, and empty text all abort before any write.
func (uc *ProcessDocumentUseCase) fetchDocumentText(ctx context.Context, store ports.ComplianceStore, req domain.ProcessRequest) (string, *domain.SourceVersion, error) {
	source, err := store.GetSource(ctx, req.SourceID, req.AppID)
	if err != nil {
		return "", nil, fmt.Errorf("fetch source: %w", err)
	}
	if source.Version == nil {
		return "", nil, domain.WrapError(domain.ErrNoText, "fetch source",
			fmt.Errorf("source %d has no current version", req.SourceID))
	}

	path := source.Version.TextPath()
	if path == "" {
		return "", nil, domain.WrapError(domain.ErrNoText, "fetch source",
			fmt.Errorf("source %d has no text path", req.SourceID))
	}

	raw, err := uc.blobs.Download(ctx, path)
	if err != nil {
		return "", nil, domain.WrapError(domain.ErrNoText, "download document text", err)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", nil, domain.WrapError(domain.ErrNoText, "download document text",
			fmt.Errorf("document text is empty for source %d", req.SourceID))
	}
	return text, source.Version, nil
}

// persistChunks writes every window once per document. Each row is inserted
// with a placeholder identity, then patched so the logical chunk id equals
// the storage-assigned id before anything downstream references it. Missing
// embedders degrade to vector-less chunks; a per-chunk embedding failure is
// logged and skipped.
func (uc *ProcessDocumentUseCase) persistChunks(ctx context.Context, store ports.ComplianceStore, req domain.ProcessRequest, windows []domain.ChunkWindow, logger *slog.Logger) ([]domain.Chunk, error) {
	embedder := selectEmbedder(ctx, uc.embedders, logger)
	if embedder == nil {
		logger.Warn("no embedding backend available, persisting chunks without vectors")
	}

	chunks := make([]domain.Chunk, 0, len(windows))
	for i, window := range windows {
		var vector []float32
		if embedder != nil && strings.TrimSpace(window.Text) != "" {
			vector, _ = uc.embedChunk(ctx, embedder, window.Text, i, len(windows), logger)
		}

		chunk := domain.Chunk{
			SourceID:   req.SourceID,
			CustomerID: req.CustomerID,
			AppID:      req.AppID,
			Text:       window.Text,
			Embedding:  vector,
			Page:       window.Page,
			Line:       window.Line,
			Offset:     i * uc.chunkSize,
			Length:     len(window.Text),
			IsActive:   true,
		}
		if err := store.InsertChunk(ctx, &chunk); err != nil {
			return nil, fmt.Errorf("insert chunk %d: %w", i, err)
		}
		if err := store.UpdateChunkIdentity(ctx, chunk.ID); err != nil {
			return nil, fmt.Errorf("patch chunk identity %d: %w", chunk.ID, err)
		}
		chunk.ChunkID = chunk.ID

		if len(vector) > 0 {
			if err := store.UpdateChunkEmbedding(ctx, chunk.ID, vector); err != nil {
				return nil, fmt.Errorf("write chunk embedding %d: %w", chunk.ID, err)
			}
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func (uc *ProcessDocumentUseCase) embedChunk(ctx context.Context, embedder ports.EmbeddingBackend, text string, index, total int, logger *slog.Logger) ([]float32, error) {
	vector, err := embedder.Embed(ctx, text)
	if err != nil {
		logger.Warn("embedding failed for chunk, continuing without vector",
			"backend", embedder.Name(), "chunk_index", index, "error", err)
		return nil, err
	}
	if len(vector) > 0 {
		logger.Info("embedding generated",
			"backend", embedder.Name(), "chunk", index+1, "total", total, "dimensions", len(vector))
	}
	return vector, nil
}

func (uc *ProcessDocumentUseCase) finalize(ctx context.Context, store ports.ComplianceStore, req domain.ProcessRequest, version *domain.SourceVersion) error {
	now := time.Now().UTC()

	if err := store.MarkTextAvailable(ctx, version.ID, now); err != nil {
		return fmt.Errorf("mark text available: %w", err)
	}

	matched, err := store.CompletePendingTask(ctx, req.AppID, domain.TaskOpCreateAssets, strconv.FormatInt(req.SourceID, 10))
	if err != nil {
		return fmt.Errorf("complete pending task: %w", err)
	}
	if matched == 0 {
		return domain.WrapError(domain.ErrTaskAlreadyHandled, "complete pending task",
			errors.New("no matching PENDING task"))
	}

	if err := store.FlagComplianceRefresh(ctx, req.AppID, now); err != nil {
		return fmt.Errorf("flag compliance refresh: %w", err)
	}
	return nil
}
