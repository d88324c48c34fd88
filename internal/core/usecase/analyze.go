package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/grc-evidence-pipeline/internal/core/domain"
	"github.com/kirillkom/grc-evidence-pipeline/internal/core/ports"
)

// RelevanceAnalyzer scores every (chunk, control family) pair through the
// best available completion backend. Failures of single pairs degrade to
// empty results; they never abort other pairs.
type RelevanceAnalyzer struct {
	backends  []ports.CompletionBackend
	batchSize int
	logger    *slog.Logger
}

func NewRelevanceAnalyzer(backends []ports.CompletionBackend, batchSize int, logger *slog.Logger) *RelevanceAnalyzer {
	if batchSize <= 0 {
		batchSize = 5
	}
	return &RelevanceAnalyzer{
		backends:  backends,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Analyze returns judgments keyed by logical chunk id. When no completion
// backend is available, the map is empty and downstream steps see zero
// mappings for this document. Chunks fan out with bounded concurrency; the
// batch size caps outstanding backend calls, not the result set.
func (a *RelevanceAnalyzer) Analyze(ctx context.Context, chunks []domain.Chunk, families []domain.ControlFamily) map[int64][]domain.ChunkAnalysis {
	results := make(map[int64][]domain.ChunkAnalysis, len(chunks))

	backend := selectCompleter(ctx, a.backends, a.logger)
	if backend == nil {
		a.logger.Warn("no completion backend available, skipping relevance analysis")
		return results
	}

	perChunk := make([][]domain.ChunkAnalysis, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.batchSize)
	for i := range chunks {
		g.Go(func() error {
			chunk := chunks[i]
			var analyses []domain.ChunkAnalysis
			for _, family := range families {
				analyses = append(analyses, a.analyzeChunkAgainstFamily(gctx, backend, chunk, family)...)
			}
			perChunk[i] = analyses
			return nil
		})
	}
	// Workers only return nil; Wait just fences the fan-out.
	_ = g.Wait()

	for i, chunk := range chunks {
		results[chunk.ChunkID] = perChunk[i]
	}
	return results
}

// rawAnalysis tolerates fractional scores from sloppy backends; validation
// and rounding happen before anything reaches the domain type.
type rawAnalysis struct {
	ControlID      int64   `json:"control_id"`
	FamilyName     string  `json:"family_name"`
	RelevanceScore float64 `json:"relevance_score"`
	Evidence       string  `json:"evidence"`
	IsMentioned    bool    `json:"is_mentioned"`
}

func (a *RelevanceAnalyzer) analyzeChunkAgainstFamily(ctx context.Context, backend ports.CompletionBackend, chunk domain.Chunk, family domain.ControlFamily) []domain.ChunkAnalysis {
	messages := []domain.Message{
		{Role: "system", Content: analystSystemMessage},
		{Role: "user", Content: buildFamilyAnalysisPrompt(chunk.Text, family)},
	}
	opts := domain.CompletionOptions{Temperature: 0.3, MaxTokens: 2000}

	response, err := backend.Complete(ctx, messages, opts)
	if err != nil {
		a.logger.Error("completion call failed",
			"backend", backend.Name(), "chunk_id", chunk.ChunkID, "family", family.Name, "error", err)
		return nil
	}

	payload := extractJSONArray(response)
	if payload == "" {
		a.logger.Warn("completion response contains no JSON array",
			"backend", backend.Name(), "chunk_id", chunk.ChunkID, "family", family.Name,
			"response", truncate(response, 200))
		return nil
	}

	var parsed []rawAnalysis
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		a.logger.Warn("completion response is not a valid analysis array",
			"backend", backend.Name(), "chunk_id", chunk.ChunkID, "family", family.Name, "error", err)
		return nil
	}

	out := make([]domain.ChunkAnalysis, 0, len(parsed))
	for _, entry := range parsed {
		if entry.ControlID == 0 || entry.RelevanceScore < 0 || entry.RelevanceScore > 100 {
			continue
		}
		out = append(out, domain.ChunkAnalysis{
			ControlID: entry.ControlID,
			// Backends hallucinate family names; ours wins.
			FamilyName:     family.Name,
			RelevanceScore: int(math.Round(entry.RelevanceScore)),
			Evidence:       entry.Evidence,
			IsMentioned:    entry.IsMentioned,
		})
	}
	return out
}
