package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/grc-evidence-pipeline/internal/core/domain"
	"github.com/kirillkom/grc-evidence-pipeline/internal/core/ports"
)

// writeChunkControlMappings persists one mapping row per judgment at or
// above the relevance threshold. Sub-threshold judgments are dropped
// entirely to keep the evidence table precision-oriented.
func writeChunkControlMappings(
	ctx context.Context,
	store ports.ComplianceStore,
	chunks []domain.Chunk,
	analyses map[int64][]domain.ChunkAnalysis,
	appID int64,
	minRelevance int,
) (int, error) {
	written := 0
	for _, chunk := range chunks {
		for _, analysis := range analyses[chunk.ChunkID] {
			if analysis.RelevanceScore < minRelevance {
				continue
			}
			mapping := &domain.ChunkControlMapping{
				AppID:     appID,
				ControlID: analysis.ControlID,
				ChunkID:   chunk.ChunkID,
				Reference: domain.ReferenceData{
					RelevanceScore: analysis.RelevanceScore,
					Evidence:       analysis.Evidence,
					IsMentioned:    analysis.IsMentioned,
				},
				IsActive: true,
				IsTagged: false,
			}
			if err := store.InsertChunkControlMapping(ctx, mapping); err != nil {
				return written, fmt.Errorf("insert chunk control mapping: %w", err)
			}
			written++
		}
	}
	return written, nil
}
