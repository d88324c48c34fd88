package usecase

import (
	"context"
	"fmt"
	"math"

	"github.com/kirillkom/grc-evidence-pipeline/internal/core/domain"
	"github.com/kirillkom/grc-evidence-pipeline/internal/core/ports"
)

// recomputeFamilyCompleteness writes a blended relevance/coverage percentage
// onto every control of every family in the standard. It is a full,
// idempotent recomputation: re-running against unchanged mappings produces
// the same percentages.
func recomputeFamilyCompleteness(ctx context.Context, store ports.ComplianceStore, appID, standardID int64) error {
	controlIDs, err := store.ListStandardControlIDs(ctx, standardID)
	if err != nil {
		return fmt.Errorf("list standard controls: %w", err)
	}
	if len(controlIDs) == 0 {
		return nil
	}

	controls, err := store.ListActiveControls(ctx, controlIDs)
	if err != nil {
		return fmt.Errorf("list active controls: %w", err)
	}

	for _, family := range groupControlsByFamily(controls) {
		familyControlIDs := make([]int64, 0, len(family.Controls))
		for _, c := range family.Controls {
			familyControlIDs = append(familyControlIDs, c.ID)
		}

		mappings, err := store.ListActiveChunkMappings(ctx, appID, familyControlIDs)
		if err != nil {
			return fmt.Errorf("list chunk mappings for family %s: %w", family.Name, err)
		}

		percentage := familyCompletionPercentage(mappings, len(familyControlIDs))
		if err := store.UpdateFamilyCompletion(ctx, appID, familyControlIDs, percentage); err != nil {
			return fmt.Errorf("update completion for family %s: %w", family.Name, err)
		}
	}
	return nil
}

// familyCompletionPercentage blends the mean stored relevance with control
// coverage. Non-positive scores are excluded from the mean (not zeroed) so a
// family without evidence is not penalized twice; a family with no mappings
// at all is exactly 0.
func familyCompletionPercentage(mappings []domain.ChunkControlMapping, familySize int) int {
	if len(mappings) == 0 || familySize == 0 {
		return 0
	}

	scoreSum, scoreCount := 0, 0
	covered := make(map[int64]struct{}, familySize)
	for _, m := range mappings {
		if m.Reference.RelevanceScore > 0 {
			scoreSum += m.Reference.RelevanceScore
			scoreCount++
		}
		covered[m.ControlID] = struct{}{}
	}

	avgRelevance := 0.0
	if scoreCount > 0 {
		avgRelevance = float64(scoreSum) / float64(scoreCount)
	}
	coverage := float64(len(covered)) / float64(familySize) * 100

	return int(math.Round((avgRelevance + coverage) / 2))
}
