package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/grc-evidence-pipeline/internal/core/domain"
	"github.com/kirillkom/grc-evidence-pipeline/internal/core/ports"
)

// controlFamiliesForStandard partitions a standard's active controls by
// family name, preserving first-seen family order. An empty result means
// "skip this standard", not an error.
func controlFamiliesForStandard(ctx context.Context, store ports.ComplianceStore, standardID int64) ([]domain.ControlFamily, error) {
	controlIDs, err := store.ListStandardControlIDs(ctx, standardID)
	if err != nil {
		return nil, fmt.Errorf("list standard controls: %w", err)
	}
	if len(controlIDs) == 0 {
		return nil, nil
	}

	controls, err := store.ListActiveControls(ctx, controlIDs)
	if err != nil {
		return nil, fmt.Errorf("list active controls: %w", err)
	}

	return groupControlsByFamily(controls), nil
}

func groupControlsByFamily(controls []domain.Control) []domain.ControlFamily {
	index := make(map[string]int, len(controls))
	families := make([]domain.ControlFamily, 0, len(controls))

	for _, control := range controls {
		i, ok := index[control.FamilyName]
		if !ok {
			i = len(families)
			index[control.FamilyName] = i
			families = append(families, domain.ControlFamily{Name: control.FamilyName})
		}
		families[i].Controls = append(families[i].Controls, control)
	}
	return families
}
