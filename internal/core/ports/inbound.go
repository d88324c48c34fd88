package ports

import (
	"context"

	"github.com/kirillkom/grc-evidence-pipeline/internal/core/domain"
)

// DocumentProcessor runs the full scoring pipeline for one document.
type DocumentProcessor interface {
	Process(ctx context.Context, req domain.ProcessRequest) (domain.RunStats, error)
}
