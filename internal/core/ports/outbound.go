package ports

import (
	"context"
	"time"

	"github.com/kirillkom/grc-evidence-pipeline/internal/core/domain"
)

// BlobStore reads uploaded documents and their extracted text.
// A missing object surfaces as domain.ErrBlobNotFound.
type BlobStore interface {
	Download(ctx context.Context, path string) ([]byte, error)
}

// Chunker splits document text into overlapping word windows.
type Chunker interface {
	Chunk(text string) []domain.ChunkWindow
}

// EmbeddingBackend produces a vector for one chunk of text.
type EmbeddingBackend interface {
	Name() string
	IsAvailable(ctx context.Context) bool
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CompletionBackend emits structured judgments from a chat-style prompt.
type CompletionBackend interface {
	Name() string
	IsAvailable(ctx context.Context) bool
	Complete(ctx context.Context, messages []domain.Message, opts domain.CompletionOptions) (string, error)
}

// MessageQueue publishes/consumes pipeline trigger requests.
type MessageQueue interface {
	PublishProcessRequest(ctx context.Context, req domain.ProcessRequest) error
	SubscribeProcessRequests(ctx context.Context, handler func(context.Context, domain.ProcessRequest) error) error
}

// ComplianceStore is the transactional view of the relational store. Every
// method called inside UnitOfWork.InTransaction runs on the same transaction.
type ComplianceStore interface {
	GetSource(ctx context.Context, sourceID, appID int64) (*domain.Source, error)
	ListAppStandards(ctx context.Context, appID int64) ([]domain.AppStandard, error)
	ListStandardControlIDs(ctx context.Context, standardID int64) ([]int64, error)
	ListActiveControls(ctx context.Context, controlIDs []int64) ([]domain.Control, error)

	// InsertChunk assigns chunk.ID from storage; the caller patches the
	// logical identity afterwards via UpdateChunkIdentity.
	InsertChunk(ctx context.Context, chunk *domain.Chunk) error
	UpdateChunkIdentity(ctx context.Context, rowID int64) error
	UpdateChunkEmbedding(ctx context.Context, rowID int64, vector []float32) error

	InsertChunkControlMapping(ctx context.Context, mapping *domain.ChunkControlMapping) error
	ListActiveChunkMappings(ctx context.Context, appID int64, controlIDs []int64) ([]domain.ChunkControlMapping, error)
	UpdateFamilyCompletion(ctx context.Context, appID int64, controlIDs []int64, percentage int) error

	MarkTextAvailable(ctx context.Context, versionID int64, at time.Time) error
	// CompletePendingTask conditionally transitions the PENDING task for
	// (app, op, entity) to PROCESSED and reports how many rows matched.
	CompletePendingTask(ctx context.Context, appID int64, op domain.TaskOp, entityID string) (int64, error)
	FlagComplianceRefresh(ctx context.Context, appID int64, at time.Time) error
}

// UnitOfWork scopes a function to one database transaction; the function's
// error rolls everything back.
type UnitOfWork interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context, store ComplianceStore) error) error
}
