package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/grc-evidence-pipeline/internal/core/domain"
)

func newStoreWithMock(t *testing.T) (*ComplianceStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ComplianceStore{q: db}, mock, func() { _ = db.Close() }
}

func TestGetSourceReturnsDomainNotFound(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT s.id, s.customer_id").
		WithArgs(int64(7), int64(3)).
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetSource(context.Background(), 7, 3)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertChunkAssignsStorageIdentity(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("INSERT INTO source_chunk_mapping").
		WithArgs(int64(7), "cust-1", int64(3), "chunk text", 1, 2, 0, 10, true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	chunk := domain.Chunk{
		SourceID:   7,
		CustomerID: "cust-1",
		AppID:      3,
		Text:       "chunk text",
		Page:       1,
		Line:       2,
		Offset:     0,
		Length:     10,
		IsActive:   true,
	}
	if err := store.InsertChunk(context.Background(), &chunk); err != nil {
		t.Fatalf("InsertChunk() error = %v", err)
	}
	if chunk.ID != 42 {
		t.Fatalf("expected storage-assigned id 42, got %d", chunk.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateChunkIdentityPatchesLogicalID(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE source_chunk_mapping SET chunk_id = id").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.UpdateChunkIdentity(context.Background(), 42); err != nil {
		t.Fatalf("UpdateChunkIdentity() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateChunkEmbeddingUsesVectorLiteral(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE source_chunk_mapping SET chunk_emb").
		WithArgs("[0.101,-0.002,0.33]", int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateChunkEmbedding(context.Background(), 42, []float32{0.101, -0.002, 0.33})
	if err != nil {
		t.Fatalf("UpdateChunkEmbedding() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCompletePendingTaskMatchesSpecificEntity(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE async_tasks").
		WithArgs("PROCESSED", int64(3), "CREATE_ASSETS", "PENDING", "7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	matched, err := store.CompletePendingTask(context.Background(), 3, domain.TaskOpCreateAssets, "7")
	if err != nil {
		t.Fatalf("CompletePendingTask() error = %v", err)
	}
	if matched != 1 {
		t.Fatalf("expected 1 matched row, got %d", matched)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCompletePendingTaskReportsZeroOnDuplicateDelivery(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE async_tasks").
		WithArgs("PROCESSED", int64(3), "CREATE_ASSETS", "PENDING", "7").
		WillReturnResult(sqlmock.NewResult(0, 0))

	matched, err := store.CompletePendingTask(context.Background(), 3, domain.TaskOpCreateAssets, "7")
	if err != nil {
		t.Fatalf("CompletePendingTask() error = %v", err)
	}
	if matched != 0 {
		t.Fatalf("expected 0 matched rows, got %d", matched)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
