package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/grc-evidence-pipeline/internal/core/domain"
)

// ComplianceStore implements ports.ComplianceStore over database/sql. The
// UnitOfWork hands out instances bound to a transaction; a plain instance
// over *sql.DB autocommits and is only used by tooling.
type ComplianceStore struct {
	q querier
}

func NewComplianceStore(db *sql.DB) *ComplianceStore {
	return &ComplianceStore{q: db}
}

func (s *ComplianceStore) GetSource(ctx context.Context, sourceID, appID int64) (*domain.Source, error) {
	row := s.q.QueryRowContext(ctx, `
SELECT s.id, s.customer_id, s.app_id, s.name, s.source_type, s.is_active, s.current_version,
       v.id, v.source_id, v.file_bucket_key, v.text_s3_path, v.text_version, v.is_text_available, v.text_updated_at
FROM source s
LEFT JOIN source_version v ON v.id = s.current_version
WHERE s.id = $1 AND s.app_id = $2
`, sourceID, appID)

	var src domain.Source
	var versionID sql.NullInt64
	var versionSourceID sql.NullInt64
	var fileKey, textKey sql.NullString
	var textVersion sql.NullInt64
	var textAvailable sql.NullBool
	var textUpdatedAt sql.NullTime

	err := row.Scan(
		&src.ID, &src.CustomerID, &src.AppID, &src.Name, &src.SourceType, &src.IsActive, &src.CurrentVersion,
		&versionID, &versionSourceID, &fileKey, &textKey, &textVersion, &textAvailable, &textUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSourceNotFound, "get source",
				fmt.Errorf("source %d for app %d", sourceID, appID))
		}
		return nil, fmt.Errorf("scan source: %w", err)
	}

	if versionID.Valid {
		version := &domain.SourceVersion{
			ID:              versionID.Int64,
			SourceID:        versionSourceID.Int64,
			FileBucketKey:   fileKey.String,
			TextBucketKey:   textKey.String,
			TextVersion:     int(textVersion.Int64),
			IsTextAvailable: textAvailable.Bool,
		}
		if textUpdatedAt.Valid {
			at := textUpdatedAt.Time
			version.TextUpdatedAt = &at
		}
		src.Version = version
	}
	return &src, nil
}

func (s *ComplianceStore) ListAppStandards(ctx context.Context, appID int64) ([]domain.AppStandard, error) {
	rows, err := s.q.QueryContext(ctx, `
SELECT id, app_id, standard_id, have_pending_compliance
FROM app_standard
WHERE app_id = $1
ORDER BY standard_id
`, appID)
	if err != nil {
		return nil, fmt.Errorf("list app standards: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AppStandard, 0)
	for rows.Next() {
		var st domain.AppStandard
		if err := rows.Scan(&st.ID, &st.AppID, &st.StandardID, &st.HavePendingCompliance); err != nil {
			return nil, fmt.Errorf("scan app standard: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate app standards: %w", err)
	}
	return out, nil
}

func (s *ComplianceStore) ListStandardControlIDs(ctx context.Context, standardID int64) ([]int64, error) {
	rows, err := s.q.QueryContext(ctx, `
SELECT control_id
FROM standard_control_mapping
WHERE standard_id = $1
ORDER BY control_id
`, standardID)
	if err != nil {
		return nil, fmt.Errorf("list standard control ids: %w", err)
	}
	defer rows.Close()

	out := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan control id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate control ids: %w", err)
	}
	return out, nil
}

func (s *ComplianceStore) ListActiveControls(ctx context.Context, controlIDs []int64) ([]domain.Control, error) {
	if len(controlIDs) == 0 {
		return nil, nil
	}
	rows, err := s.q.QueryContext(ctx, `
SELECT id, control_name, family_name, control_text, active
FROM control
WHERE id = ANY($1) AND active = TRUE
ORDER BY order_index, id
`, controlIDs)
	if err != nil {
		return nil, fmt.Errorf("list active controls: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Control, 0, len(controlIDs))
	for rows.Next() {
		var c domain.Control
		if err := rows.Scan(&c.ID, &c.Name, &c.FamilyName, &c.Text, &c.Active); err != nil {
			return nil, fmt.Errorf("scan control: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate controls: %w", err)
	}
	return out, nil
}

// InsertChunk writes the row with a placeholder chunk identity; the caller
// patches chunk_id to the assigned row id before any mapping references it.
func (s *ComplianceStore) InsertChunk(ctx context.Context, chunk *domain.Chunk) error {
	err := s.q.QueryRowContext(ctx, `
INSERT INTO source_chunk_mapping (
	chunk_id, source_id, customer_id, app_id, chunk_text, page_number, line_number, chunk_offset, chunk_limit, is_active
) VALUES (0, $1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id
`,
		chunk.SourceID, chunk.CustomerID, chunk.AppID, chunk.Text,
		chunk.Page, chunk.Line, chunk.Offset, chunk.Length, chunk.IsActive,
	).Scan(&chunk.ID)
	if err != nil {
		return fmt.Errorf("insert chunk: %w", err)
	}
	return nil
}

func (s *ComplianceStore) UpdateChunkIdentity(ctx context.Context, rowID int64) error {
	result, err := s.q.ExecContext(ctx, `
UPDATE source_chunk_mapping SET chunk_id = id WHERE id = $1
`, rowID)
	if err != nil {
		return fmt.Errorf("update chunk identity: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update chunk identity rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("chunk not found: id=%d", rowID)
	}
	return nil
}

// UpdateChunkEmbedding writes the vector through the pgvector literal cast.
func (s *ComplianceStore) UpdateChunkEmbedding(ctx context.Context, rowID int64, vector []float32) error {
	_, err := s.q.ExecContext(ctx, `
UPDATE source_chunk_mapping SET chunk_emb = $1::vector WHERE id = $2
`, FormatVector(vector), rowID)
	if err != nil {
		return fmt.Errorf("update chunk embedding: %w", err)
	}
	return nil
}

func (s *ComplianceStore) InsertChunkControlMapping(ctx context.Context, mapping *domain.ChunkControlMapping) error {
	reference, err := json.Marshal(mapping.Reference)
	if err != nil {
		return fmt.Errorf("marshal reference data: %w", err)
	}

	err = s.q.QueryRowContext(ctx, `
INSERT INTO control_chunk_mapping (app_id, control_id, chunk_id, reference_data, is_active, is_tagged)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`, mapping.AppID, mapping.ControlID, mapping.ChunkID, reference, mapping.IsActive, mapping.IsTagged).Scan(&mapping.ID)
	if err != nil {
		return fmt.Errorf("insert control chunk mapping: %w", err)
	}
	return nil
}

func (s *ComplianceStore) ListActiveChunkMappings(ctx context.Context, appID int64, controlIDs []int64) ([]domain.ChunkControlMapping, error) {
	if len(controlIDs) == 0 {
		return nil, nil
	}
	rows, err := s.q.QueryContext(ctx, `
SELECT id, app_id, control_id, chunk_id, reference_data, is_active, is_tagged
FROM control_chunk_mapping
WHERE app_id = $1 AND control_id = ANY($2) AND is_active = TRUE
`, appID, controlIDs)
	if err != nil {
		return nil, fmt.Errorf("list chunk mappings: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ChunkControlMapping, 0)
	for rows.Next() {
		var m domain.ChunkControlMapping
		var reference []byte
		if err := rows.Scan(&m.ID, &m.AppID, &m.ControlID, &m.ChunkID, &reference, &m.IsActive, &m.IsTagged); err != nil {
			return nil, fmt.Errorf("scan chunk mapping: %w", err)
		}
		if err := json.Unmarshal(reference, &m.Reference); err != nil {
			return nil, fmt.Errorf("unmarshal reference data: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk mappings: %w", err)
	}
	return out, nil
}

func (s *ComplianceStore) UpdateFamilyCompletion(ctx context.Context, appID int64, controlIDs []int64, percentage int) error {
	if len(controlIDs) == 0 {
		return nil
	}
	_, err := s.q.ExecContext(ctx, `
UPDATE application_control_mapping
SET percentage_completion = $1, updated_at = NOW()
WHERE app_id = $2 AND control_id = ANY($3)
`, percentage, appID, controlIDs)
	if err != nil {
		return fmt.Errorf("update family completion: %w", err)
	}
	return nil
}

func (s *ComplianceStore) MarkTextAvailable(ctx context.Context, versionID int64, at time.Time) error {
	result, err := s.q.ExecContext(ctx, `
UPDATE source_version
SET is_text_available = TRUE, text_updated_at = $2
WHERE id = $1
`, versionID, at)
	if err != nil {
		return fmt.Errorf("mark text available: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark text available rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("source version not found: id=%d", versionID)
	}
	return nil
}

// CompletePendingTask is the duplicate-delivery guard: only one PENDING task
// per (app, op, entity) exists, so concurrent runs race on this row and the
// loser matches zero rows.
func (s *ComplianceStore) CompletePendingTask(ctx context.Context, appID int64, op domain.TaskOp, entityID string) (int64, error) {
	result, err := s.q.ExecContext(ctx, `
UPDATE async_tasks
SET status = $1, updated_at = NOW()
WHERE app_id = $2 AND ops = $3 AND status = $4 AND entity_id = $5
`, string(domain.TaskStatusProcessed), appID, string(op), string(domain.TaskStatusPending), entityID)
	if err != nil {
		return 0, fmt.Errorf("complete pending task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("complete pending task rows affected: %w", err)
	}
	return rows, nil
}

func (s *ComplianceStore) FlagComplianceRefresh(ctx context.Context, appID int64, at time.Time) error {
	_, err := s.q.ExecContext(ctx, `
UPDATE app_standard
SET have_pending_compliance = TRUE, updated_at = $2, source_updated_at = $2
WHERE app_id = $1
`, appID, at)
	if err != nil {
		return fmt.Errorf("flag compliance refresh: %w", err)
	}
	return nil
}
