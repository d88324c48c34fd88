package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables this pipeline owns. Read-only tables
// (source, control, standard mappings, app standards, async tasks) belong to
// the surrounding platform and are not created here.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS source_chunk_mapping (
	id BIGSERIAL PRIMARY KEY,
	chunk_id BIGINT NOT NULL DEFAULT 0,
	source_id BIGINT NOT NULL,
	customer_id TEXT NOT NULL,
	app_id BIGINT NOT NULL,
	chunk_text TEXT NOT NULL,
	chunk_emb vector,
	page_number INT NOT NULL,
	line_number INT NOT NULL,
	chunk_offset INT NOT NULL,
	chunk_limit INT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS idx_source_chunk_mapping_source ON source_chunk_mapping(source_id);
CREATE INDEX IF NOT EXISTS idx_source_chunk_mapping_app ON source_chunk_mapping(app_id);

CREATE TABLE IF NOT EXISTS control_chunk_mapping (
	id BIGSERIAL PRIMARY KEY,
	app_id BIGINT NOT NULL,
	control_id BIGINT NOT NULL,
	chunk_id BIGINT NOT NULL,
	reference_data JSONB NOT NULL DEFAULT '{}'::jsonb,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	is_tagged BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_control_chunk_mapping_app_control ON control_chunk_mapping(app_id, control_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
