package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/imagesense/internal/domain/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS image_analysis (
  id                 UUID        PRIMARY KEY,
  batch_id           TEXT        NOT NULL,
  filename           TEXT        NOT NULL,
  timestamp          TEXT        NOT NULL,
  summary            TEXT,
  objects            TEXT,
  people_count       TEXT,
  people_description TEXT,
  colors             TEXT,
  mood               TEXT,
  emotion            TEXT,
  movement           TEXT,
  setting            TEXT,
  lighting           TEXT,
  composition        TEXT,
  elements_list      TEXT,
  full_description   TEXT,
  cost_estimate      TEXT,
  created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_image_analysis_batch ON image_analysis (batch_id);`

// RecordRepository mirrors result rows into Postgres.
type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres schema: %w", err)
	}
	return nil
}

// Save inserts one row under a fresh id
func (r *RecordRepository) Save(ctx context.Context, batchID string, rec analysis.Record) error {
	args := []any{uuid.New().String(), dashIfEmpty(batchID)}
	for _, v := range rec.Values() {
		args = append(args, v)
	}
	args[2] = dashIfEmpty(rec.Filename)

	if _, err := r.db.ExecContext(ctx, insertQuery(), args...); err != nil {
		return fmt.Errorf("postgres save %s: %w", rec.Filename, err)
	}
	return nil
}

func (r *RecordRepository) Check(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func insertQuery() string {
	cols := append([]string{"id", "batch_id"}, analysis.Columns...)
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	return "INSERT INTO image_analysis (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ",") + ")"
}

func dashIfEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
