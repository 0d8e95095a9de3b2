package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/bryanwahyu/imagesense/internal/domain/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS image_analysis (
  id                 CHAR(36)     NOT NULL PRIMARY KEY,
  batch_id           VARCHAR(64)  NOT NULL,
  filename           VARCHAR(512) NOT NULL,
  timestamp          VARCHAR(32)  NOT NULL,
  summary            TEXT,
  objects            TEXT,
  people_count       VARCHAR(64),
  people_description TEXT,
  colors             TEXT,
  mood               TEXT,
  emotion            TEXT,
  movement           TEXT,
  setting            TEXT,
  lighting           TEXT,
  composition        TEXT,
  elements_list      TEXT,
  full_description   MEDIUMTEXT,
  cost_estimate      VARCHAR(32),
  created_at         TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
  KEY idx_image_analysis_batch (batch_id)
) CHARACTER SET utf8mb4;`

// RecordRepository mirrors result rows into MySQL.
type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// EnsureSchema creates the image_analysis table if it is missing.
func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("mysql schema: %w", err)
	}
	return nil
}

// Save inserts one row under a fresh id
func (r *RecordRepository) Save(ctx context.Context, batchID string, rec analysis.Record) error {
	args := []any{uuid.New().String(), stringOrDash(batchID)}
	for _, v := range rec.Values() {
		args = append(args, v)
	}
	args[2] = stringOrDash(rec.Filename)

	if _, err := r.db.ExecContext(ctx, insertQuery(), args...); err != nil {
		return fmt.Errorf("mysql save %s: %w", rec.Filename, err)
	}
	return nil
}

// Check is used by the health endpoint.
func (r *RecordRepository) Check(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
