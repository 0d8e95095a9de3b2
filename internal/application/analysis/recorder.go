package analysis

import (
	"context"
	"path/filepath"

	domain "github.com/bryanwahyu/imagesense/internal/domain/analysis"
)

// Append writes one record to the results store. It returns false when the
// store could not be loaded or rewritten; the failure is logged.
func (s *Session) Append(ctx context.Context, rec domain.Record) bool {
	return s.appendRecord(ctx, "", rec)
}

func (s *Session) appendRecord(ctx context.Context, batchID string, rec domain.Record) bool {
	if err := s.Store.Append(ctx, rec); err != nil {
		s.logf("ERROR saving to %s: %v", s.Store.Path(), err)
		return false
	}
	s.logf("saved to %s", s.Store.Path())

	s.mirror(ctx, batchID, rec)
	return true
}

// mirror copies a stored row to the secondary sinks. Failures are logged
// only; the CSV file is the source of truth.
func (s *Session) mirror(ctx context.Context, batchID string, rec domain.Record) {
	for _, repo := range s.Mirrors {
		if err := repo.Save(ctx, batchID, rec); err != nil {
			s.logf("WARN mirror save failed for %s: %v", rec.Filename, err)
		}
	}
	if s.Artifacts != nil {
		key := "results/" + filepath.Base(s.Store.Path())
		if _, err := s.Artifacts.Upload(ctx, s.Store.Path(), key); err != nil {
			s.logf("WARN results upload failed: %v", err)
		}
	}
}
