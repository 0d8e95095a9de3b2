package analysis

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNoImages is returned when a drop contains no accepted image file.
var ErrNoImages = errors.New("no image files in drop (accepted: .png, .jpg, .jpeg, .webp, .gif, .bmp)")

// AcceptedExtensions lists the file types a batch will pick up.
var AcceptedExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".gif", ".bmp"}

// IsImage reports whether path has an accepted extension, ignoring case.
func IsImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range AcceptedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// FilterImages keeps the accepted paths in their original order.
func FilterImages(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if IsImage(p) {
			out = append(out, p)
		}
	}
	return out
}

// BatchSummary is reported after every file of a drop was handled.
type BatchSummary struct {
	BatchID        string  `json:"batch_id"`
	Processed      int     `json:"processed"`
	Successful     int     `json:"successful"`
	AnalysisErrors int     `json:"analysis_errors"`
	TotalCost      float64 `json:"total_cost"`
	Output         string  `json:"output"`
}

// ProcessBatchUntilDone runs the batch with a context that ignores the
// caller's cancellation, so an HTTP client going away does not cut a batch
// short.
func (s *Session) ProcessBatchUntilDone(ctx context.Context, paths []string) (BatchSummary, error) {
	return s.ProcessBatch(context.WithoutCancel(ctx), paths)
}

// ProcessBatch analyzes and records every accepted path, one at a time and
// in the order given. A failing image never stops the rest of the batch.
func (s *Session) ProcessBatch(ctx context.Context, paths []string) (BatchSummary, error) {
	images := FilterImages(paths)
	if len(images) == 0 {
		s.logf("no images in drop")
		return BatchSummary{}, ErrNoImages
	}

	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	sum := BatchSummary{
		BatchID: uuid.New().String(),
		Output:  s.Store.Path(),
	}
	s.logf("batch %s: processing %d image(s)", sum.BatchID, len(images))

	for _, path := range images {
		res := s.Analyze(ctx, path)
		if !res.OK() {
			sum.AnalysisErrors++
		}
		if s.appendRecord(ctx, sum.BatchID, res.Record) {
			sum.Successful++
		}
		s.archive(ctx, sum.BatchID, path)
		sum.Processed++
	}

	sum.TotalCost = s.Totals().Cost
	s.logf("batch %s complete", sum.BatchID)
	s.logf("processed: %d images", sum.Processed)
	s.logf("successful: %d", sum.Successful)
	s.logf("total cost: %s", FormatCost(sum.TotalCost))
	s.logf("output: %s", sum.Output)
	return sum, nil
}

func (s *Session) archive(ctx context.Context, batchID, path string) {
	if s.Artifacts == nil {
		return
	}
	key := "images/" + batchID + "/" + filepath.Base(path)
	if _, err := s.Artifacts.Upload(ctx, path, key); err != nil {
		s.logf("WARN image archive failed for %s: %v", filepath.Base(path), err)
	}
}
