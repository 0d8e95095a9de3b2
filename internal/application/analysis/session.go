package analysis

import (
	"fmt"
	"sync"

	"github.com/bryanwahyu/imagesense/internal/application"
	"github.com/bryanwahyu/imagesense/internal/domain/ai"
	domain "github.com/bryanwahyu/imagesense/internal/domain/analysis"
)

// Session owns everything one running process needs to analyze and record
// images: the credential-bound client, the results store, optional mirrors
// and the running totals.
//
// Batches are serialized; a Session may be shared between the HTTP server and
// the inbox watcher.
type Session struct {
	Client    ai.Client
	Store     domain.Store
	Mirrors   []domain.Repository
	Artifacts domain.ArtifactStore
	Sink      domain.LogSink
	Clock     application.Clock
	Pricing   Pricing

	batchMu sync.Mutex

	mu     sync.Mutex
	totals Totals
}

// Totals is a snapshot of the RunningCost accumulator.
type Totals struct {
	Cost   float64 `json:"total_cost"`
	Images int     `json:"images_processed"`
}

// Totals returns the running cost and processed image count.
func (s *Session) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

func (s *Session) addCost(c float64) Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals.Cost += c
	s.totals.Images++
	return s.totals
}

func (s *Session) logf(format string, args ...any) {
	if s.Sink == nil {
		return
	}
	s.Sink.Log(fmt.Sprintf(format, args...))
}

func (s *Session) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}
