package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/bryanwahyu/imagesense/internal/application/analysis"
	"github.com/bryanwahyu/imagesense/internal/domain/ai"
	"github.com/bryanwahyu/imagesense/internal/infra/csvstore"
)

type recordingProcessor struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recordingProcessor) ProcessBatchUntilDone(_ context.Context, paths []string) (appanalysis.BatchSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, append([]string(nil), paths...))
	return appanalysis.BatchSummary{Processed: len(paths)}, nil
}

func (r *recordingProcessor) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

func TestReady(t *testing.T) {
	now := time.Now()
	pending := map[string]time.Time{
		"b.png": now.Add(-time.Second),
		"a.png": now.Add(-2 * time.Second),
		"c.png": now,
	}
	assert.Equal(t, []string{"a.png", "b.png"}, ready(pending, now, 500*time.Millisecond))
}

func TestRun_PicksUpNewImages(t *testing.T) {
	dir := t.TempDir()
	proc := &recordingProcessor{}
	w := New(dir, proc)
	w.Settle = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(testContext(t))
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher a moment to register the directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cat.PNG"), []byte("x"), 0o644))

	require.Eventually(t, func() bool { return len(proc.snapshot()) == 1 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, [][]string{{filepath.Join(dir, "cat.PNG")}}, proc.snapshot())
}

func TestBackfill(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.jpg", "a.webp", "readme.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
	proc := &recordingProcessor{}

	require.NoError(t, New(dir, proc).Backfill(testContext(t)))
	assert.Equal(t, [][]string{{filepath.Join(dir, "a.webp"), filepath.Join(dir, "b.jpg")}}, proc.snapshot())
}

func TestBackfill_EmptyInbox(t *testing.T) {
	proc := &recordingProcessor{}
	require.NoError(t, New(t.TempDir(), proc).Backfill(testContext(t)))
	assert.Empty(t, proc.snapshot())
}

// cancellingClient stops the surrounding run as soon as the first image is
// sent, the way a SIGINT would mid-batch.
type cancellingClient struct {
	cancel context.CancelFunc
	mu     sync.Mutex
	calls  int
	errs   []error
}

func (c *cancellingClient) Describe(ctx context.Context, _ ai.Image) (ai.Completion, error) {
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.errs = append(c.errs, ctx.Err())
	return ai.Completion{Content: `{"summary":"ok"}`, PromptTokens: 10, CompletionTokens: 5}, nil
}

func TestBackfill_CancelDuringBatchStillStoresEveryRow(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.png", "b.png", "c.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()

	client := &cancellingClient{cancel: cancel}
	store := csvstore.New(filepath.Join(t.TempDir(), "results.csv"))
	session := &appanalysis.Session{Client: client, Store: store}

	require.NoError(t, New(dir, session).Backfill(ctx))
	require.Error(t, ctx.Err())

	assert.Equal(t, 3, client.calls)
	assert.Equal(t, []error{nil, nil, nil}, client.errs)
	recs, err := store.Records(testContext(t))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, name := range []string{"a.png", "b.png", "c.png"} {
		assert.Equal(t, name, recs[i].Filename)
		assert.Equal(t, "ok", recs[i].Summary)
	}
}
