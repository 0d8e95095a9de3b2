package analysis

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/imagesense/internal/application"
	"github.com/bryanwahyu/imagesense/internal/domain/ai"
	domain "github.com/bryanwahyu/imagesense/internal/domain/analysis"
	"github.com/bryanwahyu/imagesense/internal/infra/csvstore"
)

// fakeClient answers Describe calls from a queue keyed by image name.
type fakeClient struct {
	mu      sync.Mutex
	answers map[string]ai.Completion
	errs    map[string]error
	calls   []string
}

func (f *fakeClient) Describe(_ context.Context, img ai.Image) (ai.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, img.Name)
	if err, ok := f.errs[img.Name]; ok {
		return ai.Completion{}, err
	}
	if out, ok := f.answers[img.Name]; ok {
		return out, nil
	}
	return ai.Completion{Content: `{"summary":"default"}`, PromptTokens: 10, CompletionTokens: 5}, nil
}

type memorySink struct {
	mu    sync.Mutex
	lines []string
}

func (m *memorySink) Log(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, line)
}

type savedRow struct {
	batchID string
	rec     domain.Record
}

type fakeRepo struct {
	saved []savedRow
	err   error
}

func (f *fakeRepo) Save(_ context.Context, batchID string, r domain.Record) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, savedRow{batchID, r})
	return nil
}

type fakeArtifacts struct {
	keys []string
}

func (f *fakeArtifacts) Upload(_ context.Context, localPath, key string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", err
	}
	f.keys = append(f.keys, key)
	return "http://minio/" + key, nil
}

// failingStore rejects appends for the listed filenames.
type failingStore struct {
	domain.Store
	failFor map[string]bool
}

func (f failingStore) Append(ctx context.Context, r domain.Record) error {
	if f.failFor[r.Filename] {
		return errors.New("disk full")
	}
	return f.Store.Append(ctx, r)
}

var testNow = time.Date(2026, 10, 19, 14, 30, 5, 0, time.Local)

var testPricing = Pricing{InputPerToken: 0.00015 / 1000, OutputPerToken: 0.0006 / 1000}

func newTestSession(t *testing.T, client ai.Client) (*Session, *csvstore.Store, *memorySink) {
	t.Helper()
	store := csvstore.New(filepath.Join(t.TempDir(), "image_analysis_results.csv"))
	sink := &memorySink{}
	return &Session{
		Client:  client,
		Store:   store,
		Sink:    sink,
		Clock:   application.FixedClock(testNow),
		Pricing: testPricing,
	}, store, sink
}

// writePNG drops a tiny valid PNG into dir and returns its path.
func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}
