package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/imagesense/internal/domain/ai"
	domain "github.com/bryanwahyu/imagesense/internal/domain/analysis"
)

func TestIsImage(t *testing.T) {
	accepted := []string{"a.png", "b.jpg", "c.jpeg", "d.webp", "e.gif", "f.bmp", "G.PNG", "h.JpEg", "/abs/dir.x/i.WEBP"}
	for _, p := range accepted {
		assert.True(t, IsImage(p), p)
	}
	rejected := []string{"a.txt", "b.tiff", "c.heic", "png", "d.png.zip", "noext", "e.svg", ".png.bak"}
	for _, p := range rejected {
		assert.False(t, IsImage(p), p)
	}
}

func TestFilterImages_KeepsOrder(t *testing.T) {
	in := []string{"z.gif", "notes.txt", "a.PNG", "b.doc", "m.jpg"}
	assert.Equal(t, []string{"z.gif", "a.PNG", "m.jpg"}, FilterImages(in))
	assert.Empty(t, FilterImages([]string{"x.txt"}))
}

func TestProcessBatch_NoImages(t *testing.T) {
	client := &fakeClient{}
	s, store, _ := newTestSession(t, client)

	_, err := s.ProcessBatch(testContext(t), []string{"/tmp/readme.md", "/tmp/a.pdf"})

	require.ErrorIs(t, err, ErrNoImages)
	assert.Empty(t, client.calls)
	assert.NoFileExists(t, store.Path())
}

func TestProcessBatch_IsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	first := writePNG(t, dir, "first.png")
	broken := writePNG(t, dir, "broken.jpg")
	prose := writePNG(t, dir, "prose.webp")
	last := writePNG(t, dir, "last.GIF")
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hi"), 0o644))

	client := &fakeClient{
		answers: map[string]ai.Completion{
			"first.png":  {Content: modelJSON, PromptTokens: 2000, CompletionTokens: 1000},
			"prose.webp": {Content: "no json here", PromptTokens: 1000, CompletionTokens: 0},
			"last.GIF":   {Content: "```json\n{\"summary\":\"last\"}\n```", PromptTokens: 0, CompletionTokens: 1000},
		},
		errs: map[string]error{"broken.jpg": errors.New("connection reset")},
	}
	s, store, _ := newTestSession(t, client)

	sum, err := s.ProcessBatch(testContext(t), []string{first, notes, broken, prose, last})
	require.NoError(t, err)

	assert.Equal(t, []string{"first.png", "broken.jpg", "prose.webp", "last.GIF"}, client.calls)
	assert.Equal(t, 4, sum.Processed)
	assert.Equal(t, 4, sum.Successful)
	assert.Equal(t, 1, sum.AnalysisErrors)
	assert.NotEmpty(t, sum.BatchID)
	assert.Equal(t, store.Path(), sum.Output)

	wantCost := testPricing.Cost(2000, 1000) + testPricing.Cost(1000, 0) + testPricing.Cost(0, 1000)
	assert.InDelta(t, wantCost, sum.TotalCost, 1e-12)
	assert.Equal(t, 3, s.Totals().Images)

	recs, err := store.Records(testContext(t))
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, "first.png", recs[0].Filename)
	assert.Equal(t, "ERROR: connection reset", recs[1].Summary)
	assert.Equal(t, "$0.0000", recs[1].CostEstimate)
	assert.Equal(t, domain.ParseErrorSummary, recs[2].Summary)
	assert.Equal(t, "no json here", recs[2].FullDescription)
	assert.Equal(t, "last", recs[3].Summary)
}

func TestProcessBatch_PersistenceFailureCountsAsUnsuccessful(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png")
	b := writePNG(t, dir, "b.png")
	c := writePNG(t, dir, "c.png")

	s, store, sink := newTestSession(t, &fakeClient{})
	s.Store = failingStore{Store: store, failFor: map[string]bool{"b.png": true}}

	sum, err := s.ProcessBatch(testContext(t), []string{a, b, c})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Processed)
	assert.Equal(t, 2, sum.Successful)
	assert.Equal(t, 0, sum.AnalysisErrors)

	recs, err := store.Records(testContext(t))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a.png", recs[0].Filename)
	assert.Equal(t, "c.png", recs[1].Filename)

	assert.Contains(t, sink.lines, "ERROR saving to "+store.Path()+": disk full")
}

func TestProcessBatch_RunningTotalAcrossBatches(t *testing.T) {
	dir := t.TempDir()
	client := &fakeClient{answers: map[string]ai.Completion{
		"one.png": {Content: "{}", PromptTokens: 1234, CompletionTokens: 567},
		"two.png": {Content: "{}", PromptTokens: 8901, CompletionTokens: 234},
	}}
	s, _, _ := newTestSession(t, client)

	_, err := s.ProcessBatch(testContext(t), []string{writePNG(t, dir, "one.png")})
	require.NoError(t, err)
	sum, err := s.ProcessBatch(testContext(t), []string{writePNG(t, dir, "two.png")})
	require.NoError(t, err)

	want := testPricing.Cost(1234, 567) + testPricing.Cost(8901, 234)
	assert.Equal(t, FormatCost(want), FormatCost(sum.TotalCost))
	assert.Equal(t, 2, s.Totals().Images)
}

func TestProcessBatch_Mirrors(t *testing.T) {
	dir := t.TempDir()
	repo := &fakeRepo{}
	broken := &fakeRepo{err: errors.New("db down")}
	artifacts := &fakeArtifacts{}

	s, store, sink := newTestSession(t, &fakeClient{})
	s.Mirrors = []domain.Repository{broken, repo}
	s.Artifacts = artifacts

	sum, err := s.ProcessBatch(testContext(t), []string{writePNG(t, dir, "a.png"), writePNG(t, dir, "b.png")})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Successful, "mirror failures do not fail the append")

	require.Len(t, repo.saved, 2)
	assert.Equal(t, sum.BatchID, repo.saved[0].batchID)
	assert.Equal(t, "a.png", repo.saved[0].rec.Filename)
	assert.Equal(t, "b.png", repo.saved[1].rec.Filename)

	resultsKey := "results/" + filepath.Base(store.Path())
	assert.Equal(t, []string{
		resultsKey,
		"images/" + sum.BatchID + "/a.png",
		resultsKey,
		"images/" + sum.BatchID + "/b.png",
	}, artifacts.keys)

	assert.Contains(t, sink.lines, "WARN mirror save failed for a.png: db down")
}

func TestAppend_Direct(t *testing.T) {
	s, store, _ := newTestSession(t, &fakeClient{})

	ok := s.Append(testContext(t), domain.Record{Filename: "manual.png", Summary: "typed in"})
	require.True(t, ok)

	recs, err := store.Records(testContext(t))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "typed in", recs[0].Summary)
	assert.Empty(t, recs[0].CostEstimate)
}

func TestProcessBatchUntilDone_IgnoresCancellation(t *testing.T) {
	s, store, _ := newTestSession(t, &fakeClient{})
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	sum, err := s.ProcessBatchUntilDone(ctx, []string{writePNG(t, t.TempDir(), "a.png")})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Successful)
	assert.FileExists(t, store.Path())
}
