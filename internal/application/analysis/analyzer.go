package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	domain "github.com/bryanwahyu/imagesense/internal/domain/analysis"
	"github.com/bryanwahyu/imagesense/internal/infra/imagefile"
)

// TimestampLayout is the second-precision local time stored per row.
const TimestampLayout = "2006-01-02 15:04:05"

// rawPreviewLimit caps how much of an unparseable answer is echoed to the log.
const rawPreviewLimit = 500

var (
	errNotObject    = errors.New("response is not a JSON object")
	errTrailingData = errors.New("unexpected data after JSON value")
)

// Result is the outcome of analyzing one file. Record is always populated
// and ready to be appended; Err is set when the file or the API call failed.
type Result struct {
	Record           domain.Record
	Cost             float64
	PromptTokens     int
	CompletionTokens int
	// Fallback is true when the model answered but not with valid JSON.
	Fallback bool
	Err      error
}

// OK reports whether the model produced an answer for this file.
func (r Result) OK() bool { return r.Err == nil }

// Analyze runs one image through the vision model. It never returns an
// error: every failure is folded into the returned record.
func (s *Session) Analyze(ctx context.Context, path string) (res Result) {
	name := filepath.Base(path)
	s.logf("analyzing: %s", name)

	defer func() {
		if p := recover(); p != nil {
			res = s.errorResult(name, fmt.Errorf("panic: %v", p))
		}
	}()

	img, info, err := imagefile.Encode(path)
	if err != nil {
		return s.errorResult(name, err)
	}
	if info.Format != "" {
		s.logf("image encoded (%s %dx%d)", info.Format, info.Width, info.Height)
	} else {
		s.logf("image encoded (unrecognized format, sending as %s)", img.MIMEType)
	}

	s.logf("sending to vision model...")
	out, err := s.Client.Describe(ctx, img)
	if err != nil {
		return s.errorResult(name, err)
	}
	s.logf("response received")

	cost := s.Pricing.Cost(out.PromptTokens, out.CompletionTokens)
	totals := s.addCost(cost)
	s.logf("cost: %s (total: %s)", FormatCost(cost), FormatCost(totals.Cost))
	s.logf("tokens: %d input, %d output", out.PromptTokens, out.CompletionTokens)

	rec, perr := ParseResponse(out.Content)
	if perr != nil {
		content := StripFences(out.Content)
		s.logf("JSON parse error: %v", perr)
		s.logf("raw response:")
		s.logf("%s", preview(content, rawPreviewLimit))
	} else {
		s.logf("JSON parsed successfully")
	}

	rec.Filename = name
	rec.Timestamp = s.clock().Now().Format(TimestampLayout)
	rec.CostEstimate = FormatCost(cost)

	s.logf("analysis complete (%d total)", totals.Images)
	return Result{
		Record:           rec,
		Cost:             cost,
		PromptTokens:     out.PromptTokens,
		CompletionTokens: out.CompletionTokens,
		Fallback:         perr != nil,
	}
}

// ParseResponse turns a raw model answer into the analytical part of a
// record. When the answer is not a JSON object the returned record is the
// parse-error fallback and the error says why.
func ParseResponse(raw string) (domain.Record, error) {
	content := StripFences(raw)

	// numbers stay json.Number so large integers are stored exactly
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fallbackRecord(content), err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fallbackRecord(content), errTrailingData
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return fallbackRecord(content), errNotObject
	}
	return domain.FromModelJSON(obj), nil
}

func fallbackRecord(content string) domain.Record {
	return domain.Record{
		Summary:         domain.ParseErrorSummary,
		FullDescription: content,
	}
}

func (s *Session) errorResult(name string, err error) Result {
	s.logf("ERROR: %v", err)
	return Result{
		Record: domain.Record{
			Filename:     name,
			Timestamp:    s.clock().Now().Format(TimestampLayout),
			Summary:      "ERROR: " + err.Error(),
			CostEstimate: FormatCost(0),
		},
		Err: err,
	}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
