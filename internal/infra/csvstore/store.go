package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bryanwahyu/imagesense/internal/domain/analysis"
)

// ErrHeaderMismatch is returned when an existing file does not carry the
// fixed results header. The file is left as is.
var ErrHeaderMismatch = errors.New("csv header does not match results columns")

// Store keeps the results table in a single CSV file. Every append loads the
// whole file and rewrites it.
type Store struct {
	mu   sync.Mutex
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Append adds r as the last row. Nothing is written unless the existing
// file loaded cleanly.
func (s *Store) Append(ctx context.Context, r analysis.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.load()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	rows = append(rows, normalizeRow(r.Values()))
	return s.write(rows)
}

// Records returns every stored row.
func (s *Store) Records(ctx context.Context) ([]analysis.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]analysis.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, analysis.FromValues(row))
	}
	return out, nil
}

// Writable reports whether the store file (or its directory, when the file
// does not exist yet) can be written.
func (s *Store) Writable() error {
	f, err := os.OpenFile(s.path, os.O_WRONLY, 0)
	if err == nil {
		return f.Close()
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	dir := filepath.Dir(s.path)
	probe, err := os.CreateTemp(dir, ".imagesense-probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

// load returns data rows without the header.
func (s *Store) load() ([][]string, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	rd := csv.NewReader(f)
	header, err := rd.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", s.path, err)
	}
	// file yang disimpan pakai BOM dari Excel tetap diterima
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}
	if !slices.Equal(header, analysis.Columns) {
		return nil, fmt.Errorf("%s: %w", s.path, ErrHeaderMismatch)
	}

	rows, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return rows, nil
}

func (s *Store) write(rows [][]string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open %s for write: %w", s.path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(analysis.Columns); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return f.Close()
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}

// normalizeRow turns CRLF inside values into LF. The csv reader does the same
// on load, so a row reads back exactly as it was first written.
func normalizeRow(vals []string) []string {
	for i, v := range vals {
		vals[i] = strings.ReplaceAll(v, "\r\n", "\n")
	}
	return vals
}
