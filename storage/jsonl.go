package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/thisisjab/jitsoql/entity"
)

type JSONLinesStorageConfig struct {
	// Path of the report file. Empty or "-" writes to standard output.
	Path string `yaml:"path"`
	// Truncate empties an existing file instead of appending to it.
	Truncate bool `yaml:"truncate"`
}

// JSONLinesStorage writes one JSON object per query report.
type JSONLinesStorage struct {
	cfg    JSONLinesStorageConfig
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

func NewJSONLinesStorage(cfg JSONLinesStorageConfig) (*JSONLinesStorage, error) {
	if cfg.Path == "" || cfg.Path == "-" {
		return &JSONLinesStorage{cfg: cfg, w: os.Stdout}, nil
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if cfg.Truncate {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}

	f, err := os.OpenFile(cfg.Path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open report file: %w", err)
	}

	return &JSONLinesStorage{cfg: cfg, w: f, closer: f}, nil
}

// NewJSONLinesWriterStorage writes reports to w.
func NewJSONLinesWriterStorage(w io.Writer) *JSONLinesStorage {
	return &JSONLinesStorage{w: w}
}

func (s *JSONLinesStorage) StoreReports(ctx context.Context, records ...entity.QueryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	enc := json.NewEncoder(s.w)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("cannot write report for %s:%d: %w", r.Source, r.Line, err)
		}
	}

	return nil
}

func (s *JSONLinesStorage) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
