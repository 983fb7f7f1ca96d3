package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/thisisjab/jitsoql/entity"
)

type FileQuerySourceConfig struct {
	Name           string   `yaml:"-"`
	ProcessorNames []string `yaml:"-"`
	// Path of the query file. "-" reads standard input.
	Path string `yaml:"path"`
	// Follow keeps the file open after its current content is read and
	// emits lines as they are appended.
	Follow bool `yaml:"follow"`
}

// FileQuerySource reads one query per line from a file.
type FileQuerySource struct {
	cfg    FileQuerySourceConfig
	logger *slog.Logger
	stdin  io.Reader
}

// NewFileQuerySource creates a new FileQuerySource instance.
func NewFileQuerySource(logger *slog.Logger, cfg FileQuerySourceConfig) (*FileQuerySource, error) {
	if cfg.Path == "" {
		return nil, errors.New("file path is required")
	}
	if cfg.Path == "-" && cfg.Follow {
		return nil, errors.New("standard input cannot be followed")
	}

	return &FileQuerySource{cfg: cfg, logger: logger, stdin: os.Stdin}, nil
}

func (f *FileQuerySource) Name() string {
	return f.cfg.Name
}

func (f *FileQuerySource) ProcessorNames() []string {
	return f.cfg.ProcessorNames
}

func (f *FileQuerySource) Provide(ctx context.Context, out chan<- entity.QueryRecord) error {
	if f.cfg.Path == "-" {
		lr := &lineReader{reader: bufio.NewReader(f.stdin)}
		return lr.drain(ctx, out, f.cfg.Name, true)
	}

	file, err := os.Open(f.cfg.Path)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer file.Close()

	lr := &lineReader{reader: bufio.NewReader(file)}

	if !f.cfg.Follow {
		return lr.drain(ctx, out, f.cfg.Name, true)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(f.cfg.Path); err != nil {
		return fmt.Errorf("cannot add file to watcher: %w", err)
	}

	// Whatever is already in the file counts too.
	if err := lr.drain(ctx, out, f.cfg.Name, false); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				f.logger.Debug("fsnotify watcher channel is closed.")
				return nil
			}
			if !event.Has(fsnotify.Write) {
				// Files replaced by a rename (as some editors save) keep the old
				// inode open here; only appends are picked up.
				f.logger.Debug("received unhandled event from fsnotify.", "event", event.String())
				continue
			}

			if err := lr.drain(ctx, out, f.cfg.Name, false); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// lineReader splits a growing file into lines. A trailing line without a
// newline is held back until it is completed, unless the read is final.
type lineReader struct {
	reader  *bufio.Reader
	pending string
	lineNo  int
}

func (lr *lineReader) drain(ctx context.Context, out chan<- entity.QueryRecord, sourceName string, final bool) error {
	for {
		chunk, err := lr.reader.ReadString('\n')
		lr.pending += chunk

		if errors.Is(err, io.EOF) {
			if final && lr.pending != "" {
				lr.lineNo++
				if isQueryLine(lr.pending) {
					if err := emit(ctx, out, sourceName, lr.lineNo, lr.pending); err != nil {
						return err
					}
				}
				lr.pending = ""
			}
			return nil
		}
		if err != nil {
			return err
		}

		lr.lineNo++
		line := lr.pending
		lr.pending = ""
		if !isQueryLine(line) {
			continue
		}
		if err := emit(ctx, out, sourceName, lr.lineNo, line); err != nil {
			return err
		}
	}
}
