package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/thisisjab/jitsoql/entity"
)

// Storage represents a storage interface for the engine.
type Storage interface {
	StoreReports(ctx context.Context, records ...entity.QueryRecord) error
}

// storageManager buffers processed records and hands them to storage in batches.
// Note that buffering and scheduled flushing should never both be disabled.
type storageManager struct {
	storage Storage
	logger  *slog.Logger
	buffer  []entity.QueryRecord
	mu      sync.Mutex
	wg      sync.WaitGroup

	// bufferMaxSize is the number of records that triggers an immediate flush.
	// Zero disables size based flushing.
	bufferMaxSize uint

	// flushInterval is the period of scheduled flushes. Zero disables them.
	flushInterval time.Duration
}

func newStorageManager(logger *slog.Logger, storage Storage, bufferMaxSize uint, flushInterval time.Duration) *storageManager {
	return &storageManager{
		logger:        logger,
		storage:       storage,
		bufferMaxSize: bufferMaxSize,
		buffer:        make([]entity.QueryRecord, 0, bufferMaxSize),
		flushInterval: flushInterval,
	}
}

// run flushes on every tick until ctx is done, then flushes what is left and
// waits for in-flight writes.
func (sm *storageManager) run(ctx context.Context) {
	// A nil channel blocks forever, which disables the tick case.
	var tick <-chan time.Time
	if sm.flushInterval > 0 {
		ticker := time.NewTicker(sm.flushInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			sm.flush(ctx)
			sm.wg.Wait()
			return
		case <-tick:
			sm.flush(ctx)
		}
	}
}

func (sm *storageManager) flush(ctx context.Context) {
	var toFlush []entity.QueryRecord

	sm.mu.Lock()
	if len(sm.buffer) > 0 {
		toFlush = sm.buffer
		sm.buffer = make([]entity.QueryRecord, 0, sm.bufferMaxSize)
	}
	sm.mu.Unlock()

	if len(toFlush) > 0 {
		sm.store(ctx, toFlush)
	}
}

// store writes a batch in the background. Once taken off the buffer a batch
// must reach storage, so the write does not inherit ctx's cancellation.
func (sm *storageManager) store(ctx context.Context, toFlush []entity.QueryRecord) {
	ctx = context.WithoutCancel(ctx)
	sm.wg.Go(func() {
		if err := sm.storage.StoreReports(ctx, toFlush...); err != nil {
			sm.logger.Error("failed to flush query reports", "error", err)
			return
		}

		sm.logger.Debug("flushed query reports successfully", "count", len(toFlush))
	})
}

func (sm *storageManager) add(ctx context.Context, records ...entity.QueryRecord) {
	if len(records) == 0 {
		return
	}

	var toFlush []entity.QueryRecord

	sm.mu.Lock()
	sm.buffer = append(sm.buffer, records...)

	if sm.bufferMaxSize > 0 && uint(len(sm.buffer)) >= sm.bufferMaxSize {
		toFlush = sm.buffer
		sm.buffer = make([]entity.QueryRecord, 0, sm.bufferMaxSize)
	}
	sm.mu.Unlock()

	if toFlush != nil {
		sm.store(ctx, toFlush)
	}
}
