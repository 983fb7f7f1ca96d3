package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thisisjab/jitsoql/entity"
)

type Config struct {
	Sources               map[string]QuerySource
	Processors            map[string]QueryProcessor
	Storage               Storage
	StorageFlushInterval  time.Duration
	ReportsBufferMaxSize  uint
	RecordsBufferMaxSize  uint
	ProcessorWorkersCount uint
}

// Stats counts what an engine run produced.
type Stats struct {
	Processed uint64
	Invalid   uint64
}

// Engine orchestrates query sources, processors and report storage.
type Engine struct {
	cfg            Config
	logger         *slog.Logger
	storageManager *storageManager

	processed atomic.Uint64
	invalid   atomic.Uint64
}

func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:            cfg,
		logger:         logger,
		storageManager: newStorageManager(logger, cfg.Storage, cfg.ReportsBufferMaxSize, cfg.StorageFlushInterval),
	}, nil
}

func (c Config) validate() error {
	if len(c.Sources) == 0 {
		return errors.New("no query sources are configured")
	}

	for name, s := range c.Sources {
		for _, pName := range s.ProcessorNames() {
			if _, ok := c.Processors[pName]; !ok {
				return fmt.Errorf("source `%s` uses unknown processor `%s`", name, pName)
			}
		}
	}

	if c.Storage == nil {
		return errors.New("no report storage is configured")
	}

	if c.ReportsBufferMaxSize == 0 && c.StorageFlushInterval == 0 {
		return errors.New("buffer max size and storage flush interval cannot both be zero")
	}

	if c.RecordsBufferMaxSize == 0 {
		return errors.New("records buffer max size cannot be zero")
	}

	if c.ProcessorWorkersCount == 0 {
		return errors.New("processor workers cannot be zero")
	}

	return nil
}

// Run reads every source until it is exhausted or ctx is cancelled. All
// processed records are flushed to storage before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	records := e.consumeQueries(ctx)

	var wg sync.WaitGroup
	processed := make(chan entity.QueryRecord, e.cfg.RecordsBufferMaxSize)

	pm := newProcessorManager(e.logger, e.cfg.Sources, e.cfg.Processors, e.cfg.ProcessorWorkersCount)

	storageCtx, stopStorage := context.WithCancel(context.WithoutCancel(ctx))
	defer stopStorage()

	wg.Go(func() { e.storageManager.run(storageCtx) })
	wg.Go(func() {
		pm.run(ctx, records, processed)
		close(processed)
	})

	for p := range processed {
		e.processed.Add(1)
		if p.Status == entity.QueryStatusInvalid {
			e.invalid.Add(1)
		}
		e.storageManager.add(storageCtx, p)
	}

	stopStorage()
	wg.Wait()

	stats := e.Stats()
	e.logger.Info("engine finished.", "processed", stats.Processed, "invalid", stats.Invalid)

	return ctx.Err()
}

// Stats reports the counters of the current or last run.
func (e *Engine) Stats() Stats {
	return Stats{Processed: e.processed.Load(), Invalid: e.invalid.Load()}
}

func (e *Engine) consumeQueries(ctx context.Context) <-chan entity.QueryRecord {
	records := make(chan entity.QueryRecord, e.cfg.RecordsBufferMaxSize)
	e.logger.Info("created incoming queries channel.", "size", e.cfg.RecordsBufferMaxSize)

	var sourceWg sync.WaitGroup

	for n, s := range e.cfg.Sources {
		sourceWg.Go(func() {
			err := s.Provide(ctx, records)
			if err != nil && !errors.Is(err, context.Canceled) {
				e.logger.Error("query source failed.", "name", n, "error", err)
			}
		})
	}

	go func() {
		sourceWg.Wait()
		close(records)
	}()

	return records
}
