package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/thisisjab/jitsoql/entity"
)

// QueryProcessor is an interface that defines the contract for query processors.
type QueryProcessor interface {
	Process(record entity.QueryRecord) (entity.QueryRecord, error)
}

type processorManager struct {
	sources      map[string]QuerySource
	processors   map[string]QueryProcessor
	logger       *slog.Logger
	workersCount uint
	wg           sync.WaitGroup
}

func newProcessorManager(logger *slog.Logger, sources map[string]QuerySource, processors map[string]QueryProcessor, workersCount uint) *processorManager {
	return &processorManager{
		sources:      sources,
		processors:   processors,
		logger:       logger,
		workersCount: workersCount,
	}
}

// run fans records out to the workers and returns once all of them stopped.
func (pm *processorManager) run(ctx context.Context, records <-chan entity.QueryRecord, results chan<- entity.QueryRecord) {
	spawnWorker := func(workerId uint) {
		for {
			select {
			case <-ctx.Done():
				return
			case j, ok := <-records:
				if !ok {
					return
				}

				processed := pm.processRecord(j)
				processed.ID = uuid.New()

				pm.logger.Debug("processed query", "worker_id", workerId, "query_id", processed.ID, "status", processed.Status)

				select {
				case results <- processed:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := range pm.workersCount {
		pm.wg.Go(func() {
			spawnWorker(i)
		})
	}

	pm.wg.Wait()
}

func (pm *processorManager) processRecord(record entity.QueryRecord) entity.QueryRecord {
	src, ok := pm.sources[record.Source]
	if !ok {
		pm.logger.Error("source not found", "source", record.Source)
		return record
	}

	for _, pName := range src.ProcessorNames() {
		p := pm.processors[pName]
		if p == nil {
			pm.logger.Warn("processor not found", "processor", pName)
			continue
		}

		processed, err := p.Process(record)
		if err != nil {
			pm.logger.Error("failed to process query", "processor", pName, "source", record.Source, "line", record.Line, "error", err)
			continue
		}

		record = processed
	}

	return record
}
