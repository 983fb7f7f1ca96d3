package engine

import (
	"context"

	"github.com/thisisjab/jitsoql/entity"
)

// QuerySource is an interface that defines the contract for query sources (providers).
// Provide returns once the source is exhausted or ctx is cancelled.
type QuerySource interface {
	Name() string
	Provide(ctx context.Context, out chan<- entity.QueryRecord) error
	ProcessorNames() []string
}
