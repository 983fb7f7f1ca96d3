package source

import (
	"context"
	"strings"
	"time"

	"github.com/thisisjab/jitsoql/entity"
)

// isQueryLine reports whether a line holds a query. Blank lines and `--`
// comments are skipped.
func isQueryLine(line string) bool {
	line = strings.TrimSpace(line)
	return line != "" && !strings.HasPrefix(line, "--")
}

// emit sends one record unless ctx is cancelled first.
func emit(ctx context.Context, out chan<- entity.QueryRecord, sourceName string, lineNo int, line string) error {
	r := entity.QueryRecord{
		Source:     sourceName,
		Line:       lineNo,
		Text:       strings.TrimSpace(line),
		ReceivedAt: time.Now(),
	}

	select {
	case out <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
