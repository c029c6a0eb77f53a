package sched

import (
	"context"
	"sync"

	"github.com/vk/gridcell/internal/ctxlog"
)

// DefaultInlineThreshold is the largest level evaluated on the calling
// goroutine; larger levels go to the pool. Dispatching a handful of cheap
// evaluations costs more than running them inline.
const DefaultInlineThreshold = 4

// Runner evaluates levels of cells in order. Within a level the evaluate
// callback may run concurrently on pool workers; the runner joins every
// task of a level before starting the next, so a cell always sees the
// committed values of its dependencies.
type Runner struct {
	pool            *Pool
	inlineThreshold int
}

// NewRunner wraps a pool. A non-positive inlineThreshold falls back to the
// default.
func NewRunner(pool *Pool, inlineThreshold int) *Runner {
	if inlineThreshold <= 0 {
		inlineThreshold = DefaultInlineThreshold
	}
	return &Runner{pool: pool, inlineThreshold: inlineThreshold}
}

// Run evaluates every level in sequence. The evaluate callback must confine
// itself to the given cell's own result slot; it must not touch shared
// graph structure.
func (r *Runner) Run(ctx context.Context, levels [][]string, evaluate func(id string)) {
	logger := ctxlog.FromContext(ctx)

	for i, level := range levels {
		if len(level) == 0 {
			continue
		}

		if len(level) <= r.inlineThreshold {
			for _, id := range level {
				evaluate(id)
			}
			logger.Debug("Level evaluated inline.", "level", i, "cells", len(level))
			continue
		}

		var wg sync.WaitGroup
		wg.Add(len(level))
		for _, id := range level {
			id := id
			r.pool.Submit(func() {
				defer wg.Done()
				evaluate(id)
			})
		}
		wg.Wait()
		logger.Debug("Level evaluated on worker pool.", "level", i, "cells", len(level))
	}
}
