// Package engine fans batches out over a worker pool. Each batch's
// attempt loop stays strictly sequential inside its task; only the
// glossary path is shared between workers, behind its own gate.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oukeidos/tlqc/internal/document"
	"github.com/oukeidos/tlqc/internal/logger"
	"github.com/oukeidos/tlqc/internal/task"
)

var defaultQPS = 3
var defaultRampUp = 2 * time.Second

// tableSuppressThreshold is the worker count above which per-line log
// tables are suppressed to keep console output readable.
const tableSuppressThreshold = 32

// Usage aggregates the dispositions of one run.
type Usage struct {
	AcceptedCount int
	InputTokens   int
	OutputTokens  int
}

// Engine processes batches concurrently with shared task dependencies.
type Engine struct {
	deps        task.Deps
	concurrency int
	qps         int

	usageMu sync.Mutex
	usage   Usage
}

// New creates an Engine. concurrency must be at least 1.
func New(deps task.Deps, concurrency int) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	deps.SuppressTable = deps.SuppressTable || concurrency > tableSuppressThreshold
	return &Engine{
		deps:        deps,
		concurrency: concurrency,
		qps:         defaultQPS,
	}
}

// Run processes all batches for one round and returns the aggregated
// usage. Context cancellation stops pulling new batches; in-flight
// batches finish their current attempt.
func (e *Engine) Run(ctx context.Context, batches []*document.Batch, round int) Usage {
	session := uuid.NewString()
	logger.Info("Starting translation round", "session", session, "round", round,
		"batches", len(batches), "workers", e.concurrency)

	rateCh, stopRate := newRateLimiter(e.qps)
	defer stopRate()

	jobs := make(chan *document.Batch, len(batches))
	for _, b := range batches {
		jobs <- b
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < e.concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			if delay := rampDelay(worker, e.concurrency, defaultRampUp); delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			for batch := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if rateCh != nil {
					select {
					case <-ctx.Done():
						return
					case <-rateCh:
					}
				}
				disp := task.New(e.deps, batch).Run(ctx, round)
				e.usageMu.Lock()
				e.usage.AcceptedCount += disp.AcceptedCount
				e.usage.InputTokens += disp.InputTokens
				e.usage.OutputTokens += disp.OutputTokens
				e.usageMu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	if ctx.Err() != nil {
		logger.Warn("Round canceled", "session", session, "round", round)
	}
	return e.GetUsage()
}

// GetUsage returns the usage accumulated so far.
func (e *Engine) GetUsage() Usage {
	e.usageMu.Lock()
	defer e.usageMu.Unlock()
	return e.usage
}

func newRateLimiter(qps int) (<-chan time.Time, func()) {
	if qps <= 0 {
		return nil, func() {}
	}
	ticker := time.NewTicker(time.Second / time.Duration(qps))
	return ticker.C, ticker.Stop
}

func rampDelay(worker, concurrency int, ramp time.Duration) time.Duration {
	if ramp <= 0 || concurrency <= 1 {
		return 0
	}
	return time.Duration(int64(ramp) * int64(worker) / int64(concurrency-1))
}
