// Package runner coordinates the expansion of many root keywords with
// a fixed-size worker pool, preserving input order in the aggregated
// results.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/internetyev/paafetch/pkg/logger"
	"github.com/internetyev/paafetch/pkg/paa"
)

// Checkpoint is the subset of checkpoint state the runner needs.
// Implementations must be safe for concurrent use.
type Checkpoint interface {
	Get(keyword string) (paa.Result, bool)
	MarkDone(res paa.Result) error
}

// job pairs a root keyword with its position in the input list.
type job struct {
	index   int
	keyword string
}

// KeywordResult is one finished root with timing attached.
type KeywordResult struct {
	Result   paa.Result
	Duration time.Duration
	Resumed  bool
}

// Runner fans root keywords out over a pool of workers. Each worker
// drives its own traversal; the shared Expander holds no per-root
// state, so they never interfere.
type Runner struct {
	expander   *paa.Expander
	numWorkers int
	checkpoint Checkpoint
	onDone     func(KeywordResult)
	logger     logger.Logger
}

// New creates a runner. Workers below 1 are clamped to 1.
func New(expander *paa.Expander, numWorkers int, log logger.Logger) *Runner {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Runner{
		expander:   expander,
		numWorkers: numWorkers,
		logger:     log,
	}
}

// SetCheckpoint installs run-resume state. Roots already present in the
// checkpoint are returned from it without spending any requests.
func (r *Runner) SetCheckpoint(cp Checkpoint) {
	r.checkpoint = cp
}

// SetOnDone installs a callback invoked once per finished root, from
// worker goroutines.
func (r *Runner) SetOnDone(fn func(KeywordResult)) {
	r.onDone = fn
}

// Run expands every keyword and returns results in input order. Node
// and root failures are carried inside each Result; Run itself only
// stops early when ctx is cancelled, returning the results gathered so
// far (unfinished roots appear as zero-request empty results).
func (r *Runner) Run(ctx context.Context, keywords []string) []KeywordResult {
	r.logger.InfoWithFields("starting expansion run", map[string]interface{}{
		"keywords": len(keywords),
		"workers":  r.numWorkers,
	})

	jobs := make(chan job)
	results := make([]KeywordResult, len(keywords))

	var wg sync.WaitGroup
	for i := 0; i < r.numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := range jobs {
				results[j.index] = r.process(ctx, j, workerID)
			}
		}(i)
	}

dispatch:
	for i, kw := range keywords {
		select {
		case jobs <- job{index: i, keyword: kw}:
		case <-ctx.Done():
			r.logger.Warn("run cancelled, finishing in-flight keywords")
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	// Unassigned slots (cancelled before dispatch) still carry their keyword.
	for i, kw := range keywords {
		if results[i].Result.Keyword == "" {
			results[i].Result = paa.Result{Keyword: kw, Questions: []string{}}
		}
	}

	return results
}

func (r *Runner) process(ctx context.Context, j job, workerID int) KeywordResult {
	start := time.Now()

	if r.checkpoint != nil {
		if res, ok := r.checkpoint.Get(j.keyword); ok {
			r.logger.DebugWithFields("keyword already completed, skipping", map[string]interface{}{
				"worker_id": workerID,
				"keyword":   j.keyword,
			})
			out := KeywordResult{Result: res, Duration: time.Since(start), Resumed: true}
			if r.onDone != nil {
				r.onDone(out)
			}
			return out
		}
	}

	r.logger.DebugWithFields("worker expanding keyword", map[string]interface{}{
		"worker_id": workerID,
		"keyword":   j.keyword,
	})

	res := r.expander.Expand(ctx, j.keyword)
	out := KeywordResult{Result: res, Duration: time.Since(start)}

	if r.checkpoint != nil && ctx.Err() == nil {
		if err := r.checkpoint.MarkDone(res); err != nil {
			r.logger.WarnWithFields("failed to persist checkpoint", map[string]interface{}{
				"keyword": j.keyword,
				"error":   err.Error(),
			})
		}
	}

	if r.onDone != nil {
		r.onDone(out)
	}
	return out
}
