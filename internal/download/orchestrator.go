package download

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"showgrab/internal/catalog"
	"showgrab/internal/logging"
	"showgrab/internal/postprocess"
	"showgrab/internal/services"
)

const (
	defaultConcurrency    = 3
	defaultStreamRetries  = 4
	defaultJobRetries     = 2
	defaultStreamBackoff  = 500 * time.Millisecond
	defaultJobBackoff     = 2 * time.Second
	defaultExpiryWarnSpan = 2 * time.Minute
)

// Options configures one orchestrator run.
type Options struct {
	OutputDir  string
	Template   string
	SeriesDirs bool

	SkipExisting bool
	Overwrite    bool
	Quality      string

	Concurrency   int
	JobRetries    int
	StreamRetries int
	ExpiryWarn    time.Duration

	SubtitleLanguages []string
	SubtitleFormat    string
	PostProcess       string

	DryRun bool
}

// Orchestrator fans resolved identifiers out to a fixed pool of job slots.
type Orchestrator struct {
	opts      Options
	client    *catalog.Client
	processor *postprocess.Processor
	logger    *slog.Logger

	jobBackoff    time.Duration
	streamBackoff time.Duration
}

// New constructs an orchestrator. Zero option values fall back to the
// package defaults; processor may be nil to disable post-processing.
func New(client *catalog.Client, processor *postprocess.Processor, opts Options, logger *slog.Logger) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.StreamRetries <= 0 {
		opts.StreamRetries = defaultStreamRetries
	}
	if opts.JobRetries <= 0 {
		opts.JobRetries = defaultJobRetries
	}
	if opts.ExpiryWarn <= 0 {
		opts.ExpiryWarn = defaultExpiryWarnSpan
	}
	return &Orchestrator{
		opts:          opts,
		client:        client,
		processor:     processor,
		logger:        logging.NewComponentLogger(logger, "download"),
		jobBackoff:    defaultJobBackoff,
		streamBackoff: defaultStreamBackoff,
	}
}

// Run executes one job per identifier under the configured concurrency
// limit and returns the aggregated summary in submission order.
//
// Cancelling ctx drains the pool: jobs already past admission finish on a
// detached context, identifiers still queued are recorded as not run.
func (o *Orchestrator) Run(ctx context.Context, ids []string) Summary {
	summary := Summary{
		Started: time.Now(),
		Results: make([]JobResult, len(ids)),
	}
	if len(ids) == 0 {
		summary.Finished = time.Now()
		return summary
	}

	o.logger.Info("starting run",
		logging.Int("jobs", len(ids)),
		logging.Int("concurrency", o.opts.Concurrency),
		logging.Bool("dry_run", o.opts.DryRun))

	// In-flight jobs survive cancellation; only admission observes ctx.
	workCtx := context.WithoutCancel(ctx)

	queue := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < o.opts.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range queue {
				if ctx.Err() != nil {
					summary.Results[idx] = JobResult{ID: ids[idx], Status: StatusNotRun}
					continue
				}
				summary.Results[idx] = o.runWithRetry(workCtx, ids[idx])
			}
		}()
	}

	for idx := range ids {
		queue <- idx
	}
	close(queue)
	wg.Wait()

	summary.Finished = time.Now()
	completed, skipped, failed := summary.Counts()
	o.logger.Info("run finished",
		logging.Int("completed", completed),
		logging.Int("skipped", skipped),
		logging.Int("failed", failed),
		logging.Duration("elapsed", summary.Finished.Sub(summary.Started)))
	return summary
}

// runWithRetry applies the whole-job retry policy: any pipeline error short
// of a definitive catalog answer is retried with doubling backoff.
func (o *Orchestrator) runWithRetry(ctx context.Context, id string) JobResult {
	backoff := o.jobBackoff
	var (
		result JobResult
		err    error
	)
	for attempt := 0; attempt <= o.opts.JobRetries; attempt++ {
		if attempt > 0 {
			o.logger.Warn("retrying job",
				logging.String(logging.FieldItemID, id),
				logging.Int("attempt", attempt+1),
				logging.Duration("backoff", backoff),
				logging.Error(err))
			time.Sleep(backoff)
			backoff *= 2
		}

		result, err = o.runJob(ctx, id)
		if err == nil {
			return result
		}
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrConfiguration) {
			break
		}
	}

	o.logger.Error("job failed",
		logging.String(logging.FieldItemID, id),
		logging.Error(err))
	result.Status = StatusError
	result.Err = err
	return result
}
