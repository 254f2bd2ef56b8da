package conversion

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"
)

// Pool runs conversion tasks on a fixed set of workers. Tasks flow to the
// workers over a channel and each worker sends one Result per task to a
// single collector, so no worker touches shared state.
type Pool struct {
	workers    int
	extractor  Extractor
	normalizer Normalizer
	logger     *slog.Logger
	observer   Observer
}

// NewPool creates a pool of exactly ClampWorkers(workers) workers.
func NewPool(
	workers int,
	extractor Extractor,
	normalizer Normalizer,
	logger *slog.Logger,
	observer Observer,
) *Pool {
	if observer == nil {
		observer = NopObserver{}
	}

	return &Pool{
		workers:    ClampWorkers(workers),
		extractor:  extractor,
		normalizer: normalizer,
		logger:     logger,
		observer:   observer,
	}
}

// Workers returns the number of workers the pool runs.
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes every task and returns the collected outcome. Task failures
// are contained in Outcome.Failures; the only error Run returns is the
// context's, when it is cancelled before all tasks were dispatched.
func (p *Pool) Run(ctx context.Context, tasks []Task) (Outcome, error) {
	taskCh := make(chan Task)
	resultCh := make(chan Result)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(taskCh)
		for _, t := range tasks {
			select {
			case taskCh <- t:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for id := range p.workers {
		g.Go(func() error {
			for t := range taskCh {
				resultCh <- p.execute(id, t)
			}
			return nil
		})
	}

	var runErr error
	go func() {
		runErr = g.Wait()
		close(resultCh)
	}()

	outcome := Outcome{Pages: make(ResultSet, len(tasks))}
	for r := range resultCh {
		if r.Err != nil {
			outcome.Failures = append(outcome.Failures, Failure{Member: r.Member, Err: r.Err})
		} else {
			outcome.Pages[r.Member] = r.Path
		}
		p.observer.TaskDone(r.Member, r.Err)
	}

	return outcome, runErr
}

func (p *Pool) execute(worker int, t Task) (r Result) {
	r.Member = t.Member.Name

	defer func() {
		if v := recover(); v != nil {
			r.Path = ""
			r.Err = fmt.Errorf("%w: %v", ErrTaskPanic, v)
		}

		if r.Err != nil {
			p.logger.Warn(
				"conversion task failed",
				"member", t.Member.Name,
				"worker", worker,
				"error", r.Err,
			)
			return
		}

		p.logger.Debug("conversion task complete", "member", t.Member.Name, "worker", worker)
	}()

	if err := os.MkdirAll(t.Dir, 0o700); err != nil {
		r.Err = fmt.Errorf("create task dir: %w", err)
		return r
	}

	src, err := p.extractor.Extract(t.Member.Name, t.Dir)
	if err != nil {
		r.Err = fmt.Errorf("extract: %w", err)
		return r
	}

	page, err := p.normalizer.Normalize(src, t.Output, t.DPI)

	// the original is no longer needed once the page exists (or failed)
	if rmErr := os.Remove(src); rmErr != nil && !os.IsNotExist(rmErr) {
		p.logger.Debug("remove extracted member failed", "member", t.Member.Name, "error", rmErr)
	}

	if err != nil {
		r.Err = fmt.Errorf("normalize: %w", err)
		return r
	}

	r.Path = page
	return r
}
