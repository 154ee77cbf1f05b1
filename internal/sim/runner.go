package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/DeckTuner/internal/condition"
)

// Runner executes the configured number of trials across a worker pool.
//
// Trials are embarrassingly parallel: each worker owns its RNG, evaluator,
// scratch buffers, and a private aggregate, merged only after the worker
// drains its batches. Batch seeds are derived up front from the master seed,
// so results are identical regardless of worker count or scheduling.
type Runner struct {
	Deck   *CompiledDeck
	Engine *condition.Engine
	Params Params

	// Mulligan and Bottom default to LandCountPolicy and RolePriorityBottom
	// built from Params when nil.
	Mulligan MulliganPolicy
	Bottom   BottomPolicy

	// Progress, when set, is called periodically with completed and
	// requested trial counts.
	Progress func(done, total int)

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

type batch struct {
	seed  int64
	count int
}

// Run executes the simulation. Cancelling ctx stops dispatching new batches
// promptly; the trials already completed still finalize into a valid result
// flagged as partial. Cancellation is not an error.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	p := r.Params
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation parameters: %w", err)
	}
	p = p.normalized()

	keep := r.Mulligan
	if keep == nil {
		keep = LandCountPolicy{MinLands: p.MinLands, MaxLands: p.MaxLands}
	}
	bottom := r.Bottom
	if bottom == nil {
		bottom = RolePriorityBottom{MinLands: p.MinLands}
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Pre-derive one seed per batch from the master seed. The mapping from
	// batch index to seed is fixed before any worker starts.
	numBatches := (p.Iterations + p.BatchSize - 1) / p.BatchSize
	master := rand.New(rand.NewSource(seed))
	batches := make([]batch, numBatches)
	left := p.Iterations
	for i := range batches {
		count := p.BatchSize
		if count > left {
			count = left
		}
		left -= count
		batches[i] = batch{seed: master.Int63(), count: count}
	}

	workers := p.Workers
	if workers > numBatches {
		workers = numBatches
	}

	logger.Debug("starting simulation",
		"deck", r.Deck.Name,
		"iterations", p.Iterations,
		"workers", workers,
		"seed", seed,
	)

	work := make(chan batch)
	aggregates := make(chan *Aggregate, workers)
	var done atomic.Int64

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg := NewAggregate(r.Engine.Len(), p.MaxTurn, p.MaxMulligans)
			state := newTrialState(r.Deck, r.Engine, p, keep, bottom)
			for b := range work {
				rng := rand.New(rand.NewSource(b.seed))
				for i := 0; i < b.count; i++ {
					agg.Fold(state.run(rng))
				}
				done.Add(int64(b.count))
			}
			aggregates <- agg
		}()
	}

	// Progress reporting is throttled so tight runs don't spam the caller.
	progressCtx, stopProgress := context.WithCancel(context.Background())
	defer stopProgress()
	progressDone := make(chan struct{})
	if r.Progress != nil {
		go func() {
			defer close(progressDone)
			limiter := rate.NewLimiter(rate.Every(500*time.Millisecond), 1)
			for {
				if err := limiter.Wait(progressCtx); err != nil {
					return
				}
				r.Progress(int(done.Load()), p.Iterations)
			}
		}()
	} else {
		close(progressDone)
	}

	// Dispatch until the batches run out or the context is cancelled.
	cancelled := false
dispatch:
	for _, b := range batches {
		select {
		case work <- b:
		case <-ctx.Done():
			cancelled = true
			break dispatch
		}
	}
	close(work)
	wg.Wait()
	stopProgress()
	<-progressDone
	close(aggregates)

	total := NewAggregate(r.Engine.Len(), p.MaxTurn, p.MaxMulligans)
	for agg := range aggregates {
		total.Merge(agg)
	}

	result := total.Finalize(r.Engine, p.Iterations)
	result.DeckName = r.Deck.Name
	result.Seed = seed

	if cancelled {
		logger.Info("simulation cancelled",
			"completed", result.Trials,
			"requested", p.Iterations,
		)
	}
	if r.Progress != nil {
		r.Progress(result.Trials, p.Iterations)
	}
	return result, nil
}
