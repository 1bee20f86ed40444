package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Processor runs the pipeline for one delivered asset id.
type Processor interface {
	Process(ctx context.Context, assetID string, attempt int) Result
}

type delivery struct {
	assetID string
	attempt int
}

// Dispatcher feeds asset ids to a fixed pool of workers. Delivery is
// at-least-once: duplicates for an asset that is already queued or in flight
// are dropped, so at most one worker ever mutates a given asset record.
type Dispatcher struct {
	proc    Processor
	logger  zerolog.Logger
	queue   chan delivery
	workers int

	mu     sync.Mutex
	active map[string]struct{}
}

// NewDispatcher constructs a Dispatcher with the given pool and queue sizes.
func NewDispatcher(proc Processor, workers, queueSize int, logger zerolog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < workers {
		queueSize = workers
	}
	return &Dispatcher{
		proc:    proc,
		logger:  logger,
		queue:   make(chan delivery, queueSize),
		workers: workers,
		active:  make(map[string]struct{}),
	}
}

// Submit enqueues a first-attempt processing request for the asset. It
// reports false when the asset is already queued or in flight, or when the
// queue is full (the poller will redeliver).
func (d *Dispatcher) Submit(assetID string) bool {
	return d.enqueue(delivery{assetID: assetID, attempt: 1})
}

// Run blocks processing deliveries until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case dl := <-d.queue:
					d.handle(ctx, dl)
				}
			}
		})
	}
	return g.Wait()
}

func (d *Dispatcher) handle(ctx context.Context, dl delivery) {
	jobsInFlight.Inc()
	result := d.proc.Process(ctx, dl.assetID, dl.attempt)
	jobsInFlight.Dec()
	d.release(dl.assetID)

	switch result.Outcome {
	case OutcomeRetry:
		d.schedule(dl.assetID, dl.attempt+1, result.RetryIn)
	case OutcomePermanent:
		if result.Err != nil {
			d.logger.Error().Err(result.Err).Str("asset_id", dl.assetID).Msg("dispatcher: job failed permanently")
		}
	}
}

// schedule redelivers the asset after the backoff delay.
func (d *Dispatcher) schedule(assetID string, attempt int, delay time.Duration) {
	d.logger.Info().
		Str("asset_id", assetID).
		Int("attempt", attempt).
		Dur("delay", delay).
		Msg("dispatcher: retry scheduled")
	time.AfterFunc(delay, func() {
		if !d.enqueue(delivery{assetID: assetID, attempt: attempt}) {
			d.logger.Warn().Str("asset_id", assetID).Msg("dispatcher: retry redelivery dropped")
		}
	})
}

func (d *Dispatcher) enqueue(dl delivery) bool {
	d.mu.Lock()
	if _, busy := d.active[dl.assetID]; busy {
		d.mu.Unlock()
		return false
	}
	d.active[dl.assetID] = struct{}{}
	d.mu.Unlock()

	select {
	case d.queue <- dl:
		return true
	default:
		d.release(dl.assetID)
		return false
	}
}

func (d *Dispatcher) release(assetID string) {
	d.mu.Lock()
	delete(d.active, assetID)
	d.mu.Unlock()
}
