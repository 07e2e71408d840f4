package projection

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	applog "github.com/iamcore/iamcore/pkg/domain"
	"github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// Supervisor runs one goroutine per registered projection per instance,
// bounded by a weighted semaphore so a tenant with many projections can't
// starve the process of goroutines. Each worker polls its own cursor in a
// tight batch loop; workers never share state, so a slow or stuck projection
// never blocks another.
type Supervisor struct {
	store       domain.EventStore
	cursors     CursorStore
	logger      applog.Logger
	sem         *semaphore.Weighted
	batchSize   int
	pollBackoff time.Duration
}

// NewSupervisor creates a projection supervisor. maxConcurrent bounds how
// many projection workers may be actively processing a batch at once, across
// every instance; batchSize bounds how many events one Apply call receives;
// pollBackoff is the idle delay between a worker catching up to the event
// store's tail and polling again.
func NewSupervisor(store domain.EventStore, cursors CursorStore, logger applog.Logger, maxConcurrent int64, batchSize int, pollBackoff time.Duration) *Supervisor {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if batchSize < 1 {
		batchSize = 100
	}
	return &Supervisor{
		store:       store,
		cursors:     cursors,
		logger:      logger,
		sem:         semaphore.NewWeighted(maxConcurrent),
		batchSize:   batchSize,
		pollBackoff: pollBackoff,
	}
}

// Run starts one worker per (handler, instanceID) pair and blocks until ctx
// is canceled or a worker returns a non-context error.
func (s *Supervisor) Run(ctx context.Context, instanceIDs []string, handlers []Handler) error {
	g, gCtx := errgroup.WithContext(ctx)

	for _, h := range handlers {
		h := h
		for _, instanceID := range instanceIDs {
			instanceID := instanceID
			g.Go(func() error {
				return s.runWorker(gCtx, h, instanceID)
			})
		}
	}

	return g.Wait()
}

func (s *Supervisor) runWorker(ctx context.Context, h Handler, instanceID string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil // ctx canceled
		}
		caughtUp, err := s.processBatch(ctx, h, instanceID)
		s.sem.Release(1)

		if err != nil {
			s.logger.Error("projection batch failed, retrying from last cursor",
				"projection", h.Name(), "instance", instanceID, "error", err)
		}

		if caughtUp || err != nil {
			select {
			case <-time.After(s.pollBackoff):
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// processBatch loads one batch past the projection's cursor, applies it, and
// advances the cursor only on success. It reports caughtUp=true when the
// batch was smaller than batchSize, meaning the worker reached the tail of
// the log and should back off before polling again.
func (s *Supervisor) processBatch(ctx context.Context, h Handler, instanceID string) (caughtUp bool, err error) {
	cursor, err := s.cursors.Load(ctx, h.Name(), instanceID)
	if err != nil {
		return false, err
	}

	filter := domain.Filter{
		InstanceID:   instanceID,
		EventTypes:   h.EventTypes(),
		FromPosition: &cursor,
		Limit:        s.batchSize,
	}

	events, err := s.store.Query(ctx, filter)
	if err != nil {
		return false, err
	}
	if len(events) == 0 {
		return true, nil
	}

	if err := h.Apply(ctx, events); err != nil {
		return false, err
	}

	last := events[len(events)-1].Position
	if err := s.cursors.Advance(ctx, h.Name(), instanceID, last); err != nil {
		return false, err
	}

	return len(events) < s.batchSize, nil
}
