// Package consumer runs poll cycles on a schedule and hands each batch of
// polled files to a handler.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joe/dirpoll/internal/logging"
	"github.com/joe/dirpoll/internal/metrics"
	"github.com/joe/dirpoll/internal/poller"
)

// ErrLockHeld is returned when another process holds the source lock.
var ErrLockHeld = errors.New("poll lock is held by another process")

// DefaultInterval is the delay between scheduled poll cycles.
const DefaultInterval = 500 * time.Millisecond

// Options configures a Consumer.
type Options struct {
	// SortBy orders each batch after traversal.
	SortBy  poller.SortBy
	Reverse bool

	// MaxMessagesPerPoll caps a batch. Zero means no cap.
	MaxMessagesPerPoll int

	// EagerLimit stops traversal once the cap is reached. Without it the whole
	// tree is listed, then the sorted batch is truncated.
	EagerLimit bool

	// Interval between cycles in Run.
	Interval time.Duration

	// LockFile, if set, is locked for the duration of each cycle so only one
	// process polls the source at a time.
	LockFile string

	// OnReady runs once, after the first directory listing returned.
	OnReady func()
}

// Batch is the outcome of one poll cycle.
type Batch struct {
	ID        string
	StartedAt time.Time
	Files     []*poller.RemoteFile

	// Exhausted is true when the cap stopped traversal early.
	Exhausted bool

	// Dropped counts files cut by truncation. They are polled again next cycle.
	Dropped int

	Duration time.Duration
}

// Handler processes one non-empty batch.
type Handler func(ctx context.Context, batch *Batch) error

// Consumer runs poll cycles against one poller. Cycles never overlap.
type Consumer struct {
	poller     *poller.Poller
	opts       Options
	readiness  *poller.ReadyLatch
	idempotent *poller.IdempotentFilter
	lock       *flock.Flock
	clock      Clock
	logger     *zap.Logger
	mu         sync.Mutex
}

// New creates a Consumer. It configures the poller's capacity and readiness.
func New(p *poller.Poller, opts Options) *Consumer {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	c := &Consumer{
		poller:    p,
		opts:      opts,
		readiness: poller.NewReadyLatch(opts.OnReady),
		clock:     RealClock{},
		logger:    zap.NewNop(),
	}

	if opts.LockFile != "" {
		c.lock = flock.New(opts.LockFile)
	}

	if opts.MaxMessagesPerPoll > 0 {
		p.SetCapacity(poller.MaxMessages{Max: opts.MaxMessagesPerPoll, Eager: opts.EagerLimit})
	}

	p.SetReadiness(c.readiness)

	return c
}

// SetIdempotent registers the idempotent filter used by the poller so files
// dropped from a batch can be forgotten.
func (c *Consumer) SetIdempotent(filter *poller.IdempotentFilter) {
	c.idempotent = filter
}

// SetClock replaces the clock.
func (c *Consumer) SetClock(clock Clock) {
	c.clock = clock
}

// SetLogger sets the logger.
func (c *Consumer) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c.logger = logger
}

// Ready reports whether a listing has returned at least once.
func (c *Consumer) Ready() bool {
	return c.readiness.Ready()
}

// PollOnce runs a single cycle. On a poll failure the partial batch is returned
// with the error.
func (c *Consumer) PollOnce(ctx context.Context) (*Batch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.clock.Now()
	batch := &Batch{ID: uuid.NewString(), StartedAt: start}
	ctx = c.cycleContext(ctx, batch.ID)
	logger := logging.WithContext(ctx)

	unlock, err := c.acquire()
	if err != nil {
		metrics.RecordPollCycle(metrics.StatusSkipped, 0, 0)
		return nil, err
	}
	defer unlock()

	result, err := c.poller.Poll(ctx)
	batch.Duration = result.Duration

	if err != nil {
		batch.Files = result.Files
		for _, file := range batch.Files {
			c.forget(file)
		}

		metrics.RecordPollCycle(metrics.StatusError, len(batch.Files), batch.Duration)

		return batch, fmt.Errorf("poll cycle %s failed: %w", batch.ID, err)
	}

	files := result.Files
	poller.SortFiles(files, c.opts.SortBy, c.opts.Reverse)

	if limit := c.opts.MaxMessagesPerPoll; limit > 0 && len(files) > limit {
		for _, dropped := range files[limit:] {
			c.forget(dropped)
		}

		batch.Dropped = len(files) - limit
		files = files[:limit]
	}

	batch.Files = files
	batch.Exhausted = result.Exhausted

	status := metrics.StatusComplete
	if batch.Exhausted {
		status = metrics.StatusExhausted
	}

	metrics.RecordPollCycle(status, len(files), batch.Duration)

	logger.Debug("poll cycle complete",
		zap.Int("files", len(files)),
		zap.Int("dropped", batch.Dropped),
		zap.Bool("exhausted", batch.Exhausted),
		zap.Duration("duration", batch.Duration))

	return batch, nil
}

// Run polls immediately and then on every tick until ctx is done. Non-empty
// batches go to handler. Failed cycles are logged and retried on the next tick;
// files of a batch the handler rejects are forgotten so they are polled again.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	ticker := c.clock.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		c.cycle(ctx, handler)

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ticker.C():
			if !ok {
				return nil
			}
		}
	}
}

func (c *Consumer) cycle(ctx context.Context, handler Handler) {
	if ctx.Err() != nil {
		return
	}

	batch, err := c.PollOnce(ctx)

	switch {
	case errors.Is(err, ErrLockHeld):
		c.logger.Debug("skipping poll cycle, lock held elsewhere", zap.String("lock", c.opts.LockFile))
		return
	case err != nil:
		if ctx.Err() == nil {
			c.logger.Error("poll cycle failed", zap.Error(err))
		}

		return
	case len(batch.Files) == 0:
		return
	}

	if err := handler(c.cycleContext(ctx, batch.ID), batch); err != nil {
		c.logger.Warn("batch handler failed, files will be polled again",
			zap.String("cycle_id", batch.ID), zap.Error(err))

		for _, file := range batch.Files {
			c.forget(file)
		}
	}
}

// cycleContext carries the consumer logger tagged with the cycle id.
func (c *Consumer) cycleContext(ctx context.Context, id string) context.Context {
	return logging.WithCycleID(logging.WithLogger(ctx, c.logger), id)
}

// acquire takes the cross-process lock if one is configured.
func (c *Consumer) acquire() (func(), error) {
	if c.lock == nil {
		return func() {}, nil
	}

	locked, err := c.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire poll lock %s: %w", c.opts.LockFile, err)
	}

	if !locked {
		return nil, ErrLockHeld
	}

	return func() {
		_ = c.lock.Unlock()
	}, nil
}

func (c *Consumer) forget(file *poller.RemoteFile) {
	if c.idempotent != nil {
		c.idempotent.Forget(file)
	}
}
