package adapter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/allergozyme/internal/logging"
	"github.com/sethvargo/go-retry"
)

// Applier performs one op against the remote service.
type Applier interface {
	Apply(ctx context.Context, op models.PendingOp) error
}

// OutboxOptions tunes replay.
type OutboxOptions struct {
	// MaxAttempts is the number of tries per op, including the first.
	MaxAttempts int
	// Backoff is the base of the exponential delay between tries.
	Backoff time.Duration
	// Interval is how often the background worker drains when not woken.
	Interval time.Duration
}

// DrainResult counts what one drain pass did.
type DrainResult struct {
	Completed int
	Failed    int
}

// Outbox persists ops and replays them. The background worker started by
// Start drains on every Interval tick and whenever an op is enqueued.
type Outbox struct {
	repo    outbox.Repository
	applier Applier
	opts    OutboxOptions
	logger  logging.Logger

	drainMu sync.Mutex
	wake    chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewOutbox(repo outbox.Repository, applier Applier, opts OutboxOptions, logger logging.Logger) *Outbox {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	return &Outbox{
		repo:    repo,
		applier: applier,
		opts:    opts,
		logger:  logger.With("component", "outbox"),
		wake:    make(chan struct{}, 1),
	}
}

// Enqueue persists op as pending and wakes the worker.
func (o *Outbox) Enqueue(ctx context.Context, op models.PendingOp) error {
	if err := o.repo.Create(ctx, &op); err != nil {
		return err
	}
	select {
	case o.wake <- struct{}{}:
	default:
	}
	return nil
}

// permanent reports errors retrying cannot fix.
func permanent(err error) bool {
	return errors.Is(err, errNotSignedIn)
}

// Drain replays every pending op once, each with up to MaxAttempts tries.
// A cancelled ctx leaves the current op pending.
func (o *Outbox) Drain(ctx context.Context) (DrainResult, error) {
	o.drainMu.Lock()
	defer o.drainMu.Unlock()

	var res DrainResult
	ops, err := o.repo.ListPending(ctx, 0)
	if err != nil {
		return res, err
	}

	for _, op := range ops {
		attempts := 0
		b := retry.WithMaxRetries(uint64(o.opts.MaxAttempts-1), retry.NewExponential(o.opts.Backoff))
		err := retry.Do(ctx, b, func(ctx context.Context) error {
			attempts++
			err := o.applier.Apply(ctx, op)
			if err == nil || permanent(err) {
				return err
			}
			return retry.RetryableError(err)
		})
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		if err != nil {
			o.logger.Warn(ctx, "op failed", "op_id", op.ID, "op", op.Kind, "review_id", op.ReviewID, "attempts", attempts, "error", err)
			if merr := o.repo.MarkFailed(ctx, op.ID, attempts, err.Error()); merr != nil {
				return res, merr
			}
			res.Failed++
			continue
		}
		if err := o.repo.MarkCompleted(ctx, op.ID, attempts); err != nil {
			return res, err
		}
		res.Completed++
	}
	return res, nil
}

// Start runs the background worker until Close.
func (o *Outbox) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.done = make(chan struct{})

	go func() {
		defer close(o.done)
		t := time.NewTicker(o.opts.Interval)
		defer t.Stop()
		for {
			if _, err := o.Drain(ctx); err != nil && ctx.Err() == nil {
				o.logger.Error(ctx, "outbox drain failed", "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			case <-o.wake:
			}
		}
	}()
}

// Close stops the worker and waits for it.
func (o *Outbox) Close() error {
	if o.cancel == nil {
		return nil
	}
	o.cancel()
	<-o.done
	o.cancel = nil
	return nil
}

// Failed lists ops whose retries ran out.
func (o *Outbox) Failed(ctx context.Context) ([]models.PendingOp, error) {
	return o.repo.ListFailed(ctx)
}

// Prune removes the ops already replayed and returns how many went.
// Failed and pending ops stay.
func (o *Outbox) Prune(ctx context.Context) (int64, error) {
	n, err := o.repo.PruneCompleted(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		o.logger.Debug(ctx, "completed ops pruned", "count", n)
	}
	return n, nil
}

// Stats counts ops per state.
func (o *Outbox) Stats(ctx context.Context) (map[models.OpState]int, error) {
	return o.repo.Counts(ctx)
}
