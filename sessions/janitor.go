package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/careerforge/careerforge/stores"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// AttemptPruner deletes old provider attempts. stores.GORMAttemptStore
// satisfies it.
type AttemptPruner interface {
	DeleteAttemptsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// JanitorOptions configures the janitor
type JanitorOptions struct {
	Schedule         string        // cron spec, e.g. "@every 15m"
	IdleTimeout      time.Duration // sessions untouched this long are ended
	AttemptRetention time.Duration // zero keeps attempts forever
}

// Janitor ends idle sessions and prunes old provider attempts on a schedule.
// It never touches a chat turn in flight: ending only sets EndedAt, and the
// next turn on that session clears it again.
type Janitor struct {
	store    stores.SessionStore
	attempts AttemptPruner
	opts     JanitorOptions
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.Logger
	now      func() time.Time
}

// NewJanitor creates a janitor. attempts may be nil.
func NewJanitor(store stores.SessionStore, attempts AttemptPruner, logger *zap.Logger, opts JanitorOptions) (*Janitor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	j := &Janitor{
		store:    store,
		attempts: attempts,
		opts:     opts,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.Named("janitor"),
		now:      func() time.Time { return time.Now().UTC() },
	}

	if _, err := j.cron.AddFunc(opts.Schedule, func() {
		if _, _, err := j.Sweep(j.ctx); err != nil {
			j.logger.Error("sweep failed", zap.Error(err))
		}
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", opts.Schedule, err)
	}
	return j, nil
}

// Start runs the schedule in the background
func (j *Janitor) Start() {
	j.cron.Start()
	j.logger.Info("janitor started",
		zap.String("schedule", j.opts.Schedule),
		zap.Duration("idle_timeout", j.opts.IdleTimeout))
}

// Stop halts the schedule and waits for a running sweep to finish
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	j.cancel()
	<-ctx.Done()
	j.logger.Info("janitor stopped")
}

// Sweep runs one cleanup pass
func (j *Janitor) Sweep(ctx context.Context) (ended, pruned int64, err error) {
	now := j.now()
	if j.opts.IdleTimeout > 0 {
		ended, err = j.store.EndIdleSessions(ctx, now.Add(-j.opts.IdleTimeout), now)
		if err != nil {
			return 0, 0, err
		}
	}
	if j.attempts != nil && j.opts.AttemptRetention > 0 {
		pruned, err = j.attempts.DeleteAttemptsBefore(ctx, now.Add(-j.opts.AttemptRetention))
		if err != nil {
			return ended, 0, fmt.Errorf("failed to prune provider attempts: %w", err)
		}
	}
	if ended > 0 || pruned > 0 {
		j.logger.Info("sweep completed", zap.Int64("sessions_ended", ended), zap.Int64("attempts_pruned", pruned))
	}
	return ended, pruned, nil
}
