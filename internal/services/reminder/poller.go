package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/mkravtsov/subtrack/internal/lib/sl"
)

// StartPoller runs the wake-up loop until the context is cancelled. Each
// tick claims sleeping runs whose wake time has arrived and executes them.
// This is what turns a persisted suspension into an actual resume: no
// goroutine or in-memory timer survives for the run while it sleeps.
func (e *Engine) StartPoller(ctx context.Context, interval time.Duration) {
	e.log.Info("reminder wake-up poller started", slog.Duration("interval", interval))

	e.pollDueRuns(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("reminder wake-up poller stopping")
			return
		case <-ticker.C:
			e.pollDueRuns(ctx)
		}
	}
}

func (e *Engine) pollDueRuns(ctx context.Context) {
	ids, err := e.runs.ClaimDueRuns(ctx, e.now(), e.redeliverDelay, e.claimBatchSize)
	if err != nil {
		e.log.Error("failed to claim due runs", sl.Err(err))
		return
	}
	if len(ids) == 0 {
		return
	}
	e.log.Info("resuming due reminder runs", slog.Int("count", len(ids)))

	for _, id := range ids {
		if err := e.Run(ctx, id); err != nil {
			// The claim pushed wake_at forward, so the run is retried on
			// a later tick.
			e.log.Error("failed to execute reminder run",
				slog.String("subscription_id", id), sl.Err(err))
		}
	}
}
