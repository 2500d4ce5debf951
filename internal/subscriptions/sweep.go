package subscriptions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"
)

type ExpireSubscriptionsArgs struct{}

func (ExpireSubscriptionsArgs) Kind() string { return "expire_subscriptions" }

// ExpireWorker marks active subscriptions past their expiry as expired.
// Idempotent: the predicate only matches rows still active.
type ExpireWorker struct {
	river.WorkerDefaults[ExpireSubscriptionsArgs]
	subs Store
	log  *slog.Logger
}

func NewExpireWorker(subs Store, log *slog.Logger) *ExpireWorker {
	if log == nil {
		log = slog.Default()
	}
	return &ExpireWorker{subs: subs, log: log}
}

func (w *ExpireWorker) Work(ctx context.Context, _ *river.Job[ExpireSubscriptionsArgs]) error {
	ids, err := w.subs.ExpireDue(ctx)
	if err != nil {
		return fmt.Errorf("expire due subscriptions: %w", err)
	}
	if len(ids) > 0 {
		w.log.Info("expired subscriptions", "count", len(ids))
	}
	return nil
}
