package quotes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/bizquote/backend/internal/notify"
)

type ExpireRequestsArgs struct{}

func (ExpireRequestsArgs) Kind() string { return "expire_quote_requests" }

// ExpireSweeper is the repository operation the sweep runs.
type ExpireSweeper interface {
	ExpireDue(ctx context.Context) ([]uuid.UUID, error)
}

// ExpireWorker flips open requests past their expiry to expired. The UPDATE
// predicate only matches rows still open, so the scheduler's at-least-once
// delivery is harmless: a second run affects zero rows.
type ExpireWorker struct {
	river.WorkerDefaults[ExpireRequestsArgs]
	requests ExpireSweeper
	notifier notify.Notifier
	log      *slog.Logger
}

func NewExpireWorker(requests ExpireSweeper, notifier notify.Notifier, log *slog.Logger) *ExpireWorker {
	if log == nil {
		log = slog.Default()
	}
	return &ExpireWorker{requests: requests, notifier: notifier, log: log}
}

func (w *ExpireWorker) Work(ctx context.Context, _ *river.Job[ExpireRequestsArgs]) error {
	ids, err := w.requests.ExpireDue(ctx)
	if err != nil {
		return fmt.Errorf("expire due quote requests: %w", err)
	}
	for _, id := range ids {
		w.notifier.Notify(ctx, notify.EventRequestExpired, id, nil)
	}
	if len(ids) > 0 {
		w.log.Info("expired quote requests", "count", len(ids))
	}
	return nil
}
