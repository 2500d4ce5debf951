package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

type NotificationArgs struct {
	Event      Event      `json:"event"`
	RequestID  uuid.UUID  `json:"request_id"`
	ResponseID *uuid.UUID `json:"response_id,omitempty"`
}

func (NotificationArgs) Kind() string { return "deliver_notification" }

// InsertFunc enqueues a delivery job. Provided by main using river.Client.Insert.
type InsertFunc func(ctx context.Context, args NotificationArgs) error

// Enqueuer implements Notifier by queuing a delivery job. Enqueue failures
// are logged and swallowed; the calling operation has already committed.
type Enqueuer struct {
	insert InsertFunc
	log    *slog.Logger
}

func NewEnqueuer(insert InsertFunc, log *slog.Logger) *Enqueuer {
	if log == nil {
		log = slog.Default()
	}
	return &Enqueuer{insert: insert, log: log}
}

func (e *Enqueuer) Notify(ctx context.Context, event Event, requestID uuid.UUID, responseID *uuid.UUID) {
	args := NotificationArgs{Event: event, RequestID: requestID, ResponseID: responseID}
	if err := e.insert(ctx, args); err != nil {
		e.log.Warn("enqueue notification failed", "event", string(event), "request_id", requestID, "error", err)
	}
}

// DeliverWorker posts each event to the configured sink URL. With no sink
// configured it just logs. Delivery failures are logged, not retried; the
// platform does not depend on delivery succeeding.
type DeliverWorker struct {
	river.WorkerDefaults[NotificationArgs]
	sinkURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func NewDeliverWorker(sinkURL string, timeout time.Duration, log *slog.Logger) *DeliverWorker {
	if log == nil {
		log = slog.Default()
	}
	return &DeliverWorker{
		sinkURL:    sinkURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func (w *DeliverWorker) Work(ctx context.Context, job *river.Job[NotificationArgs]) error {
	args := job.Args
	if w.sinkURL == "" {
		w.log.Info("notification", "event", string(args.Event), "request_id", args.RequestID)
		return nil
	}

	body, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.sinkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.log.Warn("notification delivery failed", "event", string(args.Event), "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.log.Warn("notification sink returned non-2xx", "event", string(args.Event), "status", resp.StatusCode)
	}
	return nil
}
