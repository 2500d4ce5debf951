package referrals

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// SettleCommissionArgs is enqueued transactionally when a payment is
// confirmed, so the settlement job exists if and only if the confirmation
// committed.
type SettleCommissionArgs struct {
	TransactionID uuid.UUID `json:"transaction_id"`
}

func (SettleCommissionArgs) Kind() string { return "settle_referral_commission" }

type SettleWorker struct {
	river.WorkerDefaults[SettleCommissionArgs]
	svc *Service
	log *slog.Logger
}

func NewSettleWorker(svc *Service, log *slog.Logger) *SettleWorker {
	if log == nil {
		log = slog.Default()
	}
	return &SettleWorker{svc: svc, log: log}
}

func (w *SettleWorker) Work(ctx context.Context, job *river.Job[SettleCommissionArgs]) error {
	c, err := w.svc.Settle(ctx, job.Args.TransactionID)
	if err != nil {
		return fmt.Errorf("settle commission for transaction %s: %w", job.Args.TransactionID, err)
	}
	if c != nil {
		w.log.Info("referral commission settled",
			"transaction_id", job.Args.TransactionID, "wallet_id", c.WalletID, "amount", c.Amount)
	}
	return nil
}
