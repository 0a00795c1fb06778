package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/eventlog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/notify"
)

const (
	PaymentSucceededConsumerName = "storefront-payment-succeeded-notifier"

	// notifyTimeout bounds how long the checkpoint row stays locked while
	// the notification steps run.
	notifyTimeout = 30 * time.Second
)

var ErrAllNotificationsFailed = errors.New("all notification steps failed")

type Notifier interface {
	NotifyOrderPaid(ctx context.Context, orderID, transactionID string) (notify.Outcome, error)
}

// PaymentSucceededHandler sends the order confirmation once per payment event.
// The checkpoint advances in the same transaction that is committed after
// dispatch, so a message that fails every step is dead-lettered without being
// marked processed.
func PaymentSucceededHandler(pool db.Pool, checkpoints *eventlog.Checkpoints, notifier Notifier, logger *zap.Logger) HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		msg, err := decode[PaymentSucceededPayload](body, EventTypePaymentSucceeded, 1)
		if err != nil {
			return err
		}
		if msg.Payload.OrderID == "" {
			return errors.New("missing orderId")
		}

		partitionKey := msg.Payload.OrderID
		var incomingSeq int64
		if msg.Envelope != nil {
			partitionKey = msg.Envelope.PartitionKey
			incomingSeq = msg.Envelope.Sequence
		}

		log := logger.With(zap.String("orderId", msg.Payload.OrderID), zap.String("partition", partitionKey), zap.Int64("seq", incomingSeq))

		return db.InTx(ctx, pool, func(tx pgx.Tx) error {
			local := checkpoints.In(tx)

			verdict, err := local.Check(ctx, partitionKey, incomingSeq)
			if err != nil {
				return err
			}
			switch verdict.Decision {
			case eventlog.Duplicate:
				log.Info("skip duplicate payment event", zap.Int64("last", verdict.Last))
				return nil
			case eventlog.Gap:
				log.Warn("sequence gap", zap.Int64("last", verdict.Last))
			}

			nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
			defer cancel()

			outcome, err := notifier.NotifyOrderPaid(nctx, msg.Payload.OrderID, msg.Payload.PaymentID)
			if err != nil {
				return fmt.Errorf("notify order %s: %w", msg.Payload.OrderID, err)
			}
			if outcome.AllFailed() {
				return fmt.Errorf("%w: %s", ErrAllNotificationsFailed, outcome.Summary())
			}
			if failed := outcome.Failed(); len(failed) > 0 {
				log.Warn("some notification steps failed", zap.String("steps", outcome.Summary()))
			}

			return local.Advance(ctx, partitionKey, incomingSeq)
		})
	}
}
