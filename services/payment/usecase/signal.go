package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/safarbet/safarbet/internal/pkg/logger"
	"github.com/safarbet/safarbet/internal/pkg/models"
)

// ApplySignal is the single entry point through which every payment
// outcome signal flows, whichever channel delivered it. The repository
// serializes concurrent signals for the same payment behind a row lock,
// so duplicated or reordered signals converge on the same terminal
// state, and a notification is scheduled at most once per transition.
func (uc *paymentUC) ApplySignal(ctx context.Context, txRef string, observed models.GatewayStatus, raw json.RawMessage, source models.SignalSource) (*models.Payment, error) {
	p, transitioned, err := uc.paymentRepo.ApplyTransition(ctx, txRef, func(current *models.Payment) *models.PaymentMutation {
		return decideTransition(current, observed, raw)
	})
	if err != nil {
		return nil, err
	}

	if !transitioned {
		logger.Debug("Payment signal was a no-op",
			logger.String("transaction_reference", txRef),
			logger.String("observed", string(observed)),
			logger.String("source", string(source)),
			logger.String("status", string(p.Status)))
		return p, nil
	}

	logger.Info("Payment signal applied",
		logger.String("transaction_reference", txRef),
		logger.String("observed", string(observed)),
		logger.String("source", string(source)),
		logger.String("status", string(p.Status)))

	uc.scheduleNotification(ctx, p, source)

	return p, nil
}

// decideTransition is the payment state machine. It runs under the row
// lock and decides, from the current persisted state and one observed
// gateway outcome, what (if anything) changes:
//
//   - completed is frozen: nothing ever moves a payment out of it
//   - success always wins, even over an earlier failed or cancelled,
//     because the gateway is the source of truth for money movement
//   - failed and cancelled only land on a pending payment
//   - pending and unknown outcomes change nothing
//
// Non-transitioning signals that carry a payload still return an
// audit-only mutation so the latest gateway response is kept.
func decideTransition(current *models.Payment, observed models.GatewayStatus, raw json.RawMessage) *models.PaymentMutation {
	if current.Status == models.PaymentStatusCompleted {
		return nil
	}

	switch observed {
	case models.GatewayStatusSuccess:
		now := nowUTC()
		return &models.PaymentMutation{
			Status:         models.PaymentStatusCompleted,
			CompletedAt:    &now,
			ConfirmBooking: true,
			RawPayload:     raw,
		}

	case models.GatewayStatusFailed:
		if current.Status != models.PaymentStatusPending {
			return auditOnly(raw)
		}
		return &models.PaymentMutation{
			Status:       models.PaymentStatusFailed,
			ErrorMessage: "payment failed at gateway",
			RawPayload:   raw,
		}

	case models.GatewayStatusCancelled:
		if current.Status != models.PaymentStatusPending {
			return auditOnly(raw)
		}
		return &models.PaymentMutation{
			Status:       models.PaymentStatusCancelled,
			ErrorMessage: "payment cancelled by user",
			RawPayload:   raw,
		}

	default:
		// pending or unknown: keep waiting, record the payload.
		return auditOnly(raw)
	}
}

func auditOnly(raw json.RawMessage) *models.PaymentMutation {
	if len(raw) == 0 {
		return nil
	}
	return &models.PaymentMutation{RawPayload: raw}
}

// scheduleNotification enqueues the user-facing notification for a
// transition that just committed. Failing to enqueue never rolls the
// transition back; it is logged for the sweep-era operator to chase.
func (uc *paymentUC) scheduleNotification(ctx context.Context, p *models.Payment, source models.SignalSource) {
	var intent models.NotificationIntent

	switch p.Status {
	case models.PaymentStatusCompleted:
		intent = models.NotificationIntent{
			Kind:      models.NotificationKindPaymentConfirmed,
			PaymentID: p.ID,
			BookingID: p.BookingID,
		}
	case models.PaymentStatusFailed, models.PaymentStatusCancelled:
		reason := ""
		if p.ErrorMessage != nil {
			reason = *p.ErrorMessage
		}
		intent = models.NotificationIntent{
			Kind:      models.NotificationKindPaymentFailed,
			PaymentID: p.ID,
			BookingID: p.BookingID,
			Reason:    reason,
		}
	default:
		return
	}

	if err := uc.notifyGW.ScheduleNotification(ctx, intent); err != nil {
		logger.Error("Failed to schedule notification",
			logger.String("payment_id", p.ID.String()),
			logger.String("kind", string(intent.Kind)),
			logger.String("source", string(source)),
			logger.Err(err))
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func marshalWebhook(payload models.WebhookPayload) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
