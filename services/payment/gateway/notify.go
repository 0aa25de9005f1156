package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/safarbet/safarbet/internal/pkg/logger"
	"github.com/safarbet/safarbet/internal/pkg/models"
	natspkg "github.com/safarbet/safarbet/internal/pkg/nats"
)

// NotifyGW publishes notification intents to NATS for the dispatcher
type NotifyGW struct {
	client  *natspkg.Client
	subject string
}

// NewNotifyGW creates a new notification gateway
func NewNotifyGW(client *natspkg.Client, subject string) *NotifyGW {
	return &NotifyGW{
		client:  client,
		subject: subject,
	}
}

// ScheduleNotification enqueues the intent for at-least-once delivery
func (g *NotifyGW) ScheduleNotification(ctx context.Context, intent models.NotificationIntent) error {
	intent.EnqueuedAt = time.Now().UTC()

	if err := g.client.Publish(g.subject, intent); err != nil {
		return fmt.Errorf("failed to schedule %s notification: %w", intent.Kind, err)
	}

	logger.Info("Notification scheduled",
		logger.String("kind", string(intent.Kind)),
		logger.String("payment_id", intent.PaymentID.String()),
		logger.String("booking_id", intent.BookingID.String()))

	return nil
}
