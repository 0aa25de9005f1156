package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/safarbet/safarbet/internal/pkg/logger"
	"github.com/safarbet/safarbet/internal/pkg/models"
	natspkg "github.com/safarbet/safarbet/internal/pkg/nats"
	"github.com/safarbet/safarbet/internal/pkg/retry"
	"github.com/safarbet/safarbet/services/notification"
)

// Dispatcher consumes notification intents and delivers them by email.
// Delivery is at-least-once with bounded exponential backoff; when the
// retry budget runs out the intent is logged and dropped rather than
// poisoning the queue.
type Dispatcher struct {
	cfg      *models.Config
	payments notification.PaymentReader
	bookings notification.BookingReader
	mailer   notification.Mailer
	retrier  *retry.Retrier
	consumer *natspkg.Consumer
	nats     *natspkg.Client
}

// NewDispatcher creates a notification dispatcher
func NewDispatcher(
	cfg *models.Config,
	natsClient *natspkg.Client,
	payments notification.PaymentReader,
	bookings notification.BookingReader,
	mailer notification.Mailer,
) *Dispatcher {
	retrier := retry.New(retry.Config{
		MaxRetries: cfg.Notification.MaxRetries,
		BaseDelay:  time.Duration(cfg.Notification.BaseDelaySec) * time.Second,
		Multiplier: 2.0,
	})

	return &Dispatcher{
		cfg:      cfg,
		payments: payments,
		bookings: bookings,
		mailer:   mailer,
		retrier:  retrier,
		nats:     natsClient,
	}
}

// Start subscribes to the notification subject within a queue group
func (d *Dispatcher) Start() error {
	consumer, err := natspkg.NewConsumer(d.nats, d.cfg.Notification.Subject, d.cfg.Notification.QueueGroup, d.handleMessage)
	if err != nil {
		return err
	}
	d.consumer = consumer

	logger.Info("Notification dispatcher started",
		logger.String("subject", d.cfg.Notification.Subject),
		logger.String("queue_group", d.cfg.Notification.QueueGroup))
	return nil
}

// Stop unsubscribes the dispatcher
func (d *Dispatcher) Stop() error {
	if d.consumer != nil {
		return d.consumer.Stop()
	}
	return nil
}

func (d *Dispatcher) handleMessage(data []byte) error {
	var intent models.NotificationIntent
	if err := json.Unmarshal(data, &intent); err != nil {
		logger.Warn("Unparseable notification intent dropped", logger.Err(err))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := d.Deliver(ctx, intent); err != nil {
		// Permanent failure after the retry budget. The payment state
		// is already committed; losing the email does not lose money.
		logger.Error("Notification permanently failed",
			logger.String("kind", string(intent.Kind)),
			logger.String("payment_id", intent.PaymentID.String()),
			logger.Err(err))
	}
	return nil
}

// Deliver composes the message for an intent and sends it, retrying
// transient failures with exponential backoff.
func (d *Dispatcher) Deliver(ctx context.Context, intent models.NotificationIntent) error {
	p, err := d.payments.GetPaymentByID(ctx, intent.PaymentID)
	if err != nil {
		return fmt.Errorf("failed to load payment for notification: %w", err)
	}

	b, err := d.bookings.GetBookingByID(ctx, intent.BookingID)
	if err != nil {
		return fmt.Errorf("failed to load booking for notification: %w", err)
	}

	subject, body := composeMessage(intent, p, b)

	return d.retrier.Execute(ctx, func(ctx context.Context) error {
		return d.mailer.Send(ctx, b.UserEmail, subject, body)
	})
}

// composeMessage builds the subject and plain-text body for an intent
func composeMessage(intent models.NotificationIntent, p *models.Payment, b *models.Booking) (string, string) {
	switch intent.Kind {
	case models.NotificationKindPaymentConfirmed:
		subject := "Booking Confirmed - Payment Successful"
		body := fmt.Sprintf(
			"Dear Customer,\n\n"+
				"Your payment of %s %s has been confirmed.\n\n"+
				"Booking reference: %s\n"+
				"Check-in: %s\n"+
				"Check-out: %s\n"+
				"Guests: %d\n\n"+
				"Thank you for booking with us.\n",
			p.Amount.StringFixed(2), p.Currency,
			b.BookingReference,
			b.CheckInDate.Format("2006-01-02"),
			b.CheckOutDate.Format("2006-01-02"),
			b.NumberOfGuests,
		)
		return subject, body

	default:
		reason := intent.Reason
		if reason == "" {
			reason = "the payment could not be completed"
		}
		subject := "Payment Unsuccessful"
		body := fmt.Sprintf(
			"Dear Customer,\n\n"+
				"Your payment for booking %s was not completed: %s.\n\n"+
				"You can retry the payment from your booking page.\n",
			b.BookingReference, reason,
		)
		return subject, body
	}
}
