package payment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/safarbet/safarbet/internal/pkg/models"
)

// TransitionFunc inspects a payment locked for update and returns the
// mutation to apply, or nil for a no-op. It runs inside the repository
// transaction and must not perform I/O.
type TransitionFunc func(current *models.Payment) *models.PaymentMutation

// PaymentRepo defines the interface for payment persistence
type PaymentRepo interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	ReinitiatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetPaymentByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error)
	GetPaymentByTransactionRef(ctx context.Context, txRef string) (*models.Payment, error)
	ListPaymentsByUserID(ctx context.Context, userID uuid.UUID) ([]models.Payment, error)
	ListStalePendingRefs(ctx context.Context, olderThan time.Time, limit int) ([]string, error)

	// ApplyTransition locks the payment row identified by txRef, invokes
	// decide on the current state and applies the returned mutation in the
	// same transaction (including the booking confirmation when requested).
	// It reports whether a status transition actually happened.
	ApplyTransition(ctx context.Context, txRef string, decide TransitionFunc) (*models.Payment, bool, error)
}

// BookingRepo is the slice of the booking store the payment core needs
type BookingRepo interface {
	GetBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

// PaymentGW is the gateway adapter contract. Implementations apply a
// bounded timeout and never retry internally; retry policy belongs to
// the callers.
type PaymentGW interface {
	Initiate(ctx context.Context, req models.InitiateRequest) (*models.InitiateResult, error)
	Verify(ctx context.Context, txRef string) (*models.VerifyResult, error)
}

// NotificationGW schedules a notification intent for at-least-once
// delivery by the dispatcher.
type NotificationGW interface {
	ScheduleNotification(ctx context.Context, intent models.NotificationIntent) error
}

// SweepLocker is the advisory lock used so a single instance runs a
// reconciliation pass at a time.
type SweepLocker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// PaymentUC defines the payment use cases
type PaymentUC interface {
	InitiatePayment(ctx context.Context, callerID uuid.UUID, isAdmin bool, req models.PaymentInitiateRequest) (*models.PaymentInitiateResponse, error)
	VerifyPayment(ctx context.Context, callerID uuid.UUID, isAdmin bool, txRef string) (*models.Payment, error)
	ProcessWebhook(ctx context.Context, payload models.WebhookPayload) error
	ApplySignal(ctx context.Context, txRef string, observed models.GatewayStatus, raw json.RawMessage, source models.SignalSource) (*models.Payment, error)
	GetPayment(ctx context.Context, callerID uuid.UUID, isAdmin bool, paymentID uuid.UUID) (*models.Payment, error)
	ListUserPayments(ctx context.Context, userID uuid.UUID) ([]models.Payment, error)
}
