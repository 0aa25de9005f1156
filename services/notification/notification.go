package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/safarbet/safarbet/internal/pkg/models"
)

// Mailer delivers a composed message to a recipient
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// PaymentReader is the slice of the payment store the dispatcher needs
type PaymentReader interface {
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
}

// BookingReader is the slice of the booking store the dispatcher needs
type BookingReader interface {
	GetBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}
