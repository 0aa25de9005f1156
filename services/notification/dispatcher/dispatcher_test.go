package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safarbet/safarbet/internal/pkg/apperrors"
	"github.com/safarbet/safarbet/internal/pkg/models"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

// flakyMailer fails the first failures sends, then succeeds
type flakyMailer struct {
	mu       sync.Mutex
	failures int
	sent     []sentMail
	calls    int
}

func (m *flakyMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failures {
		return errors.New("smtp: temporary failure")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type stubPayments struct {
	payment *models.Payment
}

func (s *stubPayments) GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if s.payment == nil || s.payment.ID != id {
		return nil, apperrors.New(apperrors.KindNotFound, "payment not found")
	}
	return s.payment, nil
}

type stubBookings struct {
	booking *models.Booking
}

func (s *stubBookings) GetBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	if s.booking == nil || s.booking.ID != id {
		return nil, apperrors.New(apperrors.KindNotFound, "booking not found")
	}
	return s.booking, nil
}

func dispatcherFixture(mailer *flakyMailer, maxRetries int) (*Dispatcher, models.NotificationIntent) {
	bookingID := uuid.New()
	paymentID := uuid.New()

	b := &models.Booking{
		ID:               bookingID,
		BookingReference: uuid.New(),
		CheckInDate:      time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOutDate:     time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC),
		NumberOfGuests:   2,
		UserEmail:        "guest@example.com",
	}
	p := &models.Payment{
		ID:        paymentID,
		BookingID: bookingID,
		Amount:    decimal.RequireFromString("450.00"),
		Currency:  "ETB",
		Status:    models.PaymentStatusCompleted,
	}

	cfg := &models.Config{
		Notification: models.NotificationConfig{
			Subject:      "notifications.payment",
			QueueGroup:   "notification-dispatcher",
			MaxRetries:   maxRetries,
			BaseDelaySec: 0, // no waiting in tests
			FromAddress:  "noreply@example.com",
		},
	}

	d := NewDispatcher(cfg, nil, &stubPayments{payment: p}, &stubBookings{booking: b}, mailer)

	intent := models.NotificationIntent{
		Kind:      models.NotificationKindPaymentConfirmed,
		PaymentID: paymentID,
		BookingID: bookingID,
	}

	return d, intent
}

func TestDeliver_ConfirmationEmail(t *testing.T) {
	mailer := &flakyMailer{}
	d, intent := dispatcherFixture(mailer, 3)

	require.NoError(t, d.Deliver(context.Background(), intent))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "guest@example.com", mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].subject, "Confirmed")
	assert.Contains(t, mailer.sent[0].body, "450.00 ETB")
	assert.Contains(t, mailer.sent[0].body, "2026-09-10")
}

func TestDeliver_FailureEmailCarriesReason(t *testing.T) {
	mailer := &flakyMailer{}
	d, intent := dispatcherFixture(mailer, 3)
	intent.Kind = models.NotificationKindPaymentFailed
	intent.Reason = "payment cancelled by user"

	require.NoError(t, d.Deliver(context.Background(), intent))

	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].subject, "Unsuccessful")
	assert.Contains(t, mailer.sent[0].body, "payment cancelled by user")
}

func TestDeliver_RetriesTransientFailures(t *testing.T) {
	mailer := &flakyMailer{failures: 2}
	d, intent := dispatcherFixture(mailer, 3)

	require.NoError(t, d.Deliver(context.Background(), intent))

	assert.Equal(t, 3, mailer.calls, "two failures then one success")
	assert.Len(t, mailer.sent, 1)
}

func TestDeliver_ExhaustedRetryBudgetFails(t *testing.T) {
	mailer := &flakyMailer{failures: 100}
	d, intent := dispatcherFixture(mailer, 2)

	err := d.Deliver(context.Background(), intent)
	require.Error(t, err)
	assert.Equal(t, 3, mailer.calls, "initial attempt plus two retries")
	assert.Empty(t, mailer.sent)
}

func TestHandleMessage_MalformedIntentDropped(t *testing.T) {
	mailer := &flakyMailer{}
	d, _ := dispatcherFixture(mailer, 1)

	assert.NoError(t, d.handleMessage([]byte(`{not json`)))
	assert.Equal(t, 0, mailer.calls)
}

func TestHandleMessage_PermanentFailureDoesNotError(t *testing.T) {
	mailer := &flakyMailer{failures: 100}
	d, intent := dispatcherFixture(mailer, 1)

	data, err := json.Marshal(intent)
	require.NoError(t, err)

	// A permanently failed delivery is logged and swallowed so the
	// consumer never redelivers forever.
	assert.NoError(t, d.handleMessage(data))
}
