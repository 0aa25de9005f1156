package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/safarbet/safarbet/internal/pkg/apperrors"
	"github.com/safarbet/safarbet/internal/pkg/logger"
	"github.com/safarbet/safarbet/internal/pkg/models"
	"github.com/safarbet/safarbet/services/payment"
)

// paymentUC implements the payment.PaymentUC interface
type paymentUC struct {
	cfg         *models.Config
	paymentRepo payment.PaymentRepo
	bookingRepo payment.BookingRepo
	paymentGW   payment.PaymentGW
	notifyGW    payment.NotificationGW
}

// NewPaymentUC creates a new payment use case
func NewPaymentUC(
	cfg *models.Config,
	paymentRepo payment.PaymentRepo,
	bookingRepo payment.BookingRepo,
	paymentGW payment.PaymentGW,
	notifyGW payment.NotificationGW,
) (payment.PaymentUC, error) {
	return &paymentUC{
		cfg:         cfg,
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		paymentGW:   paymentGW,
		notifyGW:    notifyGW,
	}, nil
}

// InitiatePayment starts (or resumes) checkout for a booking. Calling it
// again while a checkout is pending returns the existing session instead
// of creating a second one; a completed payment is a hard conflict; a
// failed or cancelled payment gets a fresh attempt on the same row.
func (uc *paymentUC) InitiatePayment(ctx context.Context, callerID uuid.UUID, isAdmin bool, req models.PaymentInitiateRequest) (*models.PaymentInitiateResponse, error) {
	if req.BookingID == uuid.Nil {
		return nil, apperrors.New(apperrors.KindValidation, "booking_id is required")
	}

	booking, err := uc.bookingRepo.GetBookingByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && booking.UserID != callerID {
		return nil, apperrors.New(apperrors.KindPermission, "you do not own this booking")
	}
	if booking.Status == models.BookingStatusCancelled {
		return nil, apperrors.New(apperrors.KindValidation, "cannot pay for a cancelled booking")
	}
	if booking.TotalAmount.IsZero() || booking.TotalAmount.IsNegative() {
		return nil, apperrors.New(apperrors.KindValidation, "booking amount must be positive")
	}

	existing, err := uc.paymentRepo.GetPaymentByBookingID(ctx, booking.ID)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}

	if existing != nil {
		switch existing.Status {
		case models.PaymentStatusPending:
			// Idempotent replay: hand back the session already in flight.
			return initiateResponse(existing), nil
		case models.PaymentStatusCompleted:
			return nil, apperrors.New(apperrors.KindConflict, "booking is already paid")
		case models.PaymentStatusFailed, models.PaymentStatusCancelled:
			return uc.reinitiate(ctx, booking, existing, req)
		}
	}

	txRef := newTransactionReference(booking.BookingReference)

	result, err := uc.paymentGW.Initiate(ctx, uc.initiateRequest(booking, txRef, req))
	if err != nil {
		// No row was written, so the booking stays payable.
		logger.Warn("Payment initiation failed at gateway",
			logger.String("booking_id", booking.ID.String()),
			logger.Err(err))
		return nil, err
	}

	p := newPaymentRow(booking, txRef, result)
	if err := uc.paymentRepo.CreatePayment(ctx, p); err != nil {
		if apperrors.IsConflict(err) {
			// Lost a concurrent initiation race; surface the winner's session.
			winner, getErr := uc.paymentRepo.GetPaymentByBookingID(ctx, booking.ID)
			if getErr == nil && winner.Status == models.PaymentStatusPending {
				return initiateResponse(winner), nil
			}
		}
		return nil, err
	}

	logger.Info("Payment initiated",
		logger.String("payment_id", p.ID.String()),
		logger.String("booking_id", booking.ID.String()),
		logger.String("transaction_reference", txRef))

	return initiateResponse(p), nil
}

// reinitiate reuses the booking's existing payment row for a fresh
// checkout after a failed or cancelled attempt.
func (uc *paymentUC) reinitiate(ctx context.Context, booking *models.Booking, existing *models.Payment, req models.PaymentInitiateRequest) (*models.PaymentInitiateResponse, error) {
	txRef := newTransactionReference(booking.BookingReference)

	result, err := uc.paymentGW.Initiate(ctx, uc.initiateRequest(booking, txRef, req))
	if err != nil {
		return nil, err
	}

	p := newPaymentRow(booking, txRef, result)
	p.ID = existing.ID
	if err := uc.paymentRepo.ReinitiatePayment(ctx, p); err != nil {
		return nil, err
	}

	logger.Info("Payment reinitiated",
		logger.String("payment_id", p.ID.String()),
		logger.String("previous_status", string(existing.Status)),
		logger.String("transaction_reference", txRef))

	return initiateResponse(p), nil
}

func (uc *paymentUC) initiateRequest(booking *models.Booking, txRef string, req models.PaymentInitiateRequest) models.InitiateRequest {
	callbackURL := req.CallbackURL
	if callbackURL == "" {
		callbackURL = uc.cfg.App.BaseURL + "/api/v1/payments/webhook"
	}

	first, last := splitEmailName(booking.UserEmail)

	return models.InitiateRequest{
		Amount:               booking.TotalAmount,
		Currency:             "ETB",
		Email:                booking.UserEmail,
		FirstName:            first,
		LastName:             last,
		PhoneNumber:          booking.UserPhone,
		TransactionReference: txRef,
		CallbackURL:          callbackURL,
		ReturnURL:            req.ReturnURL,
	}
}

// VerifyPayment asks the gateway for the authoritative state of the
// transaction and applies it through the shared signal path.
func (uc *paymentUC) VerifyPayment(ctx context.Context, callerID uuid.UUID, isAdmin bool, txRef string) (*models.Payment, error) {
	if txRef == "" {
		return nil, apperrors.New(apperrors.KindValidation, "transaction_reference is required")
	}

	p, err := uc.paymentRepo.GetPaymentByTransactionRef(ctx, txRef)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		booking, err := uc.bookingRepo.GetBookingByID(ctx, p.BookingID)
		if err != nil {
			return nil, err
		}
		if booking.UserID != callerID {
			return nil, apperrors.New(apperrors.KindPermission, "you do not own this payment")
		}
	}

	result, err := uc.paymentGW.Verify(ctx, txRef)
	if err != nil {
		if apperrors.IsGatewayRejected(err) {
			// The gateway knows the transaction and rejects it; record
			// the failure, then surface the rejection to the caller.
			if _, applyErr := uc.ApplySignal(ctx, txRef, models.GatewayStatusFailed, nil, models.SignalSourceVerify); applyErr != nil {
				logger.Error("Failed to record gateway rejection",
					logger.String("transaction_reference", txRef),
					logger.Err(applyErr))
			}
		}
		return nil, err
	}

	return uc.ApplySignal(ctx, txRef, result.Status, result.RawPayload, models.SignalSourceVerify)
}

// ProcessWebhook applies a gateway push notification. Unknown transaction
// references are logged and dropped; the handler acknowledges regardless.
func (uc *paymentUC) ProcessWebhook(ctx context.Context, payload models.WebhookPayload) error {
	txRef := payload.Reference()
	if txRef == "" {
		logger.Warn("Webhook without transaction reference dropped")
		return nil
	}

	raw, _ := marshalWebhook(payload)

	_, err := uc.ApplySignal(ctx, txRef, models.NormalizeGatewayStatus(payload.Status), raw, models.SignalSourceWebhook)
	if err != nil {
		if apperrors.IsNotFound(err) {
			logger.Warn("Webhook for unknown transaction dropped",
				logger.String("transaction_reference", txRef),
				logger.String("status", payload.Status))
			return nil
		}
		return err
	}

	return nil
}

// GetPayment returns a payment the caller is allowed to see
func (uc *paymentUC) GetPayment(ctx context.Context, callerID uuid.UUID, isAdmin bool, paymentID uuid.UUID) (*models.Payment, error) {
	p, err := uc.paymentRepo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if !isAdmin {
		booking, err := uc.bookingRepo.GetBookingByID(ctx, p.BookingID)
		if err != nil {
			return nil, err
		}
		if booking.UserID != callerID {
			return nil, apperrors.New(apperrors.KindPermission, "you do not own this payment")
		}
	}

	return p, nil
}

// ListUserPayments returns all payments for the user's bookings
func (uc *paymentUC) ListUserPayments(ctx context.Context, userID uuid.UUID) ([]models.Payment, error) {
	return uc.paymentRepo.ListPaymentsByUserID(ctx, userID)
}

// newTransactionReference mints a unique reference tied to the booking,
// of the form TXN-<booking_reference>-<8 hex chars>.
func newTransactionReference(bookingRef uuid.UUID) string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand is documented never to fail on supported platforms
		buf = []byte(uuid.New().String()[:4])
	}
	return fmt.Sprintf("TXN-%s-%s", bookingRef, hex.EncodeToString(buf))
}

func newPaymentRow(booking *models.Booking, txRef string, result *models.InitiateResult) *models.Payment {
	now := nowUTC()

	p := &models.Payment{
		ID:                   uuid.New(),
		BookingID:            booking.ID,
		BookingReference:     booking.BookingReference,
		TransactionReference: txRef,
		Amount:               booking.TotalAmount,
		Currency:             "ETB",
		Status:               models.PaymentStatusPending,
		CheckoutURL:          result.CheckoutURL,
		PaymentResponse:      result.RawPayload,
		UserEmail:            booking.UserEmail,
		UserPhone:            booking.UserPhone,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if result.GatewayReference != "" {
		ref := result.GatewayReference
		p.GatewayReference = &ref
	}
	return p
}

func initiateResponse(p *models.Payment) *models.PaymentInitiateResponse {
	return &models.PaymentInitiateResponse{
		PaymentID:            p.ID,
		CheckoutURL:          p.CheckoutURL,
		TransactionReference: p.TransactionReference,
		Amount:               p.Amount,
		Currency:             p.Currency,
		Status:               p.Status,
	}
}

// splitEmailName derives placeholder name fields from the email local
// part, since bookings carry no explicit name.
func splitEmailName(email string) (string, string) {
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	if local == "" {
		local = "Guest"
	}
	return local, "Guest"
}
