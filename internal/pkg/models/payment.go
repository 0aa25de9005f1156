package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of a payment record
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// IsTerminal reports whether no new payment may be initiated over this status
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

// GatewayStatus is the normalized payment outcome reported by the gateway
type GatewayStatus string

const (
	GatewayStatusSuccess   GatewayStatus = "success"
	GatewayStatusFailed    GatewayStatus = "failed"
	GatewayStatusCancelled GatewayStatus = "cancelled"
	GatewayStatusPending   GatewayStatus = "pending"
	GatewayStatusUnknown   GatewayStatus = "unknown"
)

// NormalizeGatewayStatus maps a raw gateway status string onto the
// vocabulary the state machine understands. Anything unrecognized is
// treated as unknown rather than rejected.
func NormalizeGatewayStatus(raw string) GatewayStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success", "successful", "completed":
		return GatewayStatusSuccess
	case "failed", "failure", "error":
		return GatewayStatusFailed
	case "cancelled", "canceled":
		return GatewayStatusCancelled
	case "pending":
		return GatewayStatusPending
	default:
		return GatewayStatusUnknown
	}
}

// SignalSource identifies which channel delivered a payment outcome signal
type SignalSource string

const (
	SignalSourceVerify  SignalSource = "verify"
	SignalSourceWebhook SignalSource = "webhook"
	SignalSourceSweep   SignalSource = "sweep"
)

// Payment represents one payment attempt for a booking.
// Exactly one payment row exists per booking (unique booking_id).
type Payment struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	BookingID            uuid.UUID       `json:"booking_id" db:"booking_id"`
	BookingReference     uuid.UUID       `json:"booking_reference" db:"booking_reference"`
	TransactionReference string          `json:"transaction_reference" db:"transaction_reference"`
	GatewayReference     *string         `json:"gateway_reference,omitempty" db:"gateway_reference"`
	Amount               decimal.Decimal `json:"amount" db:"amount"`
	Currency             string          `json:"currency" db:"currency"`
	Status               PaymentStatus   `json:"status" db:"status"`
	CheckoutURL          string          `json:"checkout_url,omitempty" db:"checkout_url"`
	PaymentResponse      json.RawMessage `json:"-" db:"payment_response"`
	VerificationResponse json.RawMessage `json:"-" db:"verification_response"`
	ErrorMessage         *string         `json:"error_message,omitempty" db:"error_message"`
	UserEmail            string          `json:"-" db:"user_email"`
	UserPhone            string          `json:"-" db:"user_phone"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// PaymentMutation describes the write a signal transition wants applied
// to a locked payment row. A zero Status means no status transition;
// RawPayload is still persisted for audit in that case.
type PaymentMutation struct {
	Status         PaymentStatus
	ErrorMessage   string
	CompletedAt    *time.Time
	ConfirmBooking bool
	RawPayload     json.RawMessage
}

// Transitions reports whether the mutation changes the payment status
func (m *PaymentMutation) Transitions() bool {
	return m != nil && m.Status != ""
}

// PaymentInitiateRequest is the payload for initiating a payment
type PaymentInitiateRequest struct {
	BookingID   uuid.UUID `json:"booking_id"`
	ReturnURL   string    `json:"return_url"`
	CallbackURL string    `json:"callback_url,omitempty"`
}

// PaymentInitiateResponse is returned after a payment has been initiated
type PaymentInitiateResponse struct {
	PaymentID            uuid.UUID       `json:"payment_id"`
	CheckoutURL          string          `json:"checkout_url"`
	TransactionReference string          `json:"transaction_reference"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Status               PaymentStatus   `json:"status"`
}

// PaymentVerifyRequest is the payload for the synchronous verify endpoint
type PaymentVerifyRequest struct {
	TransactionReference string `json:"transaction_reference"`
}

// WebhookPayload is the untrusted payload delivered by the gateway.
// Chapa sends the reference as either tx_ref or trx_ref depending on event.
type WebhookPayload struct {
	TxRef  string `json:"tx_ref"`
	TrxRef string `json:"trx_ref"`
	Status string `json:"status"`
}

// Reference returns whichever transaction reference field is populated
func (w *WebhookPayload) Reference() string {
	if w.TxRef != "" {
		return w.TxRef
	}
	return w.TrxRef
}

// InitiateRequest is the gateway adapter input for starting a checkout
type InitiateRequest struct {
	Amount               decimal.Decimal
	Currency             string
	Email                string
	FirstName            string
	LastName             string
	PhoneNumber          string
	TransactionReference string
	CallbackURL          string
	ReturnURL            string
}

// InitiateResult is the normalized gateway response for Initiate
type InitiateResult struct {
	CheckoutURL      string
	GatewayReference string
	RawPayload       json.RawMessage
}

// VerifyResult is the normalized gateway response for Verify
type VerifyResult struct {
	Status     GatewayStatus
	RawPayload json.RawMessage
}
