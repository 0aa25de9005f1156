package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind identifies which message the dispatcher should deliver
type NotificationKind string

const (
	NotificationKindPaymentConfirmed NotificationKind = "payment_confirmed"
	NotificationKindPaymentFailed    NotificationKind = "payment_failed"
)

// NotificationIntent is the message enqueued by the payment state machine
// when a qualifying transition happens. The dispatcher owns delivery and
// its retry policy; the state machine only ever enqueues it once per
// transition.
type NotificationIntent struct {
	Kind       NotificationKind `json:"kind"`
	PaymentID  uuid.UUID        `json:"payment_id"`
	BookingID  uuid.UUID        `json:"booking_id"`
	Reason     string           `json:"reason,omitempty"`
	EnqueuedAt time.Time        `json:"enqueued_at"`
}
