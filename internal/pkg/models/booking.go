package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Booking represents a stay booked by a user.
// Status moves pending -> confirmed only through the payment state machine.
type Booking struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	BookingReference uuid.UUID       `json:"booking_reference" db:"booking_reference"`
	UserID           uuid.UUID       `json:"user_id" db:"user_id"`
	ListingID        uuid.UUID       `json:"listing_id" db:"listing_id"`
	CheckInDate      time.Time       `json:"check_in_date" db:"check_in_date"`
	CheckOutDate     time.Time       `json:"check_out_date" db:"check_out_date"`
	NumberOfGuests   int             `json:"number_of_guests" db:"number_of_guests"`
	TotalAmount      decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status           BookingStatus   `json:"status" db:"status"`
	UserEmail        string          `json:"user_email" db:"user_email"`
	UserPhone        string          `json:"user_phone" db:"user_phone"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// Nights returns the length of the stay in nights
func (b *Booking) Nights() int {
	return int(b.CheckOutDate.Sub(b.CheckInDate).Hours() / 24)
}

// BookingCreateRequest is the payload for creating a booking
type BookingCreateRequest struct {
	ListingID      uuid.UUID `json:"listing_id"`
	CheckInDate    string    `json:"check_in_date"`  // YYYY-MM-DD
	CheckOutDate   string    `json:"check_out_date"` // YYYY-MM-DD
	NumberOfGuests int       `json:"number_of_guests"`
	UserEmail      string    `json:"user_email"`
	UserPhone      string    `json:"user_phone"`
}

// BookingPaymentStatus is the read-only payment projection for a booking
type BookingPaymentStatus struct {
	BookingReference uuid.UUID       `json:"booking_reference"`
	PaymentExists    bool            `json:"payment_exists"`
	PaymentID        *uuid.UUID      `json:"payment_id,omitempty"`
	PaymentStatus    PaymentStatus   `json:"payment_status,omitempty"`
	Amount           decimal.Decimal `json:"amount,omitempty"`
	CheckoutURL      string          `json:"checkout_url,omitempty"`
}
