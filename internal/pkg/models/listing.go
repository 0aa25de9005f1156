package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Listing represents a travel listing/property available for booking
type Listing struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Title         string          `json:"title" db:"title"`
	Description   string          `json:"description" db:"description"`
	Location      string          `json:"location" db:"location"`
	PricePerNight decimal.Decimal `json:"price_per_night" db:"price_per_night"`
	Available     bool            `json:"available" db:"available"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}
