package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/safarbet/safarbet/internal/pkg/models"
)

// BookingRepo defines the interface for booking and listing persistence
type BookingRepo interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	GetBookingByReference(ctx context.Context, ref uuid.UUID) (*models.Booking, error)
	ListBookingsByUserID(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	CancelBooking(ctx context.Context, id uuid.UUID) error
	HasOverlappingBooking(ctx context.Context, listingID uuid.UUID, checkIn, checkOut string) (bool, error)

	GetListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListListings(ctx context.Context, limit, offset int) ([]models.Listing, error)
}

// PaymentReader is the slice of the payment store the booking service
// needs for its read-only payment projection.
type PaymentReader interface {
	GetPaymentByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error)
}

// BookingUC defines the booking use cases
type BookingUC interface {
	CreateBooking(ctx context.Context, userID uuid.UUID, req models.BookingCreateRequest) (*models.Booking, error)
	GetBooking(ctx context.Context, callerID uuid.UUID, isAdmin bool, bookingID uuid.UUID) (*models.Booking, error)
	ListUserBookings(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	CancelBooking(ctx context.Context, callerID uuid.UUID, isAdmin bool, bookingID uuid.UUID) error
	GetPaymentStatus(ctx context.Context, callerID uuid.UUID, isAdmin bool, bookingID uuid.UUID) (*models.BookingPaymentStatus, error)

	GetListing(ctx context.Context, listingID uuid.UUID) (*models.Listing, error)
	ListListings(ctx context.Context, limit, offset int) ([]models.Listing, error)
}
