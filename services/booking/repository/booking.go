package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/safarbet/safarbet/internal/pkg/apperrors"
	"github.com/safarbet/safarbet/internal/pkg/models"
)

const bookingColumns = `
	id, booking_reference, user_id, listing_id, check_in_date, check_out_date,
	number_of_guests, total_amount, status, user_email, user_phone, created_at, updated_at`

// BookingRepo is the PostgreSQL booking and listing repository
type BookingRepo struct {
	cfg *models.Config
	db  *sqlx.DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(cfg *models.Config, db *sqlx.DB) *BookingRepo {
	return &BookingRepo{
		cfg: cfg,
		db:  db,
	}
}

// CreateBooking inserts a new pending booking
func (r *BookingRepo) CreateBooking(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (
			id, booking_reference, user_id, listing_id, check_in_date, check_out_date,
			number_of_guests, total_amount, status, user_email, user_phone, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		b.ID,
		b.BookingReference,
		b.UserID,
		b.ListingID,
		b.CheckInDate,
		b.CheckOutDate,
		b.NumberOfGuests,
		b.TotalAmount,
		b.Status,
		b.UserEmail,
		b.UserPhone,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// GetBookingByID retrieves a booking by its identifier
func (r *BookingRepo) GetBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return r.getBooking(ctx, "id = $1", id)
}

// GetBookingByReference retrieves a booking by its public reference
func (r *BookingRepo) GetBookingByReference(ctx context.Context, ref uuid.UUID) (*models.Booking, error) {
	return r.getBooking(ctx, "booking_reference = $1", ref)
}

func (r *BookingRepo) getBooking(ctx context.Context, where string, arg interface{}) (*models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE %s", bookingColumns, where)

	var b models.Booking
	if err := r.db.GetContext(ctx, &b, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindNotFound, "booking not found")
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &b, nil
}

// ListBookingsByUserID returns the user's bookings, newest first
func (r *BookingRepo) ListBookingsByUserID(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE user_id = $1 ORDER BY created_at DESC", bookingColumns)

	bookings := []models.Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, nil
}

// CancelBooking marks a pending booking as cancelled. Confirmed bookings
// are not cancellable through this path.
func (r *BookingRepo) CancelBooking(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query, id, models.BookingStatusCancelled, models.BookingStatusPending)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read cancel result: %w", err)
	}
	if rows == 0 {
		return apperrors.New(apperrors.KindConflict, "only pending bookings can be cancelled")
	}

	return nil
}

// HasOverlappingBooking reports whether any confirmed or pending booking
// on the listing overlaps the requested date range.
func (r *BookingRepo) HasOverlappingBooking(ctx context.Context, listingID uuid.UUID, checkIn, checkOut string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE listing_id = $1
			  AND status IN ('pending', 'confirmed')
			  AND check_in_date < $3
			  AND check_out_date > $2
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, listingID, checkIn, checkOut); err != nil {
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}

	return exists, nil
}

// GetListingByID retrieves a listing by its identifier
func (r *BookingRepo) GetListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	query := `
		SELECT id, title, description, location, price_per_night, available, created_at, updated_at
		FROM listings WHERE id = $1
	`

	var l models.Listing
	if err := r.db.GetContext(ctx, &l, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindNotFound, "listing not found")
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	return &l, nil
}

// ListListings returns available listings with pagination
func (r *BookingRepo) ListListings(ctx context.Context, limit, offset int) ([]models.Listing, error) {
	query := `
		SELECT id, title, description, location, price_per_night, available, created_at, updated_at
		FROM listings
		WHERE available = TRUE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	listings := []models.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	return listings, nil
}
