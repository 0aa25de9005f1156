package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/safarbet/safarbet/internal/pkg/apperrors"
	"github.com/safarbet/safarbet/internal/pkg/logger"
	"github.com/safarbet/safarbet/internal/pkg/models"
	"github.com/shopspring/decimal"

	"github.com/safarbet/safarbet/services/booking"
)

const (
	dateLayout         = "2006-01-02"
	defaultListLimit   = 20
	maxGuestsPerStay   = 16
	maxBookingHorizonY = 2
)

// bookingUC implements the booking.BookingUC interface
type bookingUC struct {
	cfg         *models.Config
	bookingRepo booking.BookingRepo
	payments    booking.PaymentReader
}

// NewBookingUC creates a new booking use case
func NewBookingUC(
	cfg *models.Config,
	bookingRepo booking.BookingRepo,
	payments booking.PaymentReader,
) (booking.BookingUC, error) {
	return &bookingUC{
		cfg:         cfg,
		bookingRepo: bookingRepo,
		payments:    payments,
	}, nil
}

// CreateBooking validates the stay and creates a pending booking. The
// total is the listing's nightly price times the number of nights;
// confirmation only ever happens through a completed payment.
func (uc *bookingUC) CreateBooking(ctx context.Context, userID uuid.UUID, req models.BookingCreateRequest) (*models.Booking, error) {
	checkIn, checkOut, err := parseStayDates(req.CheckInDate, req.CheckOutDate)
	if err != nil {
		return nil, err
	}
	if req.NumberOfGuests < 1 {
		return nil, apperrors.New(apperrors.KindValidation, "number_of_guests must be at least 1")
	}
	if req.NumberOfGuests > maxGuestsPerStay {
		return nil, apperrors.Newf(apperrors.KindValidation, "number_of_guests may not exceed %d", maxGuestsPerStay)
	}
	if req.UserEmail == "" {
		return nil, apperrors.New(apperrors.KindValidation, "user_email is required")
	}

	listing, err := uc.bookingRepo.GetListingByID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if !listing.Available {
		return nil, apperrors.New(apperrors.KindValidation, "listing is not available for booking")
	}

	overlap, err := uc.bookingRepo.HasOverlappingBooking(ctx, listing.ID, req.CheckInDate, req.CheckOutDate)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, apperrors.New(apperrors.KindConflict, "listing is already booked for those dates")
	}

	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	total := listing.PricePerNight.Mul(decimal.NewFromInt(int64(nights)))

	now := time.Now().UTC()
	b := &models.Booking{
		ID:               uuid.New(),
		BookingReference: uuid.New(),
		UserID:           userID,
		ListingID:        listing.ID,
		CheckInDate:      checkIn,
		CheckOutDate:     checkOut,
		NumberOfGuests:   req.NumberOfGuests,
		TotalAmount:      total,
		Status:           models.BookingStatusPending,
		UserEmail:        req.UserEmail,
		UserPhone:        req.UserPhone,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := uc.bookingRepo.CreateBooking(ctx, b); err != nil {
		return nil, err
	}

	logger.Info("Booking created",
		logger.String("booking_id", b.ID.String()),
		logger.String("listing_id", listing.ID.String()),
		logger.Int("nights", nights),
		logger.String("total_amount", total.StringFixed(2)))

	return b, nil
}

// GetBooking returns a booking the caller is allowed to see
func (uc *bookingUC) GetBooking(ctx context.Context, callerID uuid.UUID, isAdmin bool, bookingID uuid.UUID) (*models.Booking, error) {
	b, err := uc.bookingRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && b.UserID != callerID {
		return nil, apperrors.New(apperrors.KindPermission, "you do not own this booking")
	}
	return b, nil
}

// ListUserBookings returns all bookings belonging to the user
func (uc *bookingUC) ListUserBookings(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	return uc.bookingRepo.ListBookingsByUserID(ctx, userID)
}

// CancelBooking cancels a pending booking owned by the caller
func (uc *bookingUC) CancelBooking(ctx context.Context, callerID uuid.UUID, isAdmin bool, bookingID uuid.UUID) error {
	b, err := uc.bookingRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if !isAdmin && b.UserID != callerID {
		return apperrors.New(apperrors.KindPermission, "you do not own this booking")
	}
	return uc.bookingRepo.CancelBooking(ctx, bookingID)
}

// GetPaymentStatus returns the read-only payment projection for a
// booking. A booking without a payment is a valid state, not an error.
func (uc *bookingUC) GetPaymentStatus(ctx context.Context, callerID uuid.UUID, isAdmin bool, bookingID uuid.UUID) (*models.BookingPaymentStatus, error) {
	b, err := uc.bookingRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && b.UserID != callerID {
		return nil, apperrors.New(apperrors.KindPermission, "you do not own this booking")
	}

	status := &models.BookingPaymentStatus{
		BookingReference: b.BookingReference,
	}

	p, err := uc.payments.GetPaymentByBookingID(ctx, b.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return status, nil
		}
		return nil, err
	}

	status.PaymentExists = true
	status.PaymentID = &p.ID
	status.PaymentStatus = p.Status
	status.Amount = p.Amount
	if p.Status == models.PaymentStatusPending {
		status.CheckoutURL = p.CheckoutURL
	}

	return status, nil
}

// GetListing returns a single listing
func (uc *bookingUC) GetListing(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	return uc.bookingRepo.GetListingByID(ctx, listingID)
}

// ListListings returns available listings with sane pagination defaults
func (uc *bookingUC) ListListings(ctx context.Context, limit, offset int) ([]models.Listing, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return uc.bookingRepo.ListListings(ctx, limit, offset)
}

// parseStayDates validates and parses the check-in/check-out pair
func parseStayDates(in, out string) (time.Time, time.Time, error) {
	checkIn, err := time.Parse(dateLayout, in)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.New(apperrors.KindValidation, "check_in_date must be YYYY-MM-DD")
	}
	checkOut, err := time.Parse(dateLayout, out)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.New(apperrors.KindValidation, "check_out_date must be YYYY-MM-DD")
	}

	if !checkOut.After(checkIn) {
		return time.Time{}, time.Time{}, apperrors.New(apperrors.KindValidation, "check_out_date must be after check_in_date")
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if checkIn.Before(today) {
		return time.Time{}, time.Time{}, apperrors.New(apperrors.KindValidation, "check_in_date may not be in the past")
	}
	if checkIn.After(today.AddDate(maxBookingHorizonY, 0, 0)) {
		return time.Time{}, time.Time{}, apperrors.New(apperrors.KindValidation, "check_in_date is too far in the future")
	}

	return checkIn, checkOut, nil
}
