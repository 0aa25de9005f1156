package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safarbet/safarbet/internal/pkg/apperrors"
	"github.com/safarbet/safarbet/internal/pkg/models"
	"github.com/safarbet/safarbet/services/booking"
)

// fakeBookingRepo is an in-memory booking and listing store
type fakeBookingRepo struct {
	listings  map[uuid.UUID]*models.Listing
	bookings  map[uuid.UUID]*models.Booking
	overlap   bool
	createErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		listings: make(map[uuid.UUID]*models.Listing),
		bookings: make(map[uuid.UUID]*models.Booking),
	}
}

func (f *fakeBookingRepo) CreateBooking(ctx context.Context, b *models.Booking) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeBookingRepo) GetBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "booking not found")
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookingRepo) GetBookingByReference(ctx context.Context, ref uuid.UUID) (*models.Booking, error) {
	for _, b := range f.bookings {
		if b.BookingReference == ref {
			cp := *b
			return &cp, nil
		}
	}
	return nil, apperrors.New(apperrors.KindNotFound, "booking not found")
}

func (f *fakeBookingRepo) ListBookingsByUserID(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	out := []models.Booking{}
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) CancelBooking(ctx context.Context, id uuid.UUID) error {
	b, ok := f.bookings[id]
	if !ok {
		return apperrors.New(apperrors.KindNotFound, "booking not found")
	}
	if b.Status != models.BookingStatusPending {
		return apperrors.New(apperrors.KindConflict, "only pending bookings can be cancelled")
	}
	b.Status = models.BookingStatusCancelled
	return nil
}

func (f *fakeBookingRepo) HasOverlappingBooking(ctx context.Context, listingID uuid.UUID, checkIn, checkOut string) (bool, error) {
	return f.overlap, nil
}

func (f *fakeBookingRepo) GetListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "listing not found")
	}
	cp := *l
	return &cp, nil
}

func (f *fakeBookingRepo) ListListings(ctx context.Context, limit, offset int) ([]models.Listing, error) {
	out := []models.Listing{}
	for _, l := range f.listings {
		if l.Available {
			out = append(out, *l)
		}
	}
	return out, nil
}

// fakePaymentReader serves payments by booking ID
type fakePaymentReader struct {
	payments map[uuid.UUID]*models.Payment
}

func (f *fakePaymentReader) GetPaymentByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error) {
	p, ok := f.payments[bookingID]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "payment not found")
	}
	cp := *p
	return &cp, nil
}

func testListing() *models.Listing {
	return &models.Listing{
		ID:            uuid.New(),
		Title:         "Lakeside Lodge",
		Location:      "Bahir Dar",
		PricePerNight: decimal.RequireFromString("150.00"),
		Available:     true,
	}
}

func setupBookingTest(t *testing.T) (booking.BookingUC, *fakeBookingRepo, *fakePaymentReader, *models.Listing) {
	t.Helper()

	repo := newFakeBookingRepo()
	payments := &fakePaymentReader{payments: make(map[uuid.UUID]*models.Payment)}

	listing := testListing()
	repo.listings[listing.ID] = listing

	uc, err := NewBookingUC(&models.Config{}, repo, payments)
	require.NoError(t, err)

	return uc, repo, payments, listing
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(dateLayout)
}

func validCreateRequest(listingID uuid.UUID) models.BookingCreateRequest {
	return models.BookingCreateRequest{
		ListingID:      listingID,
		CheckInDate:    futureDate(7),
		CheckOutDate:   futureDate(10),
		NumberOfGuests: 2,
		UserEmail:      "guest@example.com",
		UserPhone:      "+251911000000",
	}
}

func TestCreateBooking_TotalIsPriceTimesNights(t *testing.T) {
	uc, _, _, listing := setupBookingTest(t)

	b, err := uc.CreateBooking(context.Background(), uuid.New(), validCreateRequest(listing.ID))
	require.NoError(t, err)

	// 3 nights at 150.00
	assert.True(t, b.TotalAmount.Equal(decimal.RequireFromString("450.00")), "got %s", b.TotalAmount)
	assert.Equal(t, models.BookingStatusPending, b.Status)
	assert.NotEqual(t, uuid.Nil, b.BookingReference)
}

func TestCreateBooking_Validation(t *testing.T) {
	uc, _, _, listing := setupBookingTest(t)
	userID := uuid.New()

	testCases := []struct {
		name   string
		mutate func(req *models.BookingCreateRequest)
	}{
		{"checkout before checkin", func(req *models.BookingCreateRequest) {
			req.CheckInDate = futureDate(10)
			req.CheckOutDate = futureDate(7)
		}},
		{"same day stay", func(req *models.BookingCreateRequest) {
			req.CheckOutDate = req.CheckInDate
		}},
		{"checkin in the past", func(req *models.BookingCreateRequest) {
			req.CheckInDate = "2020-01-01"
			req.CheckOutDate = "2020-01-05"
		}},
		{"zero guests", func(req *models.BookingCreateRequest) {
			req.NumberOfGuests = 0
		}},
		{"too many guests", func(req *models.BookingCreateRequest) {
			req.NumberOfGuests = maxGuestsPerStay + 1
		}},
		{"bad date format", func(req *models.BookingCreateRequest) {
			req.CheckInDate = "07/12/2026"
		}},
		{"missing email", func(req *models.BookingCreateRequest) {
			req.UserEmail = ""
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateRequest(listing.ID)
			tc.mutate(&req)

			_, err := uc.CreateBooking(context.Background(), userID, req)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err), "want validation error, got %v", err)
		})
	}
}

func TestCreateBooking_UnavailableListing(t *testing.T) {
	uc, repo, _, listing := setupBookingTest(t)
	repo.listings[listing.ID].Available = false

	_, err := uc.CreateBooking(context.Background(), uuid.New(), validCreateRequest(listing.ID))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestCreateBooking_OverlappingDates(t *testing.T) {
	uc, repo, _, listing := setupBookingTest(t)
	repo.overlap = true

	_, err := uc.CreateBooking(context.Background(), uuid.New(), validCreateRequest(listing.ID))
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestCreateBooking_UnknownListing(t *testing.T) {
	uc, _, _, _ := setupBookingTest(t)

	_, err := uc.CreateBooking(context.Background(), uuid.New(), validCreateRequest(uuid.New()))
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetBooking_Ownership(t *testing.T) {
	uc, _, _, listing := setupBookingTest(t)
	owner := uuid.New()

	b, err := uc.CreateBooking(context.Background(), owner, validCreateRequest(listing.ID))
	require.NoError(t, err)

	got, err := uc.GetBooking(context.Background(), owner, false, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = uc.GetBooking(context.Background(), uuid.New(), false, b.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission))

	_, err = uc.GetBooking(context.Background(), uuid.New(), true, b.ID)
	assert.NoError(t, err, "admins can read any booking")
}

func TestCancelBooking_OnlyPending(t *testing.T) {
	uc, repo, _, listing := setupBookingTest(t)
	owner := uuid.New()

	b, err := uc.CreateBooking(context.Background(), owner, validCreateRequest(listing.ID))
	require.NoError(t, err)

	require.NoError(t, uc.CancelBooking(context.Background(), owner, false, b.ID))
	assert.Equal(t, models.BookingStatusCancelled, repo.bookings[b.ID].Status)

	// A confirmed booking cannot be cancelled through this path.
	confirmed, err := uc.CreateBooking(context.Background(), owner, validCreateRequest(listing.ID))
	require.NoError(t, err)
	repo.bookings[confirmed.ID].Status = models.BookingStatusConfirmed

	err = uc.CancelBooking(context.Background(), owner, false, confirmed.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestGetPaymentStatus_NoPayment(t *testing.T) {
	uc, _, _, listing := setupBookingTest(t)
	owner := uuid.New()

	b, err := uc.CreateBooking(context.Background(), owner, validCreateRequest(listing.ID))
	require.NoError(t, err)

	status, err := uc.GetPaymentStatus(context.Background(), owner, false, b.ID)
	require.NoError(t, err)
	assert.False(t, status.PaymentExists)
	assert.Equal(t, b.BookingReference, status.BookingReference)
}

func TestGetPaymentStatus_PendingExposesCheckoutURL(t *testing.T) {
	uc, _, payments, listing := setupBookingTest(t)
	owner := uuid.New()

	b, err := uc.CreateBooking(context.Background(), owner, validCreateRequest(listing.ID))
	require.NoError(t, err)

	paymentID := uuid.New()
	payments.payments[b.ID] = &models.Payment{
		ID:          paymentID,
		BookingID:   b.ID,
		Status:      models.PaymentStatusPending,
		Amount:      b.TotalAmount,
		CheckoutURL: "https://checkout.chapa.co/pay/x",
	}

	status, err := uc.GetPaymentStatus(context.Background(), owner, false, b.ID)
	require.NoError(t, err)
	assert.True(t, status.PaymentExists)
	assert.Equal(t, &paymentID, status.PaymentID)
	assert.Equal(t, "https://checkout.chapa.co/pay/x", status.CheckoutURL)
}

func TestGetPaymentStatus_CompletedHidesCheckoutURL(t *testing.T) {
	uc, _, payments, listing := setupBookingTest(t)
	owner := uuid.New()

	b, err := uc.CreateBooking(context.Background(), owner, validCreateRequest(listing.ID))
	require.NoError(t, err)

	payments.payments[b.ID] = &models.Payment{
		ID:          uuid.New(),
		BookingID:   b.ID,
		Status:      models.PaymentStatusCompleted,
		Amount:      b.TotalAmount,
		CheckoutURL: "https://checkout.chapa.co/pay/x",
	}

	status, err := uc.GetPaymentStatus(context.Background(), owner, false, b.ID)
	require.NoError(t, err)
	assert.True(t, status.PaymentExists)
	assert.Equal(t, models.PaymentStatusCompleted, status.PaymentStatus)
	assert.Empty(t, status.CheckoutURL, "a settled payment has no live checkout session")
}

func TestListListings_PaginationDefaults(t *testing.T) {
	uc, repo, _, _ := setupBookingTest(t)

	hidden := testListing()
	hidden.Available = false
	repo.listings[hidden.ID] = hidden

	listings, err := uc.ListListings(context.Background(), -5, -1)
	require.NoError(t, err)
	for _, l := range listings {
		assert.True(t, l.Available)
	}
}
