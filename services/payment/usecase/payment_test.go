package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safarbet/safarbet/internal/pkg/apperrors"
	"github.com/safarbet/safarbet/internal/pkg/models"
	"github.com/safarbet/safarbet/services/payment"
)

// fakeGW scripts gateway responses per call
type fakeGW struct {
	initiateResult *models.InitiateResult
	initiateErr    error
	initiateCalls  int

	verifyResult *models.VerifyResult
	verifyErr    error
	verifyCalls  int
}

func (f *fakeGW) Initiate(ctx context.Context, req models.InitiateRequest) (*models.InitiateResult, error) {
	f.initiateCalls++
	if f.initiateErr != nil {
		return nil, f.initiateErr
	}
	result := *f.initiateResult
	return &result, nil
}

func (f *fakeGW) Verify(ctx context.Context, txRef string) (*models.VerifyResult, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	result := *f.verifyResult
	return &result, nil
}

func testBooking(userID uuid.UUID) *models.Booking {
	return &models.Booking{
		ID:               uuid.New(),
		BookingReference: uuid.New(),
		UserID:           userID,
		ListingID:        uuid.New(),
		CheckInDate:      time.Now().UTC().AddDate(0, 0, 7),
		CheckOutDate:     time.Now().UTC().AddDate(0, 0, 10),
		NumberOfGuests:   2,
		TotalAmount:      decimal.RequireFromString("450.00"),
		Status:           models.BookingStatusPending,
		UserEmail:        "guest@example.com",
		UserPhone:        "+251911000000",
	}
}

func setupInitiateTest(t *testing.T, booking *models.Booking, gw *fakeGW) (payment.PaymentUC, *fakePaymentRepo, *fakeNotifier) {
	t.Helper()

	repo := newFakePaymentRepo()
	notifier := &fakeNotifier{}
	bookings := &fakeBookingRepo{bookings: map[uuid.UUID]*models.Booking{booking.ID: booking}}

	uc, err := NewPaymentUC(&models.Config{}, repo, bookings, gw, notifier)
	require.NoError(t, err)

	return uc, repo, notifier
}

func TestInitiatePayment_CreatesPendingPayment(t *testing.T) {
	userID := uuid.New()
	booking := testBooking(userID)
	gw := &fakeGW{initiateResult: &models.InitiateResult{
		CheckoutURL:      "https://checkout.chapa.co/pay/abc",
		GatewayReference: "chapa-ref-1",
	}}
	uc, repo, _ := setupInitiateTest(t, booking, gw)

	resp, err := uc.InitiatePayment(context.Background(), userID, false, models.PaymentInitiateRequest{BookingID: booking.ID})
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.chapa.co/pay/abc", resp.CheckoutURL)
	assert.Equal(t, models.PaymentStatusPending, resp.Status)
	assert.True(t, strings.HasPrefix(resp.TransactionReference, "TXN-"+booking.BookingReference.String()+"-"))
	assert.True(t, resp.Amount.Equal(booking.TotalAmount))

	stored, err := repo.GetPaymentByBookingID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, stored.Status)
	assert.Equal(t, "ETB", stored.Currency)
}

func TestInitiatePayment_PendingReturnsSameSession(t *testing.T) {
	userID := uuid.New()
	booking := testBooking(userID)
	gw := &fakeGW{initiateResult: &models.InitiateResult{CheckoutURL: "https://checkout.chapa.co/pay/abc"}}
	uc, _, _ := setupInitiateTest(t, booking, gw)

	first, err := uc.InitiatePayment(context.Background(), userID, false, models.PaymentInitiateRequest{BookingID: booking.ID})
	require.NoError(t, err)

	second, err := uc.InitiatePayment(context.Background(), userID, false, models.PaymentInitiateRequest{BookingID: booking.ID})
	require.NoError(t, err)

	assert.Equal(t, first.TransactionReference, second.TransactionReference)
	assert.Equal(t, first.CheckoutURL, second.CheckoutURL)
	assert.Equal(t, 1, gw.initiateCalls, "replay must not start a second checkout")
}

func TestInitiatePayment_CompletedIsConflict(t *testing.T) {
	userID := uuid.New()
	booking := testBooking(userID)
	gw := &fakeGW{initiateResult: &models.InitiateResult{CheckoutURL: "https://checkout.chapa.co/pay/abc"}}
	uc, repo, _ := setupInitiateTest(t, booking, gw)

	p := pendingPayment("TXN-done")
	p.BookingID = booking.ID
	p.Status = models.PaymentStatusCompleted
	repo.put(p)

	_, err := uc.InitiatePayment(context.Background(), userID, false, models.PaymentInitiateRequest{BookingID: booking.ID})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, 0, gw.initiateCalls)
}

func TestInitiatePayment_FailedGetsFreshAttempt(t *testing.T) {
	userID := uuid.New()
	booking := testBooking(userID)
	gw := &fakeGW{initiateResult: &models.InitiateResult{CheckoutURL: "https://checkout.chapa.co/pay/retry"}}
	uc, repo, _ := setupInitiateTest(t, booking, gw)

	p := pendingPayment("TXN-old")
	p.BookingID = booking.ID
	p.Status = models.PaymentStatusFailed
	repo.put(p)

	resp, err := uc.InitiatePayment(context.Background(), userID, false, models.PaymentInitiateRequest{BookingID: booking.ID})
	require.NoError(t, err)

	assert.NotEqual(t, "TXN-old", resp.TransactionReference)
	assert.Equal(t, "https://checkout.chapa.co/pay/retry", resp.CheckoutURL)
	assert.Equal(t, p.ID, resp.PaymentID, "retry reuses the payment row")

	fresh, err := repo.GetPaymentByBookingID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, fresh.Status)
}

func TestInitiatePayment_GatewayFailureLeavesNoRow(t *testing.T) {
	userID := uuid.New()
	booking := testBooking(userID)
	gw := &fakeGW{initiateErr: apperrors.New(apperrors.KindGatewayNetwork, "gateway request failed")}
	uc, repo, _ := setupInitiateTest(t, booking, gw)

	_, err := uc.InitiatePayment(context.Background(), userID, false, models.PaymentInitiateRequest{BookingID: booking.ID})
	require.Error(t, err)
	assert.True(t, apperrors.IsGatewayNetwork(err))

	_, err = repo.GetPaymentByBookingID(context.Background(), booking.ID)
	assert.True(t, apperrors.IsNotFound(err), "no payment row may survive a failed initiation")
}

func TestInitiatePayment_OwnershipEnforced(t *testing.T) {
	booking := testBooking(uuid.New())
	gw := &fakeGW{initiateResult: &models.InitiateResult{CheckoutURL: "https://checkout.chapa.co/pay/abc"}}
	uc, _, _ := setupInitiateTest(t, booking, gw)

	stranger := uuid.New()
	_, err := uc.InitiatePayment(context.Background(), stranger, false, models.PaymentInitiateRequest{BookingID: booking.ID})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission))

	// Admins may initiate on behalf of the user.
	_, err = uc.InitiatePayment(context.Background(), stranger, true, models.PaymentInitiateRequest{BookingID: booking.ID})
	assert.NoError(t, err)
}

func TestInitiatePayment_CancelledBookingRejected(t *testing.T) {
	userID := uuid.New()
	booking := testBooking(userID)
	booking.Status = models.BookingStatusCancelled
	gw := &fakeGW{initiateResult: &models.InitiateResult{CheckoutURL: "https://checkout.chapa.co/pay/abc"}}
	uc, _, _ := setupInitiateTest(t, booking, gw)

	_, err := uc.InitiatePayment(context.Background(), userID, false, models.PaymentInitiateRequest{BookingID: booking.ID})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestVerifyPayment_AppliesGatewayOutcome(t *testing.T) {
	userID := uuid.New()
	booking := testBooking(userID)
	gw := &fakeGW{verifyResult: &models.VerifyResult{Status: models.GatewayStatusSuccess}}
	uc, repo, notifier := setupInitiateTest(t, booking, gw)

	p := pendingPayment("TXN-verify")
	p.BookingID = booking.ID
	repo.put(p)

	result, err := uc.VerifyPayment(context.Background(), userID, false, "TXN-verify")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, result.Status)
	assert.Equal(t, 1, notifier.count())
}

func TestVerifyPayment_NetworkErrorLeavesPaymentPending(t *testing.T) {
	userID := uuid.New()
	booking := testBooking(userID)
	gw := &fakeGW{verifyErr: apperrors.New(apperrors.KindGatewayNetwork, "gateway request failed")}
	uc, repo, notifier := setupInitiateTest(t, booking, gw)

	p := pendingPayment("TXN-net")
	p.BookingID = booking.ID
	repo.put(p)

	_, err := uc.VerifyPayment(context.Background(), userID, false, "TXN-net")
	require.Error(t, err)
	assert.True(t, apperrors.IsGatewayNetwork(err))

	stored, err := repo.GetPaymentByTransactionRef(context.Background(), "TXN-net")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, stored.Status)
	assert.Equal(t, 0, notifier.count())
}

func TestVerifyPayment_GatewayRejectionMarksFailed(t *testing.T) {
	userID := uuid.New()
	booking := testBooking(userID)
	gw := &fakeGW{verifyErr: apperrors.New(apperrors.KindGatewayRejected, "transaction declined")}
	uc, repo, _ := setupInitiateTest(t, booking, gw)

	p := pendingPayment("TXN-rej")
	p.BookingID = booking.ID
	repo.put(p)

	_, err := uc.VerifyPayment(context.Background(), userID, false, "TXN-rej")
	require.Error(t, err)
	assert.True(t, apperrors.IsGatewayRejected(err))

	stored, err := repo.GetPaymentByTransactionRef(context.Background(), "TXN-rej")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, stored.Status)
}

func TestProcessWebhook_UnknownReferenceAcknowledged(t *testing.T) {
	userID := uuid.New()
	booking := testBooking(userID)
	uc, _, notifier := setupInitiateTest(t, booking, &fakeGW{})

	err := uc.ProcessWebhook(context.Background(), models.WebhookPayload{TxRef: "TXN-nope", Status: "success"})
	assert.NoError(t, err, "unknown references are dropped, not errored")
	assert.Equal(t, 0, notifier.count())
}

func TestProcessWebhook_TrxRefFieldAccepted(t *testing.T) {
	userID := uuid.New()
	booking := testBooking(userID)
	uc, repo, _ := setupInitiateTest(t, booking, &fakeGW{})

	p := pendingPayment("TXN-alt")
	p.BookingID = booking.ID
	repo.put(p)

	err := uc.ProcessWebhook(context.Background(), models.WebhookPayload{TrxRef: "TXN-alt", Status: "success"})
	require.NoError(t, err)

	stored, err := repo.GetPaymentByTransactionRef(context.Background(), "TXN-alt")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, stored.Status)
}

func TestNewTransactionReference_Format(t *testing.T) {
	ref := uuid.New()
	txRef := newTransactionReference(ref)

	assert.True(t, strings.HasPrefix(txRef, "TXN-"+ref.String()+"-"))
	suffix := strings.TrimPrefix(txRef, "TXN-"+ref.String()+"-")
	assert.Len(t, suffix, 8)

	assert.NotEqual(t, txRef, newTransactionReference(ref))
}
