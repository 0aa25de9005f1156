package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/safarbet/safarbet/internal/pkg/apperrors"
	"github.com/safarbet/safarbet/internal/pkg/logger"
	"github.com/safarbet/safarbet/internal/pkg/models"
	"github.com/safarbet/safarbet/services/payment"
)

const paymentColumns = `
	id, booking_id, booking_reference, transaction_reference, gateway_reference,
	amount, currency, status, checkout_url, payment_response, verification_response,
	error_message, user_email, user_phone, created_at, updated_at, completed_at`

// PaymentRepo is the PostgreSQL payment repository
type PaymentRepo struct {
	cfg *models.Config
	db  *sqlx.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(cfg *models.Config, db *sqlx.DB) *PaymentRepo {
	return &PaymentRepo{
		cfg: cfg,
		db:  db,
	}
}

// CreatePayment inserts a new pending payment row. The unique constraint
// on booking_id enforces the one-payment-per-booking invariant; a
// violation surfaces as a conflict so the caller can fall back to the
// existing row.
func (r *PaymentRepo) CreatePayment(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (
			id, booking_id, booking_reference, transaction_reference, gateway_reference,
			amount, currency, status, checkout_url, payment_response,
			user_email, user_phone, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		p.ID,
		p.BookingID,
		p.BookingReference,
		p.TransactionReference,
		p.GatewayReference,
		p.Amount,
		p.Currency,
		p.Status,
		p.CheckoutURL,
		p.PaymentResponse,
		p.UserEmail,
		p.UserPhone,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Wrap(apperrors.KindConflict, "a payment already exists for this booking", err)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// ReinitiatePayment resets a failed or cancelled payment row for a fresh
// checkout attempt, preserving the one-row-per-booking invariant.
func (r *PaymentRepo) ReinitiatePayment(ctx context.Context, p *models.Payment) error {
	query := `
		UPDATE payments
		SET transaction_reference = $2,
			gateway_reference = $3,
			status = $4,
			checkout_url = $5,
			payment_response = $6,
			error_message = NULL,
			updated_at = $7
		WHERE id = $1 AND status NOT IN ('completed', 'pending')
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		p.ID,
		p.TransactionReference,
		p.GatewayReference,
		p.Status,
		p.CheckoutURL,
		p.PaymentResponse,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to reinitiate payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read reinitiate result: %w", err)
	}
	if rows == 0 {
		return apperrors.New(apperrors.KindConflict, "payment is no longer eligible for reinitiation")
	}

	return nil
}

// GetPaymentByID retrieves a payment by its identifier
func (r *PaymentRepo) GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return r.getPayment(ctx, "id = $1", id)
}

// GetPaymentByBookingID retrieves the payment belonging to a booking
func (r *PaymentRepo) GetPaymentByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error) {
	return r.getPayment(ctx, "booking_id = $1", bookingID)
}

// GetPaymentByTransactionRef retrieves a payment by transaction reference
func (r *PaymentRepo) GetPaymentByTransactionRef(ctx context.Context, txRef string) (*models.Payment, error) {
	return r.getPayment(ctx, "transaction_reference = $1", txRef)
}

func (r *PaymentRepo) getPayment(ctx context.Context, where string, arg interface{}) (*models.Payment, error) {
	query := fmt.Sprintf("SELECT %s FROM payments WHERE %s", paymentColumns, where)

	var p models.Payment
	if err := r.db.GetContext(ctx, &p, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindNotFound, "payment not found")
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &p, nil
}

// ListPaymentsByUserID returns all payments for bookings owned by the user
func (r *PaymentRepo) ListPaymentsByUserID(ctx context.Context, userID uuid.UUID) ([]models.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE booking_id IN (SELECT id FROM bookings WHERE user_id = $1)
		ORDER BY created_at DESC`, paymentColumns)

	payments := []models.Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return payments, nil
}

// ListStalePendingRefs returns transaction references of payments still
// pending past the staleness cutoff, oldest first.
func (r *PaymentRepo) ListStalePendingRefs(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	query := `
		SELECT transaction_reference FROM payments
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	refs := []string{}
	if err := r.db.SelectContext(ctx, &refs, query, olderThan, limit); err != nil {
		return nil, fmt.Errorf("failed to list stale pending payments: %w", err)
	}

	return refs, nil
}

// ApplyTransition serializes concurrent signals for one payment behind a
// row lock: the payment is read under SELECT ... FOR UPDATE, decide picks
// the mutation, and the write (plus the booking confirmation when the
// payment completed) commits atomically.
func (r *PaymentRepo) ApplyTransition(ctx context.Context, txRef string, decide payment.TransitionFunc) (*models.Payment, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := fmt.Sprintf("SELECT %s FROM payments WHERE transaction_reference = $1 FOR UPDATE", paymentColumns)

	var p models.Payment
	if err := tx.GetContext(ctx, &p, query, txRef); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, apperrors.New(apperrors.KindNotFound, "payment not found")
		}
		return nil, false, fmt.Errorf("failed to lock payment: %w", err)
	}

	mut := decide(&p)
	if mut == nil {
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return &p, false, nil
	}

	now := time.Now().UTC()

	if mut.Transitions() {
		updateQuery := `
			UPDATE payments
			SET status = $2,
				error_message = NULLIF($3, ''),
				completed_at = $4,
				verification_response = COALESCE($5, verification_response),
				updated_at = $6
			WHERE transaction_reference = $1
		`
		if _, err := tx.ExecContext(ctx, updateQuery,
			txRef, mut.Status, mut.ErrorMessage, mut.CompletedAt, mut.RawPayload, now); err != nil {
			return nil, false, fmt.Errorf("failed to update payment: %w", err)
		}

		if mut.ConfirmBooking {
			confirmQuery := `
				UPDATE bookings
				SET status = $2, updated_at = $3
				WHERE id = $1 AND status = $4
			`
			if _, err := tx.ExecContext(ctx, confirmQuery,
				p.BookingID, models.BookingStatusConfirmed, now, models.BookingStatusPending); err != nil {
				return nil, false, fmt.Errorf("failed to confirm booking: %w", err)
			}
		}
	} else if len(mut.RawPayload) > 0 {
		// Audit-only write: keep the latest gateway payload without a
		// status transition.
		auditQuery := `
			UPDATE payments
			SET verification_response = $2, updated_at = $3
			WHERE transaction_reference = $1
		`
		if _, err := tx.ExecContext(ctx, auditQuery, txRef, mut.RawPayload, now); err != nil {
			return nil, false, fmt.Errorf("failed to record gateway payload: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	transitioned := mut.Transitions()
	if transitioned {
		logger.Info("Payment transitioned",
			logger.String("transaction_reference", txRef),
			logger.String("from", string(p.Status)),
			logger.String("to", string(mut.Status)))

		p.Status = mut.Status
		p.CompletedAt = mut.CompletedAt
		if mut.ErrorMessage != "" {
			msg := mut.ErrorMessage
			p.ErrorMessage = &msg
		}
	}
	if len(mut.RawPayload) > 0 {
		p.VerificationResponse = mut.RawPayload
	}
	p.UpdatedAt = now

	return &p, transitioned, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
