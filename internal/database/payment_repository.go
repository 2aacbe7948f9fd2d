package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/omar10120/ksdora-backend/internal/lifecycle"
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/shopspring/decimal"
)

// PaymentRepository handles bill and payment database operations.
// Payment rows are append-only history: they are created pending and only
// ever transition to successful or failed.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// GetBillByBookingID retrieves a booking's bill. Returns nil, nil when absent.
func (r *PaymentRepository) GetBillByBookingID(bookingID uuid.UUID) (*models.Bill, error) {
	var bill models.Bill
	query := `
		SELECT id, booking_id, amount, status, created_at, updated_at
		FROM bills
		WHERE booking_id = $1`

	err := r.db.Get(&bill, query, bookingID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return &bill, nil
}

// GetBillByID retrieves a bill by ID. Returns nil, nil when absent.
func (r *PaymentRepository) GetBillByID(billID uuid.UUID) (*models.Bill, error) {
	var bill models.Bill
	query := `
		SELECT id, booking_id, amount, status, created_at, updated_at
		FROM bills
		WHERE id = $1`

	err := r.db.Get(&bill, query, billID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return &bill, nil
}

// GetPaymentByID retrieves a payment by ID. Returns nil, nil when not found.
func (r *PaymentRepository) GetPaymentByID(paymentID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	query := `
		SELECT id, bill_id, amount, method, status, transaction_id,
		       receipt_url, paid_at, created_at, updated_at
		FROM payments
		WHERE id = $1`

	err := r.db.Get(&payment, query, paymentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

// GetPaymentsByBillID returns a bill's payment history, oldest first
func (r *PaymentRepository) GetPaymentsByBillID(billID uuid.UUID) ([]models.Payment, error) {
	payments := []models.Payment{}
	query := `
		SELECT id, bill_id, amount, method, status, transaction_id,
		       receipt_url, paid_at, created_at, updated_at
		FROM payments
		WHERE bill_id = $1
		ORDER BY created_at`

	if err := r.db.Select(&payments, query, billID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// CreatePending records a new payment attempt against a bill. The single-
// outstanding-attempt rule, bill status and booking status are all checked
// under row locks in one transaction.
func (r *PaymentRepository) CreatePending(payment *models.Payment) error {
	now := time.Now()
	payment.ID = uuid.New()
	payment.Status = models.PaymentStatusPending
	payment.CreatedAt = now
	payment.UpdatedAt = now

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	bill, booking, err := getBillAndBookingForUpdateTx(tx, payment.BillID)
	if err != nil {
		return err
	}
	if bill == nil {
		return models.NewNotFoundError("bill not found")
	}
	if bill.Status == models.BillStatusPaid {
		return models.NewBusinessRuleError("bill already paid")
	}
	if booking.Status.IsTerminal() {
		return models.NewBusinessRuleError("booking already finalized (%s)", booking.Status)
	}

	var pendingCount int
	err = tx.Get(&pendingCount,
		`SELECT COUNT(*) FROM payments WHERE bill_id = $1 AND status = 'pending'`,
		payment.BillID,
	)
	if err != nil {
		return fmt.Errorf("failed to check outstanding payments: %w", err)
	}
	if pendingCount > 0 {
		return models.NewBusinessRuleError("a payment for this bill is still pending")
	}

	_, err = tx.Exec(`
		INSERT INTO payments (
			id, bill_id, amount, method, status, transaction_id,
			receipt_url, paid_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		payment.ID, payment.BillID, payment.Amount, payment.Method, payment.Status,
		payment.TransactionID, payment.ReceiptURL, payment.PaidAt, payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return tx.Commit()
}

// RecordGatewayResult stores the gateway outcome for a pending payment.
// Gateway success keeps the payment pending awaiting admin confirmation;
// failure finalizes it as failed without touching booking or bill.
func (r *PaymentRepository) RecordGatewayResult(paymentID uuid.UUID, success bool, transactionID string) error {
	var query string
	if success {
		query = `
			UPDATE payments
			SET transaction_id = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'pending'`
	} else {
		query = `
			UPDATE payments
			SET status = 'failed', transaction_id = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'pending'`
	}
	result, err := r.db.Exec(query, paymentID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to record gateway result: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.NewBusinessRuleError("payment is not pending")
	}
	return nil
}

// ConfirmOutcome reports what an admin confirmation changed
type ConfirmOutcome struct {
	Payment          *models.Payment
	BillPaid         bool
	BookingConfirmed bool
	RemainderLogged  bool
}

// Confirm marks a pending payment successful and cascades the method's
// confirmation rules over bill, booking and seats in one transaction.
// A cash confirmation records the out-of-band remainder as a synthetic
// successful payment so a paid bill is always fully covered by its
// successful payments.
func (r *PaymentRepository) Confirm(paymentID uuid.UUID, method lifecycle.Method) (*ConfirmOutcome, error) {
	now := time.Now()

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	payment, err := getPaymentForUpdateTx(tx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, models.NewNotFoundError("payment not found")
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, models.NewBusinessRuleError("payment is not pending (%s)", payment.Status)
	}

	bill, booking, err := getBillAndBookingForUpdateTx(tx, payment.BillID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, models.NewNotFoundError("bill not found")
	}
	if booking.Status.IsTerminal() {
		return nil, models.NewBusinessRuleError("booking already finalized (%s)", booking.Status)
	}

	_, err = tx.Exec(`
		UPDATE payments SET status = 'successful', paid_at = $2, updated_at = NOW()
		WHERE id = $1`,
		payment.ID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark payment successful: %w", err)
	}
	payment.Status = models.PaymentStatusSuccessful
	payment.PaidAt = &now

	var totalPaid decimal.Decimal
	err = tx.Get(&totalPaid, `
		SELECT COALESCE(SUM(amount), 0) FROM payments
		WHERE bill_id = $1 AND status = 'successful'`,
		payment.BillID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sum successful payments: %w", err)
	}

	decision := method.OnConfirm(bill.Amount, totalPaid)
	outcome := &ConfirmOutcome{Payment: payment}

	if decision.RemainderAmount.IsPositive() {
		remainderTxID := fmt.Sprintf("CASH-REMAINDER-%s", payment.ID)
		_, err = tx.Exec(`
			INSERT INTO payments (
				id, bill_id, amount, method, status, transaction_id,
				paid_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4, 'successful', $5, $6, $7, $8)`,
			uuid.New(), payment.BillID, decision.RemainderAmount, payment.Method,
			remainderTxID, now, now, now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to record remainder payment: %w", err)
		}
		outcome.RemainderLogged = true
	}

	if decision.MarkBillPaid && bill.Status != models.BillStatusPaid {
		_, err = tx.Exec(
			`UPDATE bills SET status = 'paid', updated_at = NOW() WHERE id = $1`,
			bill.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to mark bill paid: %w", err)
		}
		outcome.BillPaid = true
	}

	if decision.ConfirmBooking && booking.Status == models.BookingStatusPending {
		transition, err := lifecycle.Apply(booking.Status, lifecycle.EventConfirm)
		if err != nil {
			return nil, err
		}
		if err := applyEffectsTx(tx, booking.ID, transition); err != nil {
			return nil, err
		}
		_, err = tx.Exec(
			`UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`,
			booking.ID, transition.To,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to confirm booking: %w", err)
		}
		outcome.BookingConfirmed = true
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment confirmation: %w", err)
	}
	return outcome, nil
}

// Reject finalizes a pending payment as failed. Booking, bill and seats
// are untouched.
func (r *PaymentRepository) Reject(paymentID uuid.UUID) (*models.Payment, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	payment, err := getPaymentForUpdateTx(tx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, models.NewNotFoundError("payment not found")
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, models.NewBusinessRuleError("payment is not pending (%s)", payment.Status)
	}

	_, err = tx.Exec(
		`UPDATE payments SET status = 'failed', updated_at = NOW() WHERE id = $1`,
		payment.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reject payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment rejection: %w", err)
	}
	payment.Status = models.PaymentStatusFailed
	return payment, nil
}

// getPaymentForUpdateTx row-locks and loads one payment
func getPaymentForUpdateTx(tx *sqlx.Tx, paymentID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	query := `
		SELECT id, bill_id, amount, method, status, transaction_id,
		       receipt_url, paid_at, created_at, updated_at
		FROM payments
		WHERE id = $1
		FOR UPDATE`

	err := tx.Get(&payment, query, paymentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock payment row: %w", err)
	}
	return &payment, nil
}

// getBillAndBookingForUpdateTx row-locks a bill and its booking together.
// Locking both keeps concurrent confirmations and cancellations serialized.
func getBillAndBookingForUpdateTx(tx *sqlx.Tx, billID uuid.UUID) (*models.Bill, *models.Booking, error) {
	var bill models.Bill
	err := tx.Get(&bill, `
		SELECT id, booking_id, amount, status, created_at, updated_at
		FROM bills WHERE id = $1 FOR UPDATE`, billID)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock bill row: %w", err)
	}

	booking, err := getBookingForUpdateTx(tx, bill.BookingID)
	if err != nil {
		return nil, nil, err
	}
	if booking == nil {
		return nil, nil, models.NewNotFoundError("booking not found for bill")
	}
	return &bill, booking, nil
}
