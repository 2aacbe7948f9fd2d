package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/omar10120/ksdora-backend/internal/database"
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func svcBookingColumns() []string {
	return []string{
		"id", "user_id", "trip_id", "booking_date", "status", "total_price",
		"is_seat_lock", "lock_expires_at", "created_at", "updated_at",
	}
}

func svcBillColumns() []string {
	return []string{"id", "booking_id", "amount", "status", "created_at", "updated_at"}
}

func svcPaymentColumns() []string {
	return []string{
		"id", "bill_id", "amount", "method", "status", "transaction_id",
		"receipt_url", "paid_at", "created_at", "updated_at",
	}
}

func newTestPaymentService(sqlxDB *sqlx.DB) *PaymentService {
	return &PaymentService{
		paymentRepo: database.NewPaymentRepository(sqlxDB),
		bookingRepo: database.NewBookingRepository(sqlxDB),
		logger:      newServiceTestLogger(),
	}
}

// expectBookingAndBill scripts the ownership and bill lookups GetSummary
// performs before touching payment history.
func expectBookingAndBill(mock sqlmock.Sqlmock, bookingID, userID, billID uuid.UUID, billAmount, billStatus string) {
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs(bookingID).
		WillReturnRows(sqlmock.NewRows(svcBookingColumns()).AddRow(
			bookingID, userID, uuid.New(), now, "pending", billAmount,
			false, nil, now, now,
		))
	mock.ExpectQuery(`SELECT (.+) FROM bills`).
		WithArgs(bookingID).
		WillReturnRows(sqlmock.NewRows(svcBillColumns()).AddRow(
			billID, bookingID, billAmount, billStatus, now, now,
		))
}

func TestPaymentGetSummary(t *testing.T) {
	sqlxDB, mock := newServiceMockDB(t)
	svc := newTestPaymentService(sqlxDB)

	t.Run("Partial Payment", func(t *testing.T) {
		bookingID := uuid.New()
		userID := uuid.New()
		billID := uuid.New()
		now := time.Now()

		expectBookingAndBill(mock, bookingID, userID, billID, "1000.00", "unpaid")
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(billID).
			WillReturnRows(sqlmock.NewRows(svcPaymentColumns()).
				AddRow(uuid.New(), billID, "250.00", "cash", "successful", "TXN-1", nil, now, now, now).
				AddRow(uuid.New(), billID, "100.00", "cash", "failed", nil, nil, nil, now, now))

		summary, err := svc.GetSummary(bookingID, userID, false)
		require.NoError(t, err)
		// Failed attempts never count toward the total.
		assert.True(t, summary.TotalPaid.Equal(decimal.RequireFromString("250.00")))
		assert.True(t, summary.RemainingBalance.Equal(decimal.RequireFromString("750.00")))
		assert.False(t, summary.IsFullyPaid)
		assert.Len(t, summary.Payments, 2)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Exactly Paid", func(t *testing.T) {
		bookingID := uuid.New()
		userID := uuid.New()
		billID := uuid.New()
		now := time.Now()

		expectBookingAndBill(mock, bookingID, userID, billID, "1000.00", "paid")
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(billID).
			WillReturnRows(sqlmock.NewRows(svcPaymentColumns()).
				AddRow(uuid.New(), billID, "250.00", "cash", "successful", "TXN-1", nil, now, now, now).
				AddRow(uuid.New(), billID, "750.00", "cash", "successful", "CASH-REMAINDER", nil, now, now, now))

		summary, err := svc.GetSummary(bookingID, userID, false)
		require.NoError(t, err)
		assert.True(t, summary.TotalPaid.Equal(decimal.RequireFromString("1000.00")))
		assert.True(t, summary.RemainingBalance.IsZero())
		assert.True(t, summary.IsFullyPaid)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Overpayment Floors Remaining At Zero", func(t *testing.T) {
		bookingID := uuid.New()
		userID := uuid.New()
		billID := uuid.New()
		now := time.Now()

		expectBookingAndBill(mock, bookingID, userID, billID, "1000.00", "paid")
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(billID).
			WillReturnRows(sqlmock.NewRows(svcPaymentColumns()).
				AddRow(uuid.New(), billID, "250.00", "online_payment", "successful", "TXN-1", nil, now, now, now).
				AddRow(uuid.New(), billID, "1000.00", "online_payment", "successful", "TXN-2", nil, now, now, now))

		summary, err := svc.GetSummary(bookingID, userID, false)
		require.NoError(t, err)
		assert.True(t, summary.TotalPaid.Equal(decimal.RequireFromString("1250.00")))
		assert.True(t, summary.RemainingBalance.IsZero())
		assert.True(t, summary.IsFullyPaid)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Foreign Booking Forbidden", func(t *testing.T) {
		bookingID := uuid.New()
		ownerID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM bookings`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows(svcBookingColumns()).AddRow(
				bookingID, ownerID, uuid.New(), now, "pending", "1000.00",
				false, nil, now, now,
			))

		_, err := svc.GetSummary(bookingID, uuid.New(), false)
		require.Error(t, err)

		appErr, ok := models.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, models.ErrKindForbidden, appErr.Kind)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
