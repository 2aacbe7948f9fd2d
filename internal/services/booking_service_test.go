package services

import (
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/omar10120/ksdora-backend/internal/database"
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServiceMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })
	return sqlxDB, mock
}

func newServiceTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func svcTripColumns() []string {
	return []string{
		"id", "route_id", "bus_id", "departure_time", "arrival_time",
		"last_booking_time", "price", "status", "created_at", "updated_at",
	}
}

func svcBusColumns() []string {
	return []string{"id", "plate_number", "model", "capacity", "status", "created_at", "updated_at"}
}

func svcSeatClaimColumns() []string {
	return []string{"id", "seat_number", "status", "lock_id", "lock_user_id", "lock_expires_at"}
}

func newTestBookingService(sqlxDB *sqlx.DB) *BookingService {
	return NewBookingService(
		database.NewBookingRepository(sqlxDB),
		database.NewTripRepository(sqlxDB),
		database.NewSeatRepository(sqlxDB),
		database.NewPaymentRepository(sqlxDB),
		NewCacheService(time.Minute, 100),
		newServiceTestLogger(),
	)
}

// expectBookableTrip scripts the fail-fast lookups shared by the creation
// paths: a scheduled trip still open for booking and an active bus.
func expectBookableTrip(mock sqlmock.Sqlmock, tripID, busID uuid.UUID, price string, capacity int) {
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM trips`).
		WithArgs(tripID).
		WillReturnRows(sqlmock.NewRows(svcTripColumns()).AddRow(
			tripID, uuid.New(), busID, now.Add(4*time.Hour), now.Add(8*time.Hour),
			now.Add(2*time.Hour), price, "scheduled", now, now,
		))
	mock.ExpectQuery(`SELECT (.+) FROM buses`).
		WithArgs(busID).
		WillReturnRows(sqlmock.NewRows(svcBusColumns()).AddRow(
			busID, "NB-1234", nil, capacity, "active", now, now,
		))
}

func TestCreateBooking_ConvertsOwnLockedSeats(t *testing.T) {
	sqlxDB, mock := newServiceMockDB(t)
	svc := newTestBookingService(sqlxDB)

	userID := uuid.New()
	tripID := uuid.New()
	busID := uuid.New()
	lockID := uuid.New()
	now := time.Now()
	liveExpiry := now.Add(2 * time.Minute)

	// Full trip: seats 1-2 booked by others, 3-4 reserved under the
	// caller's own live lock. Zero free seats, yet booking the locked
	// pair must succeed without any availability gate in the way.
	expectBookableTrip(mock, tripID, busID, "1500.00", 4)
	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs(userID, tripID).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT s.id, s.seat_number, s.status`).
		WillReturnRows(sqlmock.NewRows(svcSeatClaimColumns()).
			AddRow(uuid.New(), 3, "reserved", lockID, userID, liveExpiry).
			AddRow(uuid.New(), 4, "reserved", lockID, userID, liveExpiry))
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO booking_details`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO booking_details`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM booking_details`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM bookings`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE seats`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO bills`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.CreateBooking(userID, &models.CreateBookingRequest{
		TripID:      tripID.String(),
		SeatNumbers: []int{3, 4},
	})
	require.NoError(t, err)
	assert.True(t, result.Booking.TotalPrice.Equal(decimal.RequireFromString("3000.00")))
	assert.Len(t, result.Details, 2)
	require.NotNil(t, result.Bill)

	// No seat-summary query ran before the transaction.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_CountRequestsStayGated(t *testing.T) {
	sqlxDB, mock := newServiceMockDB(t)
	svc := newTestBookingService(sqlxDB)

	userID := uuid.New()
	tripID := uuid.New()
	busID := uuid.New()

	expectBookableTrip(mock, tripID, busID, "1500.00", 4)
	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs(userID, tripID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT trip_id`).
		WithArgs(tripID).
		WillReturnRows(sqlmock.NewRows([]string{
			"trip_id", "total_seats", "available_seats", "reserved_seats", "booked_seats", "blocked_seats",
		}).AddRow(tripID, 4, 1, 1, 2, 0))

	_, err := svc.CreateBooking(userID, &models.CreateBookingRequest{
		TripID:    tripID.String(),
		SeatCount: 2,
	})
	require.Error(t, err)

	appErr, ok := models.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrKindBusinessRule, appErr.Kind)
	assert.Contains(t, appErr.Message, "not enough available seats")

	// Rejected before any transaction was opened.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_DuplicateActiveBooking(t *testing.T) {
	sqlxDB, mock := newServiceMockDB(t)
	svc := newTestBookingService(sqlxDB)

	userID := uuid.New()
	tripID := uuid.New()
	busID := uuid.New()
	now := time.Now()

	expectBookableTrip(mock, tripID, busID, "1500.00", 4)
	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs(userID, tripID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "trip_id", "booking_date", "status", "total_price",
			"is_seat_lock", "lock_expires_at", "created_at", "updated_at",
		}).AddRow(uuid.New(), userID, tripID, now, "pending", "1500.00", false, nil, now, now))

	_, err := svc.CreateBooking(userID, &models.CreateBookingRequest{
		TripID:      tripID.String(),
		SeatNumbers: []int{3},
	})
	require.Error(t, err)

	appErr, ok := models.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrKindConflict, appErr.Kind)

	assert.NoError(t, mock.ExpectationsWereMet())
}
