package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func tripColumns() []string {
	return []string{
		"id", "route_id", "bus_id", "departure_time", "arrival_time",
		"last_booking_time", "price", "status", "created_at", "updated_at",
	}
}

func TestTripGetByID(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewTripRepository(sqlxDB)

	t.Run("Success", func(t *testing.T) {
		tripID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM trips`).
			WithArgs(tripID).
			WillReturnRows(sqlmock.NewRows(tripColumns()).AddRow(
				tripID, uuid.New(), uuid.New(), now.Add(time.Hour), now.Add(3*time.Hour),
				now.Add(30*time.Minute), "1500.00", "scheduled", now, now,
			))

		trip, err := repo.GetByID(tripID)
		require.NoError(t, err)
		require.NotNil(t, trip)
		assert.Equal(t, tripID, trip.ID)
		assert.Equal(t, models.TripStatusScheduled, trip.Status)
		assert.True(t, trip.Price.Equal(decimal.RequireFromString("1500.00")))

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		tripID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM trips`).
			WithArgs(tripID).
			WillReturnError(sql.ErrNoRows)

		trip, err := repo.GetByID(tripID)
		require.NoError(t, err)
		assert.Nil(t, trip)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		tripID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM trips`).
			WithArgs(tripID).
			WillReturnError(fmt.Errorf("connection refused"))

		trip, err := repo.GetByID(tripID)
		assert.Error(t, err)
		assert.Nil(t, trip)
		assert.Contains(t, err.Error(), "failed to get trip")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTripGetBusByID(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewTripRepository(sqlxDB)

	t.Run("Success", func(t *testing.T) {
		busID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM buses`).
			WithArgs(busID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "plate_number", "model", "capacity", "status", "created_at", "updated_at",
			}).AddRow(busID, "NB-1234", "Volvo 9400", 40, "active", now, now))

		bus, err := repo.GetBusByID(busID)
		require.NoError(t, err)
		require.NotNil(t, bus)
		assert.Equal(t, 40, bus.Capacity)
		assert.True(t, bus.IsBookable())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		busID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM buses`).
			WithArgs(busID).
			WillReturnError(sql.ErrNoRows)

		bus, err := repo.GetBusByID(busID)
		require.NoError(t, err)
		assert.Nil(t, bus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTripCreateWithSeats(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewTripRepository(sqlxDB)

	t.Run("Success", func(t *testing.T) {
		trip := &models.Trip{
			RouteID:         uuid.New(),
			BusID:           uuid.New(),
			DepartureTime:   time.Now().Add(24 * time.Hour),
			ArrivalTime:     time.Now().Add(27 * time.Hour),
			LastBookingTime: time.Now().Add(23 * time.Hour),
			Price:           decimal.RequireFromString("1500.00"),
			Status:          models.TripStatusScheduled,
		}
		capacity := 3

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO trips`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		for i := 0; i < capacity; i++ {
			mock.ExpectExec(`INSERT INTO seats`).
				WillReturnResult(sqlmock.NewResult(0, 1))
		}
		mock.ExpectCommit()

		err := repo.CreateWithSeats(trip, capacity)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, trip.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Seat Insert Fails", func(t *testing.T) {
		trip := &models.Trip{
			RouteID: uuid.New(),
			BusID:   uuid.New(),
			Price:   decimal.RequireFromString("1500.00"),
			Status:  models.TripStatusScheduled,
		}

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO trips`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO seats`).
			WillReturnError(fmt.Errorf("constraint violation"))
		mock.ExpectRollback()

		err := repo.CreateWithSeats(trip, 2)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert seat 1")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTripUpdateStatus(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewTripRepository(sqlxDB)

	t.Run("Success", func(t *testing.T) {
		tripID := uuid.New()

		mock.ExpectExec(`UPDATE trips SET status`).
			WithArgs(tripID, models.TripStatusCancelled).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(tripID, models.TripStatusCancelled)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Trip Not Found", func(t *testing.T) {
		tripID := uuid.New()

		mock.ExpectExec(`UPDATE trips SET status`).
			WithArgs(tripID, models.TripStatusCompleted).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(tripID, models.TripStatusCompleted)
		require.Error(t, err)

		appErr, ok := models.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, models.ErrKindNotFound, appErr.Kind)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTripListWithAvailability(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewTripRepository(sqlxDB)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		columns := append(tripColumns(), "total_seats", "available_seats")

		mock.ExpectQuery(`SELECT (.+) FROM trips t`).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(uuid.New(), uuid.New(), uuid.New(), now, now.Add(time.Hour),
					now.Add(-time.Hour), "1500.00", "scheduled", now, now, 40, 12).
				AddRow(uuid.New(), uuid.New(), uuid.New(), now, now.Add(time.Hour),
					now.Add(-time.Hour), "900.00", "scheduled", now, now, 30, 0))

		trips, err := repo.ListWithAvailability()
		require.NoError(t, err)
		require.Len(t, trips, 2)
		assert.Equal(t, 40, trips[0].TotalSeats)
		assert.Equal(t, 12, trips[0].AvailableSeats)
		assert.Equal(t, 0, trips[1].AvailableSeats)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty", func(t *testing.T) {
		columns := append(tripColumns(), "total_seats", "available_seats")

		mock.ExpectQuery(`SELECT (.+) FROM trips t`).
			WillReturnRows(sqlmock.NewRows(columns))

		trips, err := repo.ListWithAvailability()
		require.NoError(t, err)
		assert.Empty(t, trips)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
