package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatGetByTripID(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewSeatRepository(sqlxDB)

	t.Run("Success", func(t *testing.T) {
		tripID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM seats`).
			WithArgs(tripID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "trip_id", "seat_number", "status", "block_reason",
				"blocked_by_user_id", "created_at", "updated_at",
			}).
				AddRow(uuid.New(), tripID, 1, "available", nil, nil, now, now).
				AddRow(uuid.New(), tripID, 2, "booked", nil, nil, now, now).
				AddRow(uuid.New(), tripID, 3, "blocked", "broken recliner", uuid.New(), now, now))

		seats, err := repo.GetByTripID(tripID)
		require.NoError(t, err)
		require.Len(t, seats, 3)
		assert.Equal(t, models.SeatStatusAvailable, seats[0].Status)
		assert.Equal(t, models.SeatStatusBooked, seats[1].Status)
		assert.Equal(t, models.SeatStatusBlocked, seats[2].Status)
		require.NotNil(t, seats[2].BlockReason)
		assert.Equal(t, "broken recliner", *seats[2].BlockReason)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Seats", func(t *testing.T) {
		tripID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM seats`).
			WithArgs(tripID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "trip_id", "seat_number", "status", "block_reason",
				"blocked_by_user_id", "created_at", "updated_at",
			}))

		seats, err := repo.GetByTripID(tripID)
		require.NoError(t, err)
		assert.Empty(t, seats)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSeatGetSummary(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewSeatRepository(sqlxDB)

	summaryColumns := []string{
		"trip_id", "total_seats", "available_seats", "reserved_seats",
		"booked_seats", "blocked_seats",
	}

	t.Run("Success", func(t *testing.T) {
		tripID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM seats`).
			WithArgs(tripID).
			WillReturnRows(sqlmock.NewRows(summaryColumns).
				AddRow(tripID, 40, 25, 3, 10, 2))

		summary, err := repo.GetSummary(tripID)
		require.NoError(t, err)
		assert.Equal(t, 40, summary.TotalSeats)
		assert.Equal(t, 25, summary.AvailableSeats)
		assert.Equal(t, 3, summary.ReservedSeats)
		assert.Equal(t, 10, summary.BookedSeats)
		assert.Equal(t, 2, summary.BlockedSeats)
		assert.InDelta(t, 0.25, summary.OccupancyRate, 0.0001)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		tripID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM seats`).
			WithArgs(tripID).
			WillReturnError(fmt.Errorf("connection refused"))

		summary, err := repo.GetSummary(tripID)
		assert.Error(t, err)
		assert.Nil(t, summary)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSeatBlockSeats(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewSeatRepository(sqlxDB)

	t.Run("Success", func(t *testing.T) {
		tripID := uuid.New()
		adminID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seats`).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		err := repo.BlockSeats(tripID, []int{5, 6}, "maintenance", adminID)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Seat Not Available", func(t *testing.T) {
		tripID := uuid.New()
		adminID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seats`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT seat_number FROM seats`).
			WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow(6))
		mock.ExpectRollback()

		err := repo.BlockSeats(tripID, []int{5, 6}, "maintenance", adminID)
		require.Error(t, err)

		appErr, ok := models.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, models.ErrKindConflict, appErr.Kind)
		assert.Contains(t, appErr.Details, "6")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSeatUnblockSeats(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewSeatRepository(sqlxDB)

	t.Run("Success", func(t *testing.T) {
		tripID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seats`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.UnblockSeats(tripID, []int{5})
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Seat Not Blocked", func(t *testing.T) {
		tripID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seats`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT seat_number FROM seats`).
			WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow(5))
		mock.ExpectRollback()

		err := repo.UnblockSeats(tripID, []int{5})
		require.Error(t, err)

		appErr, ok := models.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, models.ErrKindConflict, appErr.Kind)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
