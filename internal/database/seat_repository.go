package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/omar10120/ksdora-backend/internal/models"
)

// SeatRepository handles seat inventory database operations.
// Seat status is only mutated through the booking, lock and transition
// paths, each inside its own transaction; this repository's writes are
// limited to the admin block/unblock operations.
type SeatRepository struct {
	db *sqlx.DB
}

// NewSeatRepository creates a new SeatRepository
func NewSeatRepository(db *sqlx.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

// GetByTripID returns all seats of a trip ordered by seat number
func (r *SeatRepository) GetByTripID(tripID uuid.UUID) ([]models.Seat, error) {
	query := `
		SELECT id, trip_id, seat_number, status, block_reason,
		       blocked_by_user_id, created_at, updated_at
		FROM seats
		WHERE trip_id = $1
		ORDER BY seat_number`

	seats := []models.Seat{}
	if err := r.db.Select(&seats, query, tripID); err != nil {
		return nil, fmt.Errorf("failed to get seats: %w", err)
	}
	return seats, nil
}

// GetSummary returns aggregate seat counts for a trip.
// Occupancy rate is booked / total capacity.
func (r *SeatRepository) GetSummary(tripID uuid.UUID) (*models.SeatSummary, error) {
	var summary models.SeatSummary
	query := `
		SELECT trip_id,
		       COUNT(*) AS total_seats,
		       COUNT(*) FILTER (WHERE status = 'available') AS available_seats,
		       COUNT(*) FILTER (WHERE status = 'reserved') AS reserved_seats,
		       COUNT(*) FILTER (WHERE status = 'booked') AS booked_seats,
		       COUNT(*) FILTER (WHERE status = 'blocked') AS blocked_seats
		FROM seats
		WHERE trip_id = $1
		GROUP BY trip_id`

	if err := r.db.Get(&summary, query, tripID); err != nil {
		return nil, fmt.Errorf("failed to get seat summary: %w", err)
	}
	if summary.TotalSeats > 0 {
		summary.OccupancyRate = float64(summary.BookedSeats) / float64(summary.TotalSeats)
	}
	return &summary, nil
}

// BlockSeats blocks available seats from sale with a reason.
// Only available seats can be blocked; held or sold seats are reported back.
func (r *SeatRepository) BlockSeats(tripID uuid.UUID, seatNumbers []int, reason string, blockedBy uuid.UUID) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	blocked, err := r.updateStatusTx(tx, tripID, seatNumbers,
		models.SeatStatusAvailable, models.SeatStatusBlocked, &reason, &blockedBy)
	if err != nil {
		return err
	}
	if blocked != len(seatNumbers) {
		contested, err := r.seatsNotInStatusTx(tx, tripID, seatNumbers, models.SeatStatusBlocked)
		if err != nil {
			return err
		}
		return models.NewConflictError("some seats cannot be blocked", contested...)
	}
	return tx.Commit()
}

// UnblockSeats returns blocked seats to the available pool
func (r *SeatRepository) UnblockSeats(tripID uuid.UUID, seatNumbers []int) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	unblocked, err := r.updateStatusTx(tx, tripID, seatNumbers,
		models.SeatStatusBlocked, models.SeatStatusAvailable, nil, nil)
	if err != nil {
		return err
	}
	if unblocked != len(seatNumbers) {
		contested, err := r.seatsNotInStatusTx(tx, tripID, seatNumbers, models.SeatStatusAvailable)
		if err != nil {
			return err
		}
		return models.NewConflictError("some seats are not blocked", contested...)
	}
	return tx.Commit()
}

// updateStatusTx flips seats from one status to another inside a transaction
// and returns how many rows changed.
func (r *SeatRepository) updateStatusTx(
	tx *sqlx.Tx,
	tripID uuid.UUID,
	seatNumbers []int,
	from, to models.SeatStatus,
	blockReason *string,
	blockedBy *uuid.UUID,
) (int, error) {
	query, args, err := sqlx.In(`
		UPDATE seats
		SET status = ?, block_reason = ?, blocked_by_user_id = ?, updated_at = NOW()
		WHERE trip_id = ? AND seat_number IN (?) AND status = ?`,
		to, blockReason, blockedBy, tripID, seatNumbers, from)
	if err != nil {
		return 0, fmt.Errorf("failed to build seat update query: %w", err)
	}
	query = tx.Rebind(query)

	result, err := tx.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update seats: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// seatsNotInStatusTx lists requested seat numbers whose status differs from want
func (r *SeatRepository) seatsNotInStatusTx(tx *sqlx.Tx, tripID uuid.UUID, seatNumbers []int, want models.SeatStatus) ([]string, error) {
	query, args, err := sqlx.In(`
		SELECT seat_number FROM seats
		WHERE trip_id = ? AND seat_number IN (?) AND status <> ?
		ORDER BY seat_number`,
		tripID, seatNumbers, want)
	if err != nil {
		return nil, fmt.Errorf("failed to build seat lookup query: %w", err)
	}
	query = tx.Rebind(query)

	var numbers []int
	if err := tx.Select(&numbers, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list contested seats: %w", err)
	}
	contested := make([]string, len(numbers))
	for i, n := range numbers {
		contested[i] = fmt.Sprintf("%d", n)
	}
	return contested, nil
}
