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

// BookingRepository handles booking lifecycle database operations.
// Every read-then-mutate path on seat status runs inside one transaction so
// concurrent requests contending for the same seat serialize at the database.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// seatClaim is a seat row joined with its active lock, if any
type seatClaim struct {
	SeatID        uuid.UUID         `db:"id"`
	SeatNumber    int               `db:"seat_number"`
	Status        models.SeatStatus `db:"status"`
	LockID        *uuid.UUID        `db:"lock_id"`
	LockUserID    *uuid.UUID        `db:"lock_user_id"`
	LockExpiresAt *time.Time        `db:"lock_expires_at"`
}

// claimableBy reports whether the seat can be taken by userID right now.
// Reserved seats whose lock has expired no longer conflict; reserved seats
// held by the same user are claimable by that user.
func (c *seatClaim) claimableBy(userID uuid.UUID, now time.Time) bool {
	switch c.Status {
	case models.SeatStatusAvailable:
		return true
	case models.SeatStatusReserved:
		if c.LockExpiresAt != nil && now.After(*c.LockExpiresAt) {
			return true
		}
		return c.LockUserID != nil && *c.LockUserID == userID
	default:
		return false
	}
}

// selectSeatsForUpdate row-locks seats of a trip together with their active
// seat-lock holder. With seatNumbers nil, all seats of the trip are locked
// (auto-assignment scans the full inventory anyway).
func selectSeatsForUpdate(tx *sqlx.Tx, tripID uuid.UUID, seatNumbers []int) ([]seatClaim, error) {
	base := `
		SELECT s.id, s.seat_number, s.status,
		       l.id AS lock_id, l.user_id AS lock_user_id, l.lock_expires_at
		FROM seats s
		LEFT JOIN LATERAL (
			SELECT b.id, b.user_id, b.lock_expires_at
			FROM booking_details bd
			JOIN bookings b ON b.id = bd.booking_id
			WHERE bd.seat_id = s.id AND b.is_seat_lock AND b.status = 'pending'
			LIMIT 1
		) l ON TRUE
		WHERE s.trip_id = ?`

	var (
		query string
		args  []interface{}
		err   error
	)
	if len(seatNumbers) > 0 {
		query, args, err = sqlx.In(base+` AND s.seat_number IN (?) ORDER BY s.seat_number FOR UPDATE OF s`, tripID, seatNumbers)
	} else {
		query, args, err = sqlx.In(base+` ORDER BY s.seat_number FOR UPDATE OF s`, tripID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build seat select: %w", err)
	}
	query = tx.Rebind(query)

	var claims []seatClaim
	if err := tx.Select(&claims, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select seats for update: %w", err)
	}
	return claims, nil
}

// markSeatsTx flips the given seats to a status. Idempotent: seats already
// in the target status are simply matched by the filter and skipped.
func markSeatsTx(tx *sqlx.Tx, seatIDs []uuid.UUID, to models.SeatStatus) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`
		UPDATE seats SET status = ?, updated_at = NOW()
		WHERE id IN (?) AND status <> ?`,
		to, seatIDs, to)
	if err != nil {
		return fmt.Errorf("failed to build seat update: %w", err)
	}
	query = tx.Rebind(query)
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update seat status: %w", err)
	}
	return nil
}

// detachLocksTx removes seat-lock claims on the given seats: the lock
// bookings' detail rows are deleted and emptied locks are removed entirely.
// Called when claimed seats pass from a lock to a real booking.
func detachLocksTx(tx *sqlx.Tx, lockIDs []uuid.UUID, seatIDs []uuid.UUID) error {
	if len(lockIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`
		DELETE FROM booking_details
		WHERE booking_id IN (?) AND seat_id IN (?)`,
		lockIDs, seatIDs)
	if err != nil {
		return fmt.Errorf("failed to build lock detail delete: %w", err)
	}
	query = tx.Rebind(query)
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to delete lock details: %w", err)
	}

	query, args, err = sqlx.In(`
		DELETE FROM bookings
		WHERE id IN (?) AND is_seat_lock
		  AND NOT EXISTS (SELECT 1 FROM booking_details bd WHERE bd.booking_id = bookings.id)`,
		lockIDs)
	if err != nil {
		return fmt.Errorf("failed to build lock delete: %w", err)
	}
	query = tx.Rebind(query)
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to delete emptied locks: %w", err)
	}
	return nil
}

// CreateWithSeats turns a seat selection into a booking, details, and an
// unpaid bill, atomically with the seat status flip. Seats are re-validated
// under the row locks of this transaction, closing the race window between
// any earlier advisory read and commit. No partial booking: one unavailable
// seat aborts the whole thing.
func (r *BookingRepository) CreateWithSeats(
	booking *models.Booking,
	seatPrice decimal.Decimal,
	seatNumbers []int,
	seatCount int,
) ([]models.BookingDetail, *models.Bill, error) {
	now := time.Now()

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	claims, err := selectSeatsForUpdate(tx, booking.TripID, seatNumbers)
	if err != nil {
		return nil, nil, err
	}

	var chosen []seatClaim
	if len(seatNumbers) > 0 {
		found := make(map[int]seatClaim, len(claims))
		for _, c := range claims {
			found[c.SeatNumber] = c
		}
		var missing, taken []string
		for _, n := range seatNumbers {
			c, ok := found[n]
			if !ok {
				missing = append(missing, fmt.Sprintf("%d", n))
				continue
			}
			if !c.claimableBy(booking.UserID, now) {
				taken = append(taken, fmt.Sprintf("%d", n))
				continue
			}
			chosen = append(chosen, c)
		}
		if len(missing) > 0 {
			return nil, nil, models.NewNotFoundError("seat not found: %s", missing[0])
		}
		if len(taken) > 0 {
			return nil, nil, models.NewConflictError("seat not available", taken...)
		}
	} else {
		for _, c := range claims {
			// Auto-assignment never steals seats held by someone
			// else's live lock, nor the caller's own.
			if c.Status == models.SeatStatusAvailable {
				chosen = append(chosen, c)
				if len(chosen) == seatCount {
					break
				}
			}
		}
		if len(chosen) < seatCount {
			return nil, nil, models.NewBusinessRuleError(
				"not enough available seats: requested %d, available %d", seatCount, len(chosen))
		}
	}

	booking.ID = uuid.New()
	booking.BookingDate = now
	booking.Status = models.BookingStatusPending
	booking.CreatedAt = now
	booking.UpdatedAt = now

	_, err = tx.Exec(`
		INSERT INTO bookings (
			id, user_id, trip_id, booking_date, status, total_price,
			is_seat_lock, lock_expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		booking.ID, booking.UserID, booking.TripID, booking.BookingDate,
		booking.Status, booking.TotalPrice, false, nil, booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert booking: %w", err)
	}

	details := make([]models.BookingDetail, 0, len(chosen))
	seatIDs := make([]uuid.UUID, 0, len(chosen))
	lockIDs := make([]uuid.UUID, 0)
	for _, c := range chosen {
		detail := models.BookingDetail{
			ID:         uuid.New(),
			BookingID:  booking.ID,
			SeatID:     c.SeatID,
			SeatNumber: c.SeatNumber,
			Price:      seatPrice,
			CreatedAt:  now,
		}
		_, err = tx.Exec(`
			INSERT INTO booking_details (id, booking_id, seat_id, seat_number, price, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			detail.ID, detail.BookingID, detail.SeatID, detail.SeatNumber, detail.Price, detail.CreatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to insert booking detail: %w", err)
		}
		details = append(details, detail)
		seatIDs = append(seatIDs, c.SeatID)
		if c.LockID != nil {
			lockIDs = append(lockIDs, *c.LockID)
		}
	}

	// Claimed seats may have been reserved under a lock (the caller's own,
	// or an expired one). The lock loses those seats.
	if err := detachLocksTx(tx, lockIDs, seatIDs); err != nil {
		return nil, nil, err
	}
	if err := markSeatsTx(tx, seatIDs, models.SeatStatusBooked); err != nil {
		return nil, nil, err
	}

	bill := &models.Bill{
		ID:        uuid.New(),
		BookingID: booking.ID,
		Amount:    booking.TotalPrice,
		Status:    models.BillStatusUnpaid,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = tx.Exec(`
		INSERT INTO bills (id, booking_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		bill.ID, bill.BookingID, bill.Amount, bill.Status, bill.CreatedAt, bill.UpdatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert bill: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit booking: %w", err)
	}
	return details, bill, nil
}

// GetByID retrieves a booking by ID. Returns nil, nil when not found.
func (r *BookingRepository) GetByID(bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	query := `
		SELECT id, user_id, trip_id, booking_date, status, total_price,
		       is_seat_lock, lock_expires_at, created_at, updated_at
		FROM bookings
		WHERE id = $1`

	err := r.db.Get(&booking, query, bookingID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// GetDetails returns the seat details of a booking ordered by seat number
func (r *BookingRepository) GetDetails(bookingID uuid.UUID) ([]models.BookingDetail, error) {
	details := []models.BookingDetail{}
	query := `
		SELECT id, booking_id, seat_id, seat_number, price, created_at
		FROM booking_details
		WHERE booking_id = $1
		ORDER BY seat_number`

	if err := r.db.Select(&details, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to get booking details: %w", err)
	}
	return details, nil
}

// GetActiveByUserAndTrip finds a user's pending or confirmed real booking on
// a trip. Seat locks do not count as active bookings.
func (r *BookingRepository) GetActiveByUserAndTrip(userID, tripID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	query := `
		SELECT id, user_id, trip_id, booking_date, status, total_price,
		       is_seat_lock, lock_expires_at, created_at, updated_at
		FROM bookings
		WHERE user_id = $1 AND trip_id = $2
		  AND NOT is_seat_lock
		  AND status IN ('pending', 'confirmed')
		LIMIT 1`

	err := r.db.Get(&booking, query, userID, tripID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check active booking: %w", err)
	}
	return &booking, nil
}

// ListByUser returns a user's real bookings, newest first
func (r *BookingRepository) ListByUser(userID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	bookings := []models.Booking{}
	query := `
		SELECT id, user_id, trip_id, booking_date, status, total_price,
		       is_seat_lock, lock_expires_at, created_at, updated_at
		FROM bookings
		WHERE user_id = $1 AND NOT is_seat_lock
		ORDER BY booking_date DESC
		LIMIT $2 OFFSET $3`

	if err := r.db.Select(&bookings, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// ListByTrip returns all real bookings of a trip, newest first
func (r *BookingRepository) ListByTrip(tripID uuid.UUID) ([]models.Booking, error) {
	bookings := []models.Booking{}
	query := `
		SELECT id, user_id, trip_id, booking_date, status, total_price,
		       is_seat_lock, lock_expires_at, created_at, updated_at
		FROM bookings
		WHERE trip_id = $1 AND NOT is_seat_lock
		ORDER BY booking_date DESC`

	if err := r.db.Select(&bookings, query, tripID); err != nil {
		return nil, fmt.Errorf("failed to list trip bookings: %w", err)
	}
	return bookings, nil
}

// ApplyTransition moves a booking to a new status and cascades the seat and
// bill effects decided by the lifecycle state machine, all in one
// transaction. The booking status is re-read under the row lock so the
// transition is decided against current state, not the caller's stale copy.
func (r *BookingRepository) ApplyTransition(bookingID uuid.UUID, ev lifecycle.Event) (*models.Booking, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	booking, err := getBookingForUpdateTx(tx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, models.NewNotFoundError("booking not found")
	}
	if booking.IsSeatLock {
		return nil, models.NewValidationError("seat locks have no booking lifecycle; release the lock instead")
	}

	transition, err := lifecycle.Apply(booking.Status, ev)
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
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}
	booking.Status = transition.To
	return booking, nil
}

// Delete removes a booking, its details, bill and payment history, and
// releases its seats. Completed bookings cannot be deleted.
func (r *BookingRepository) Delete(bookingID uuid.UUID) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	booking, err := getBookingForUpdateTx(tx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return models.NewNotFoundError("booking not found")
	}
	if booking.Status == models.BookingStatusCompleted {
		return models.NewBusinessRuleError("completed bookings cannot be deleted")
	}

	if err := releaseBookingSeatsTx(tx, booking.ID); err != nil {
		return err
	}

	statements := []string{
		`DELETE FROM payments WHERE bill_id IN (SELECT id FROM bills WHERE booking_id = $1)`,
		`DELETE FROM bills WHERE booking_id = $1`,
		`DELETE FROM booking_details WHERE booking_id = $1`,
		`DELETE FROM bookings WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt, booking.ID); err != nil {
			return fmt.Errorf("failed to delete booking: %w", err)
		}
	}

	return tx.Commit()
}

// getBookingForUpdateTx row-locks and loads one booking
func getBookingForUpdateTx(tx *sqlx.Tx, bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	query := `
		SELECT id, user_id, trip_id, booking_date, status, total_price,
		       is_seat_lock, lock_expires_at, created_at, updated_at
		FROM bookings
		WHERE id = $1
		FOR UPDATE`

	err := tx.Get(&booking, query, bookingID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock booking row: %w", err)
	}
	return &booking, nil
}

// applyEffectsTx cascades a transition's seat and bill effects
func applyEffectsTx(tx *sqlx.Tx, bookingID uuid.UUID, transition lifecycle.Transition) error {
	switch transition.Seats {
	case lifecycle.SeatsBook:
		if err := setBookingSeatsTx(tx, bookingID, models.SeatStatusBooked); err != nil {
			return err
		}
	case lifecycle.SeatsRelease:
		if err := releaseBookingSeatsTx(tx, bookingID); err != nil {
			return err
		}
	}

	if transition.Bill == lifecycle.BillRelease {
		// Paid bills revert to unpaid; bills never paid are cancelled.
		_, err := tx.Exec(`
			UPDATE bills
			SET status = CASE WHEN status = 'paid' THEN 'unpaid' ELSE 'cancelled' END::bill_status,
			    updated_at = NOW()
			WHERE booking_id = $1`,
			bookingID,
		)
		if err != nil {
			return fmt.Errorf("failed to release bill: %w", err)
		}
	}
	return nil
}

// setBookingSeatsTx flips all seats of a booking to a status, idempotently
func setBookingSeatsTx(tx *sqlx.Tx, bookingID uuid.UUID, to models.SeatStatus) error {
	_, err := tx.Exec(`
		UPDATE seats SET status = $2, updated_at = NOW()
		WHERE id IN (SELECT seat_id FROM booking_details WHERE booking_id = $1)
		  AND status <> $2`,
		bookingID, to,
	)
	if err != nil {
		return fmt.Errorf("failed to set booking seats: %w", err)
	}
	return nil
}

// releaseBookingSeatsTx returns a booking's seats to the available pool.
// Blocked seats stay blocked; release is idempotent.
func releaseBookingSeatsTx(tx *sqlx.Tx, bookingID uuid.UUID) error {
	_, err := tx.Exec(`
		UPDATE seats SET status = 'available', updated_at = NOW()
		WHERE id IN (SELECT seat_id FROM booking_details WHERE booking_id = $1)
		  AND status IN ('reserved', 'booked')`,
		bookingID,
	)
	if err != nil {
		return fmt.Errorf("failed to release booking seats: %w", err)
	}
	return nil
}
