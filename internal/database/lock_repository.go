package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/shopspring/decimal"
)

// LockRepository handles temporary seat locks. A lock is a zero-price
// placeholder booking flagged is_seat_lock, holding reserved seats through
// booking_details until its expiry.
type LockRepository struct {
	db *sqlx.DB
}

// NewLockRepository creates a new LockRepository
func NewLockRepository(db *sqlx.DB) *LockRepository {
	return &LockRepository{db: db}
}

// CreateLock reserves the requested seats for userID until expiresAt.
// Re-locking seats already held by the caller's unexpired lock returns that
// lock unchanged. Seats reserved by another user's unexpired lock fail with
// a conflict naming the contested seats. Seats under an expired lock are
// treated as free and re-claimed.
func (r *LockRepository) CreateLock(
	userID, tripID uuid.UUID,
	seatNumbers []int,
	expiresAt time.Time,
) (*models.Booking, []models.BookingDetail, error) {
	now := time.Now()

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	claims, err := selectSeatsForUpdate(tx, tripID, seatNumbers)
	if err != nil {
		return nil, nil, err
	}

	found := make(map[int]seatClaim, len(claims))
	for _, c := range claims {
		found[c.SeatNumber] = c
	}

	var contested []string
	ownLocks := make(map[uuid.UUID]int) // caller's unexpired locks -> seats held
	for _, n := range seatNumbers {
		c, ok := found[n]
		if !ok {
			return nil, nil, models.NewNotFoundError("seat not found: %d", n)
		}
		if !c.claimableBy(userID, now) {
			contested = append(contested, fmt.Sprintf("%d", n))
			continue
		}
		if c.Status == models.SeatStatusReserved && c.LockUserID != nil && *c.LockUserID == userID &&
			c.LockExpiresAt != nil && now.Before(*c.LockExpiresAt) {
			ownLocks[*c.LockID]++
		}
	}
	if len(contested) > 0 {
		return nil, nil, models.NewConflictError("seats are locked by another user", contested...)
	}

	// Idempotent re-lock: a single live lock of the caller already holding
	// every requested seat is returned as-is.
	if len(ownLocks) == 1 {
		for lockID, held := range ownLocks {
			if held == len(seatNumbers) {
				return r.getLockTx(tx, lockID)
			}
		}
	}

	lock := &models.Booking{
		ID:            uuid.New(),
		UserID:        userID,
		TripID:        tripID,
		BookingDate:   now,
		Status:        models.BookingStatusPending,
		TotalPrice:    decimal.Zero,
		IsSeatLock:    true,
		LockExpiresAt: &expiresAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err = tx.Exec(`
		INSERT INTO bookings (
			id, user_id, trip_id, booking_date, status, total_price,
			is_seat_lock, lock_expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		lock.ID, lock.UserID, lock.TripID, lock.BookingDate, lock.Status,
		lock.TotalPrice, lock.IsSeatLock, lock.LockExpiresAt, lock.CreatedAt, lock.UpdatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert seat lock: %w", err)
	}

	details := make([]models.BookingDetail, 0, len(seatNumbers))
	seatIDs := make([]uuid.UUID, 0, len(seatNumbers))
	staleLockIDs := make([]uuid.UUID, 0)
	for _, n := range seatNumbers {
		c := found[n]
		detail := models.BookingDetail{
			ID:         uuid.New(),
			BookingID:  lock.ID,
			SeatID:     c.SeatID,
			SeatNumber: c.SeatNumber,
			Price:      decimal.Zero,
			CreatedAt:  now,
		}
		_, err = tx.Exec(`
			INSERT INTO booking_details (id, booking_id, seat_id, seat_number, price, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			detail.ID, detail.BookingID, detail.SeatID, detail.SeatNumber, detail.Price, detail.CreatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to insert lock detail: %w", err)
		}
		details = append(details, detail)
		seatIDs = append(seatIDs, c.SeatID)
		if c.LockID != nil && *c.LockID != lock.ID {
			staleLockIDs = append(staleLockIDs, *c.LockID)
		}
	}

	// Seats taken over from expired or partially superseded locks leave
	// those locks; emptied locks are removed.
	if err := detachStaleLocksTx(tx, staleLockIDs, seatIDs, lock.ID); err != nil {
		return nil, nil, err
	}
	if err := markSeatsTx(tx, seatIDs, models.SeatStatusReserved); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit seat lock: %w", err)
	}
	return lock, details, nil
}

// detachStaleLocksTx removes the given seats from older locks, keeping the
// new lock's own detail rows intact.
func detachStaleLocksTx(tx *sqlx.Tx, lockIDs []uuid.UUID, seatIDs []uuid.UUID, keepLockID uuid.UUID) error {
	if len(lockIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`
		DELETE FROM booking_details
		WHERE booking_id IN (?) AND seat_id IN (?) AND booking_id <> ?`,
		lockIDs, seatIDs, keepLockID)
	if err != nil {
		return fmt.Errorf("failed to build stale lock detail delete: %w", err)
	}
	query = tx.Rebind(query)
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to delete stale lock details: %w", err)
	}

	query, args, err = sqlx.In(`
		DELETE FROM bookings
		WHERE id IN (?) AND is_seat_lock AND id <> ?
		  AND NOT EXISTS (SELECT 1 FROM booking_details bd WHERE bd.booking_id = bookings.id)`,
		lockIDs, keepLockID)
	if err != nil {
		return fmt.Errorf("failed to build stale lock delete: %w", err)
	}
	query = tx.Rebind(query)
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to delete emptied stale locks: %w", err)
	}
	return nil
}

// getLockTx loads a lock booking and its details inside the transaction
// and commits, used for the idempotent re-lock path.
func (r *LockRepository) getLockTx(tx *sqlx.Tx, lockID uuid.UUID) (*models.Booking, []models.BookingDetail, error) {
	var lock models.Booking
	err := tx.Get(&lock, `
		SELECT id, user_id, trip_id, booking_date, status, total_price,
		       is_seat_lock, lock_expires_at, created_at, updated_at
		FROM bookings WHERE id = $1`, lockID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load existing lock: %w", err)
	}

	details := []models.BookingDetail{}
	err = tx.Select(&details, `
		SELECT id, booking_id, seat_id, seat_number, price, created_at
		FROM booking_details WHERE booking_id = $1 ORDER BY seat_number`, lockID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load existing lock details: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit re-lock: %w", err)
	}
	return &lock, details, nil
}

// GetLockByID retrieves a seat-lock booking. Returns nil, nil when the id
// is unknown or does not refer to a seat lock.
func (r *LockRepository) GetLockByID(lockID uuid.UUID) (*models.Booking, error) {
	var lock models.Booking
	err := r.db.Get(&lock, `
		SELECT id, user_id, trip_id, booking_date, status, total_price,
		       is_seat_lock, lock_expires_at, created_at, updated_at
		FROM bookings
		WHERE id = $1 AND is_seat_lock`, lockID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get seat lock: %w", err)
	}
	return &lock, nil
}

// ReleaseLock releases a lock's seats and deletes the placeholder booking.
// Only the owner may release, and only while the lock is still pending.
func (r *LockRepository) ReleaseLock(lockID, userID uuid.UUID) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	lock, err := getBookingForUpdateTx(tx, lockID)
	if err != nil {
		return err
	}
	if lock == nil || !lock.IsSeatLock {
		return models.NewNotFoundError("seat lock not found")
	}
	if lock.UserID != userID {
		return models.NewForbiddenError("seat lock belongs to another user")
	}
	if lock.Status != models.BookingStatusPending {
		return models.NewBusinessRuleError("seat lock already processed")
	}

	if err := releaseLockRowsTx(tx, lock.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// ReleaseExpired releases every seat lock whose window has elapsed and
// returns how many were swept. Run periodically so abandoned locks stop
// holding seats from the inventory's read-only view.
func (r *LockRepository) ReleaseExpired(now time.Time) (int, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var expired []uuid.UUID
	// SKIP LOCKED: locks being converted or released right now are left
	// for the next sweep.
	err = tx.Select(&expired, `
		SELECT id FROM bookings
		WHERE is_seat_lock AND status = 'pending' AND lock_expires_at < $1
		FOR UPDATE SKIP LOCKED`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired locks: %w", err)
	}

	for _, lockID := range expired {
		if err := releaseLockRowsTx(tx, lockID); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit lock sweep: %w", err)
	}
	return len(expired), nil
}

// releaseLockRowsTx returns a lock's reserved seats to available and
// deletes the placeholder booking with its details.
func releaseLockRowsTx(tx *sqlx.Tx, lockID uuid.UUID) error {
	_, err := tx.Exec(`
		UPDATE seats SET status = 'available', updated_at = NOW()
		WHERE id IN (SELECT seat_id FROM booking_details WHERE booking_id = $1)
		  AND status = 'reserved'`,
		lockID,
	)
	if err != nil {
		return fmt.Errorf("failed to release lock seats: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM booking_details WHERE booking_id = $1`, lockID); err != nil {
		return fmt.Errorf("failed to delete lock details: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM bookings WHERE id = $1`, lockID); err != nil {
		return fmt.Errorf("failed to delete lock booking: %w", err)
	}
	return nil
}
