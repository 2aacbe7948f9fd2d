package models

import (
	"time"

	"github.com/google/uuid"
)

// SeatStatus represents the status of a trip seat
// Matches PostgreSQL ENUM: seat_status
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusReserved  SeatStatus = "reserved"
	SeatStatusBooked    SeatStatus = "booked"
	SeatStatusBlocked   SeatStatus = "blocked"
)

// Seat represents a seat on a specific trip
type Seat struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	TripID          uuid.UUID  `json:"trip_id" db:"trip_id"`
	SeatNumber      int        `json:"seat_number" db:"seat_number"`
	Status          SeatStatus `json:"status" db:"status"`
	BlockReason     *string    `json:"block_reason,omitempty" db:"block_reason"`
	BlockedByUserID *uuid.UUID `json:"blocked_by_user_id,omitempty" db:"blocked_by_user_id"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// SeatSummary provides aggregate seat availability for a trip
type SeatSummary struct {
	TripID         uuid.UUID `json:"trip_id" db:"trip_id"`
	TotalSeats     int       `json:"total_seats" db:"total_seats"`
	AvailableSeats int       `json:"available_seats" db:"available_seats"`
	ReservedSeats  int       `json:"reserved_seats" db:"reserved_seats"`
	BookedSeats    int       `json:"booked_seats" db:"booked_seats"`
	BlockedSeats   int       `json:"blocked_seats" db:"blocked_seats"`
	OccupancyRate  float64   `json:"occupancy_rate"`
}

// Seat lock duration bounds in seconds
const (
	MinLockDurationSeconds     = 30
	MaxLockDurationSeconds     = 300
	DefaultLockDurationSeconds = 120
)

// LockSeatsRequest asks for a temporary hold on specific seats
type LockSeatsRequest struct {
	SeatNumbers     []int `json:"seat_numbers" binding:"required,min=1"`
	DurationSeconds int   `json:"duration_seconds"`
}

// Normalize applies the default lock duration and validates bounds
func (r *LockSeatsRequest) Normalize() error {
	if r.DurationSeconds == 0 {
		r.DurationSeconds = DefaultLockDurationSeconds
	}
	if r.DurationSeconds < MinLockDurationSeconds || r.DurationSeconds > MaxLockDurationSeconds {
		return NewValidationError("duration_seconds must be between 30 and 300")
	}
	if len(r.SeatNumbers) == 0 {
		return NewValidationError("at least one seat number is required")
	}
	if len(r.SeatNumbers) > MaxSeatsPerBooking {
		return NewValidationError("maximum 10 seats")
	}
	seen := make(map[int]bool, len(r.SeatNumbers))
	for _, n := range r.SeatNumbers {
		if n <= 0 {
			return NewValidationError("seat numbers must be positive")
		}
		if seen[n] {
			return NewValidationError("duplicate seat number in request")
		}
		seen[n] = true
	}
	return nil
}

// LockSeatsResponse is returned after a successful seat lock
type LockSeatsResponse struct {
	LockID      uuid.UUID `json:"lock_id"`
	TripID      uuid.UUID `json:"trip_id"`
	SeatNumbers []int     `json:"seat_numbers"`
	ExpiresAt   time.Time `json:"expires_at"`
	TTLSeconds  int       `json:"ttl_seconds"`
}

// BlockSeatsRequest blocks one or more seats from sale
type BlockSeatsRequest struct {
	SeatNumbers []int  `json:"seat_numbers" binding:"required,min=1"`
	Reason      string `json:"reason"`
}

// UnblockSeatsRequest returns blocked seats to the available pool
type UnblockSeatsRequest struct {
	SeatNumbers []int `json:"seat_numbers" binding:"required,min=1"`
}
