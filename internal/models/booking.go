package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus represents the lifecycle status of a booking
// Matches PostgreSQL ENUM: booking_status
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// IsTerminal reports whether the status accepts no further transitions
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// MaxSeatsPerBooking caps how many seats one booking may hold
const MaxSeatsPerBooking = 10

// Booking represents a customer's claim on one or more seats of a trip.
// Seat locks are stored as zero-price placeholder bookings with
// is_seat_lock set and a lock expiry timestamp.
type Booking struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	TripID        uuid.UUID       `json:"trip_id" db:"trip_id"`
	BookingDate   time.Time       `json:"booking_date" db:"booking_date"`
	Status        BookingStatus   `json:"status" db:"status"`
	TotalPrice    decimal.Decimal `json:"total_price" db:"total_price"`
	IsSeatLock    bool            `json:"is_seat_lock" db:"is_seat_lock"`
	LockExpiresAt *time.Time      `json:"lock_expires_at,omitempty" db:"lock_expires_at"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// IsLockExpired reports whether a seat-lock booking has outlived its window
func (b *Booking) IsLockExpired(now time.Time) bool {
	return b.IsSeatLock && b.LockExpiresAt != nil && now.After(*b.LockExpiresAt)
}

// CanBeCancelled reports whether the booking may still be cancelled
func (b *Booking) CanBeCancelled() bool {
	return !b.Status.IsTerminal()
}

// BookingDetail links a booking to one seat with the price frozen at
// booking time. Trip price edits never touch existing details.
type BookingDetail struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	BookingID  uuid.UUID       `json:"booking_id" db:"booking_id"`
	SeatID     uuid.UUID       `json:"seat_id" db:"seat_id"`
	SeatNumber int             `json:"seat_number" db:"seat_number"`
	Price      decimal.Decimal `json:"price" db:"price"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// CreateBookingRequest creates a booking either for explicitly named seats
// or for a count of auto-assigned seats. Exactly one of the two must be set.
type CreateBookingRequest struct {
	TripID      string `json:"trip_id" binding:"required"`
	SeatNumbers []int  `json:"seat_numbers,omitempty"`
	SeatCount   int    `json:"seat_count,omitempty"`
}

// Validate checks the seat selection shape before any transaction is opened
func (r *CreateBookingRequest) Validate() error {
	hasNumbers := len(r.SeatNumbers) > 0
	hasCount := r.SeatCount > 0
	if hasNumbers == hasCount {
		return NewValidationError("provide either seat_numbers or seat_count")
	}
	requested := r.SeatCount
	if hasNumbers {
		requested = len(r.SeatNumbers)
		seen := make(map[int]bool, requested)
		for _, n := range r.SeatNumbers {
			if n <= 0 {
				return NewValidationError("seat numbers must be positive")
			}
			if seen[n] {
				return NewValidationError("duplicate seat number in request")
			}
			seen[n] = true
		}
	}
	if requested > MaxSeatsPerBooking {
		return NewValidationError("maximum 10 seats")
	}
	return nil
}

// UpdateBookingStatusRequest requests a booking status transition
type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
}

// BookingWithBill joins a booking with its bill and seat details for display
type BookingWithBill struct {
	Booking          Booking         `json:"booking"`
	Details          []BookingDetail `json:"details"`
	Bill             *Bill           `json:"bill,omitempty"`
	AvailableActions []string        `json:"available_actions"`
}
