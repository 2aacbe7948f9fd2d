package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TripStatus represents the status of a scheduled trip
// Matches PostgreSQL ENUM: trip_status
type TripStatus string

const (
	TripStatusScheduled  TripStatus = "scheduled"
	TripStatusInProgress TripStatus = "in_progress"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusCancelled  TripStatus = "cancelled"
)

// BusStatus represents the operational status of a bus
type BusStatus string

const (
	BusStatusActive           BusStatus = "active"
	BusStatusPassengerFilling BusStatus = "passenger_filling"
	BusStatusMaintenance      BusStatus = "maintenance"
	BusStatusRetired          BusStatus = "retired"
)

// Bus represents a vehicle assigned to trips. Capacity drives how many
// seats are materialized when a trip is created.
type Bus struct {
	ID          uuid.UUID `json:"id" db:"id"`
	PlateNumber string    `json:"plate_number" db:"plate_number"`
	Model       *string   `json:"model,omitempty" db:"model"`
	Capacity    int       `json:"capacity" db:"capacity"`
	Status      BusStatus `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// IsBookable reports whether the bus can accept new bookings
func (b *Bus) IsBookable() bool {
	return b.Status == BusStatusActive || b.Status == BusStatusPassengerFilling
}

// Trip represents a scheduled journey with its own seat inventory
type Trip struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	RouteID         uuid.UUID       `json:"route_id" db:"route_id"`
	BusID           uuid.UUID       `json:"bus_id" db:"bus_id"`
	DepartureTime   time.Time       `json:"departure_time" db:"departure_time"`
	ArrivalTime     time.Time       `json:"arrival_time" db:"arrival_time"`
	LastBookingTime time.Time       `json:"last_booking_time" db:"last_booking_time"`
	Price           decimal.Decimal `json:"price" db:"price"`
	Status          TripStatus      `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// IsBookable reports whether the trip currently accepts bookings or seat locks
func (t *Trip) IsBookable(now time.Time) bool {
	return t.Status == TripStatusScheduled &&
		now.Before(t.LastBookingTime) &&
		now.Before(t.DepartureTime)
}

// CreateTripRequest is the admin request to schedule a trip.
// Seats are created from the bus capacity in the same transaction.
type CreateTripRequest struct {
	RouteID         string  `json:"route_id" binding:"required"`
	BusID           string  `json:"bus_id" binding:"required"`
	DepartureTime   string  `json:"departure_time" binding:"required"`    // RFC3339
	ArrivalTime     string  `json:"arrival_time" binding:"required"`      // RFC3339
	LastBookingTime string  `json:"last_booking_time" binding:"required"` // RFC3339
	Price           float64 `json:"price" binding:"required,gt=0"`
}

// ParsedTimes parses and orders the request timestamps.
// Invariant: lastBookingTime < departureTime < arrivalTime.
func (r *CreateTripRequest) ParsedTimes() (departure, arrival, lastBooking time.Time, err error) {
	departure, err = time.Parse(time.RFC3339, r.DepartureTime)
	if err != nil {
		return departure, arrival, lastBooking, errors.New("departure_time must be RFC3339")
	}
	arrival, err = time.Parse(time.RFC3339, r.ArrivalTime)
	if err != nil {
		return departure, arrival, lastBooking, errors.New("arrival_time must be RFC3339")
	}
	lastBooking, err = time.Parse(time.RFC3339, r.LastBookingTime)
	if err != nil {
		return departure, arrival, lastBooking, errors.New("last_booking_time must be RFC3339")
	}
	if !lastBooking.Before(departure) {
		return departure, arrival, lastBooking, errors.New("last_booking_time must be before departure_time")
	}
	if !departure.Before(arrival) {
		return departure, arrival, lastBooking, errors.New("departure_time must be before arrival_time")
	}
	return departure, arrival, lastBooking, nil
}

// UpdateTripStatusRequest updates the status of a trip
type UpdateTripStatusRequest struct {
	Status TripStatus `json:"status" binding:"required"`
}

// Valid reports whether the requested trip status is a known value
func (r *UpdateTripStatusRequest) Valid() bool {
	switch r.Status {
	case TripStatusScheduled, TripStatusInProgress, TripStatusCompleted, TripStatusCancelled:
		return true
	}
	return false
}

// TripListItem is a trip row joined with seat availability for list endpoints
type TripListItem struct {
	Trip
	TotalSeats     int `json:"total_seats" db:"total_seats"`
	AvailableSeats int `json:"available_seats" db:"available_seats"`
}
