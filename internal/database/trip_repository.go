package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/omar10120/ksdora-backend/internal/models"
)

// TripRepository handles trip and bus database operations
type TripRepository struct {
	db *sqlx.DB
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

// GetByID retrieves a trip by ID. Returns nil, nil when not found.
func (r *TripRepository) GetByID(tripID uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	query := `
		SELECT id, route_id, bus_id, departure_time, arrival_time,
		       last_booking_time, price, status, created_at, updated_at
		FROM trips
		WHERE id = $1`

	err := r.db.Get(&trip, query, tripID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return &trip, nil
}

// GetBusByID retrieves a bus by ID. Returns nil, nil when not found.
func (r *TripRepository) GetBusByID(busID uuid.UUID) (*models.Bus, error) {
	var bus models.Bus
	query := `
		SELECT id, plate_number, model, capacity, status, created_at, updated_at
		FROM buses
		WHERE id = $1`

	err := r.db.Get(&bus, query, busID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bus: %w", err)
	}
	return &bus, nil
}

// CreateWithSeats inserts a trip and materializes its seat inventory from
// the bus capacity in one transaction. Seats are numbered 1..capacity.
func (r *TripRepository) CreateWithSeats(trip *models.Trip, capacity int) error {
	trip.ID = uuid.New()
	now := time.Now()
	trip.CreatedAt = now
	trip.UpdatedAt = now

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO trips (
			id, route_id, bus_id, departure_time, arrival_time,
			last_booking_time, price, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		trip.ID, trip.RouteID, trip.BusID, trip.DepartureTime, trip.ArrivalTime,
		trip.LastBookingTime, trip.Price, trip.Status, trip.CreatedAt, trip.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}

	for seatNumber := 1; seatNumber <= capacity; seatNumber++ {
		_, err = tx.Exec(`
			INSERT INTO seats (id, trip_id, seat_number, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), trip.ID, seatNumber, models.SeatStatusAvailable, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert seat %d: %w", seatNumber, err)
		}
	}

	return tx.Commit()
}

// UpdateStatus updates the status of a trip
func (r *TripRepository) UpdateStatus(tripID uuid.UUID, status models.TripStatus) error {
	result, err := r.db.Exec(
		`UPDATE trips SET status = $2, updated_at = NOW() WHERE id = $1`,
		tripID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update trip status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.NewNotFoundError("trip not found")
	}
	return nil
}

// ListWithAvailability returns trips joined with their seat availability.
// Counts read here are advisory; mutating paths always re-read inside
// their own transaction.
func (r *TripRepository) ListWithAvailability() ([]models.TripListItem, error) {
	query := `
		SELECT t.id, t.route_id, t.bus_id, t.departure_time, t.arrival_time,
		       t.last_booking_time, t.price, t.status, t.created_at, t.updated_at,
		       COUNT(s.id) AS total_seats,
		       COUNT(s.id) FILTER (WHERE s.status = 'available') AS available_seats
		FROM trips t
		LEFT JOIN seats s ON s.trip_id = t.id
		GROUP BY t.id
		ORDER BY t.departure_time`

	trips := []models.TripListItem{}
	if err := r.db.Select(&trips, query); err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}
