package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/omar10120/ksdora-backend/internal/database"
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TripService handles trip scheduling and the trip listing view
type TripService struct {
	tripRepo *database.TripRepository
	cache    *CacheService
	logger   *logrus.Logger
}

// NewTripService creates a new TripService
func NewTripService(tripRepo *database.TripRepository, cache *CacheService, logger *logrus.Logger) *TripService {
	return &TripService{
		tripRepo: tripRepo,
		cache:    cache,
		logger:   logger,
	}
}

// CreateTrip schedules a trip and materializes one seat row per unit of
// bus capacity in the same transaction.
func (s *TripService) CreateTrip(req *models.CreateTripRequest) (*models.Trip, error) {
	routeID, err := uuid.Parse(req.RouteID)
	if err != nil {
		return nil, models.NewValidationError("invalid route ID format")
	}
	busID, err := uuid.Parse(req.BusID)
	if err != nil {
		return nil, models.NewValidationError("invalid bus ID format")
	}
	departure, arrival, lastBooking, err := req.ParsedTimes()
	if err != nil {
		return nil, models.NewValidationError("%s", err.Error())
	}

	bus, err := s.tripRepo.GetBusByID(busID)
	if err != nil {
		return nil, err
	}
	if bus == nil {
		return nil, models.NewNotFoundError("bus not found")
	}
	if !bus.IsBookable() {
		return nil, models.NewBusinessRuleError("bus is not available for scheduling (%s)", bus.Status)
	}

	trip := &models.Trip{
		RouteID:         routeID,
		BusID:           busID,
		DepartureTime:   departure,
		ArrivalTime:     arrival,
		LastBookingTime: lastBooking,
		Price:           decimal.NewFromFloat(req.Price),
		Status:          models.TripStatusScheduled,
	}
	if err := s.tripRepo.CreateWithSeats(trip, bus.Capacity); err != nil {
		return nil, err
	}
	s.cache.InvalidateTrip(trip.ID)

	s.logger.WithFields(logrus.Fields{
		"trip_id": trip.ID,
		"bus_id":  busID,
		"seats":   bus.Capacity,
	}).Info("Trip created with seat inventory")
	return trip, nil
}

// GetTrip returns a single trip by ID
func (s *TripService) GetTrip(tripID uuid.UUID) (*models.Trip, error) {
	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, models.NewNotFoundError("trip not found")
	}
	return trip, nil
}

// ListTrips returns all trips with live seat availability, read through
// the inventory cache.
func (s *TripService) ListTrips() ([]models.TripListItem, error) {
	if cached, ok := s.cache.Get(TripListKey()); ok {
		if trips, ok := cached.([]models.TripListItem); ok {
			return trips, nil
		}
	}

	trips, err := s.tripRepo.ListWithAvailability()
	if err != nil {
		return nil, err
	}
	s.cache.Set(TripListKey(), trips)
	return trips, nil
}

// UpdateStatus changes a trip's status. Moving a trip out of scheduled
// closes it to new bookings and seat locks immediately.
func (s *TripService) UpdateStatus(tripID uuid.UUID, req *models.UpdateTripStatusRequest) (*models.Trip, error) {
	if !req.Valid() {
		return nil, models.NewValidationError("unknown trip status: %s", req.Status)
	}

	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, models.NewNotFoundError("trip not found")
	}
	if trip.Status == req.Status {
		return trip, nil
	}

	if err := s.tripRepo.UpdateStatus(tripID, req.Status); err != nil {
		return nil, err
	}
	trip.Status = req.Status
	trip.UpdatedAt = time.Now()
	s.cache.InvalidateTrip(tripID)

	s.logger.WithFields(logrus.Fields{
		"trip_id": tripID,
		"status":  req.Status,
	}).Info("Trip status updated")
	return trip, nil
}
