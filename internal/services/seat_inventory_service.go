package services

import (
	"github.com/google/uuid"
	"github.com/omar10120/ksdora-backend/internal/database"
	"github.com/omar10120/ksdora-backend/internal/models"
)

// SeatInventoryService serves per-trip seat state and the admin block
// operations. Booking-driven seat changes only happen through the booking,
// lock and transition paths.
type SeatInventoryService struct {
	seatRepo *database.SeatRepository
	tripRepo *database.TripRepository
	cache    *CacheService
}

// NewSeatInventoryService creates a new SeatInventoryService
func NewSeatInventoryService(
	seatRepo *database.SeatRepository,
	tripRepo *database.TripRepository,
	cache *CacheService,
) *SeatInventoryService {
	return &SeatInventoryService{
		seatRepo: seatRepo,
		tripRepo: tripRepo,
		cache:    cache,
	}
}

// ListSeats returns the ordered seats of a trip. Served from the advisory
// cache when fresh.
func (s *SeatInventoryService) ListSeats(tripID uuid.UUID) ([]models.Seat, error) {
	if cached, ok := s.cache.Get(TripSeatsKey(tripID)); ok {
		if seats, ok := cached.([]models.Seat); ok {
			return seats, nil
		}
	}

	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, models.NewNotFoundError("trip not found")
	}

	seats, err := s.seatRepo.GetByTripID(tripID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(TripSeatsKey(tripID), seats)
	return seats, nil
}

// GetSummary returns aggregate counts and the occupancy rate for a trip
func (s *SeatInventoryService) GetSummary(tripID uuid.UUID) (*models.SeatSummary, error) {
	if cached, ok := s.cache.Get(SeatSummaryKey(tripID)); ok {
		if summary, ok := cached.(*models.SeatSummary); ok {
			return summary, nil
		}
	}

	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, models.NewNotFoundError("trip not found")
	}

	summary, err := s.seatRepo.GetSummary(tripID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(SeatSummaryKey(tripID), summary)
	return summary, nil
}

// BlockSeats takes available seats off sale (maintenance, crew holds)
func (s *SeatInventoryService) BlockSeats(tripID, adminID uuid.UUID, req *models.BlockSeatsRequest) error {
	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return err
	}
	if trip == nil {
		return models.NewNotFoundError("trip not found")
	}

	if err := s.seatRepo.BlockSeats(tripID, req.SeatNumbers, req.Reason, adminID); err != nil {
		return err
	}
	s.cache.InvalidateTrip(tripID)
	return nil
}

// UnblockSeats returns blocked seats to the available pool
func (s *SeatInventoryService) UnblockSeats(tripID uuid.UUID, req *models.UnblockSeatsRequest) error {
	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return err
	}
	if trip == nil {
		return models.NewNotFoundError("trip not found")
	}

	if err := s.seatRepo.UnblockSeats(tripID, req.SeatNumbers); err != nil {
		return err
	}
	s.cache.InvalidateTrip(tripID)
	return nil
}
