package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/omar10120/ksdora-backend/internal/database"
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// SeatLockService gives a user a short exclusive claim on seats while they
// complete checkout, without creating a real booking.
type SeatLockService struct {
	lockRepo *database.LockRepository
	tripRepo *database.TripRepository
	cache    *CacheService
	logger   *logrus.Logger
}

// NewSeatLockService creates a new SeatLockService
func NewSeatLockService(
	lockRepo *database.LockRepository,
	tripRepo *database.TripRepository,
	cache *CacheService,
	logger *logrus.Logger,
) *SeatLockService {
	return &SeatLockService{
		lockRepo: lockRepo,
		tripRepo: tripRepo,
		cache:    cache,
		logger:   logger,
	}
}

// LockSeats reserves the requested seats for the user until the lock
// window elapses. Conflicting unexpired locks by other users fail with the
// contested seat numbers.
func (s *SeatLockService) LockSeats(userID, tripID uuid.UUID, req *models.LockSeatsRequest) (*models.LockSeatsResponse, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, models.NewNotFoundError("trip not found")
	}
	now := time.Now()
	if !trip.IsBookable(now) {
		return nil, models.NewBusinessRuleError("trip is not open for booking")
	}

	expiresAt := now.Add(time.Duration(req.DurationSeconds) * time.Second)
	lock, details, err := s.lockRepo.CreateLock(userID, tripID, req.SeatNumbers, expiresAt)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateTrip(tripID)

	seatNumbers := make([]int, len(details))
	for i, d := range details {
		seatNumbers[i] = d.SeatNumber
	}

	s.logger.WithFields(logrus.Fields{
		"lock_id":      lock.ID,
		"trip_id":      tripID,
		"user_id":      userID,
		"seat_numbers": seatNumbers,
		"expires_at":   lock.LockExpiresAt,
	}).Info("Seats locked")

	ttl := 0
	if lock.LockExpiresAt != nil {
		ttl = int(time.Until(*lock.LockExpiresAt).Seconds())
	}
	return &models.LockSeatsResponse{
		LockID:      lock.ID,
		TripID:      tripID,
		SeatNumbers: seatNumbers,
		ExpiresAt:   *lock.LockExpiresAt,
		TTLSeconds:  ttl,
	}, nil
}

// ReleaseLock releases a lock's seats back to available. Owner-only.
func (s *SeatLockService) ReleaseLock(lockID, userID uuid.UUID) error {
	lock, err := s.lockRepo.GetLockByID(lockID)
	if err != nil {
		return err
	}
	if err := s.lockRepo.ReleaseLock(lockID, userID); err != nil {
		return err
	}
	if lock != nil {
		s.cache.InvalidateTrip(lock.TripID)
	}

	s.logger.WithFields(logrus.Fields{
		"lock_id": lockID,
		"user_id": userID,
	}).Info("Seat lock released")
	return nil
}
