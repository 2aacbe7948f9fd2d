package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/omar10120/ksdora-backend/internal/database"
	"github.com/omar10120/ksdora-backend/internal/lifecycle"
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// BookingService turns a seat selection into a durable, priced booking with
// its bill, and drives every later status transition through the lifecycle
// state machine.
type BookingService struct {
	bookingRepo *database.BookingRepository
	tripRepo    *database.TripRepository
	seatRepo    *database.SeatRepository
	paymentRepo *database.PaymentRepository
	cache       *CacheService
	logger      *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	bookingRepo *database.BookingRepository,
	tripRepo *database.TripRepository,
	seatRepo *database.SeatRepository,
	paymentRepo *database.PaymentRepository,
	cache *CacheService,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		tripRepo:    tripRepo,
		seatRepo:    seatRepo,
		paymentRepo: paymentRepo,
		cache:       cache,
		logger:      logger,
	}
}

// CreateBooking validates fast outside any transaction, then re-validates
// the seat claim under row locks while creating the booking, details and
// bill atomically. Price is the trip price times seat count, decimal-exact.
func (s *BookingService) CreateBooking(userID uuid.UUID, req *models.CreateBookingRequest) (*models.BookingWithBill, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	tripID, err := uuid.Parse(req.TripID)
	if err != nil {
		return nil, models.NewValidationError("invalid trip_id")
	}

	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, models.NewNotFoundError("trip not found")
	}
	now := time.Now()
	if trip.Status != models.TripStatusScheduled {
		return nil, models.NewBusinessRuleError("trip is not scheduled (%s)", trip.Status)
	}
	if !now.Before(trip.LastBookingTime) {
		return nil, models.NewBusinessRuleError("booking deadline has passed")
	}
	if !now.Before(trip.DepartureTime) {
		return nil, models.NewBusinessRuleError("trip has already departed")
	}

	bus, err := s.tripRepo.GetBusByID(trip.BusID)
	if err != nil {
		return nil, err
	}
	if bus == nil || !bus.IsBookable() {
		return nil, models.NewBusinessRuleError("bus is not accepting bookings")
	}

	existing, err := s.bookingRepo.GetActiveByUserAndTrip(userID, tripID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("user already has an active booking for this trip")
	}

	// Advisory availability check for count-based requests only. Explicit
	// seat claims are judged under the row locks inside CreateWithSeats,
	// where the caller's own reserved seats still count as claimable; a
	// count gate here would reject users converting their own lock.
	requested := req.SeatCount
	if len(req.SeatNumbers) > 0 {
		requested = len(req.SeatNumbers)
	} else {
		summary, err := s.seatRepo.GetSummary(tripID)
		if err != nil {
			return nil, err
		}
		if summary.AvailableSeats < requested {
			return nil, models.NewBusinessRuleError(
				"not enough available seats: requested %d, available %d", requested, summary.AvailableSeats)
		}
	}

	booking := &models.Booking{
		UserID:     userID,
		TripID:     tripID,
		TotalPrice: trip.Price.Mul(decimal.NewFromInt(int64(requested))),
	}
	details, bill, err := s.bookingRepo.CreateWithSeats(booking, trip.Price, req.SeatNumbers, req.SeatCount)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateTrip(tripID)

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"trip_id":     tripID,
		"user_id":     userID,
		"seat_count":  len(details),
		"total_price": booking.TotalPrice,
	}).Info("Booking created")

	return &models.BookingWithBill{
		Booking:          *booking,
		Details:          details,
		Bill:             bill,
		AvailableActions: lifecycle.AvailableActions(booking.Status),
	}, nil
}

// GetBooking returns a booking with its details, bill and the actions
// currently legal on it. Non-admin callers only see their own bookings.
func (s *BookingService) GetBooking(bookingID, requesterID uuid.UUID, isAdmin bool) (*models.BookingWithBill, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil || booking.IsSeatLock {
		return nil, models.NewNotFoundError("booking not found")
	}
	if !isAdmin && booking.UserID != requesterID {
		return nil, models.NewForbiddenError("booking belongs to another user")
	}

	details, err := s.bookingRepo.GetDetails(bookingID)
	if err != nil {
		return nil, err
	}
	bill, err := s.paymentRepo.GetBillByBookingID(bookingID)
	if err != nil {
		return nil, err
	}

	return &models.BookingWithBill{
		Booking:          *booking,
		Details:          details,
		Bill:             bill,
		AvailableActions: lifecycle.AvailableActions(booking.Status),
	}, nil
}

// ListUserBookings returns a user's bookings, newest first
func (s *BookingService) ListUserBookings(userID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookingRepo.ListByUser(userID, limit, offset)
}

// ListTripBookings returns every booking of a trip (admin view)
func (s *BookingService) ListTripBookings(tripID uuid.UUID) ([]models.Booking, error) {
	return s.bookingRepo.ListByTrip(tripID)
}

// UpdateStatus transitions a booking toward the requested status. The
// lifecycle state machine decides legality and the seat/bill cascades.
// Confirm and complete are admin-only; owners may cancel their own booking.
func (s *BookingService) UpdateStatus(
	bookingID, requesterID uuid.UUID,
	isAdmin bool,
	target models.BookingStatus,
) (*models.Booking, error) {
	ev, err := lifecycle.EventForStatus(target)
	if err != nil {
		return nil, err
	}
	if !isAdmin && ev != lifecycle.EventCancel {
		return nil, models.NewForbiddenError("only admins may %s bookings", ev)
	}

	booking, err := s.authorizedBooking(bookingID, requesterID, isAdmin)
	if err != nil {
		return nil, err
	}

	updated, err := s.bookingRepo.ApplyTransition(booking.ID, ev)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateTrip(updated.TripID)

	s.logger.WithFields(logrus.Fields{
		"booking_id": updated.ID,
		"from":       booking.Status,
		"to":         updated.Status,
		"event":      ev,
	}).Info("Booking status updated")
	return updated, nil
}

// CancelBooking cancels a booking, releasing its seats unconditionally.
// Cancelling an already-cancelled booking is rejected, never double-released.
func (s *BookingService) CancelBooking(bookingID, requesterID uuid.UUID, isAdmin bool) (*models.Booking, error) {
	return s.UpdateStatus(bookingID, requesterID, isAdmin, models.BookingStatusCancelled)
}

// DeleteBooking removes a non-completed booking entirely, releasing seats
// and dropping its details, bill and payment history.
func (s *BookingService) DeleteBooking(bookingID, requesterID uuid.UUID, isAdmin bool) error {
	booking, err := s.authorizedBooking(bookingID, requesterID, isAdmin)
	if err != nil {
		return err
	}
	if err := s.bookingRepo.Delete(booking.ID); err != nil {
		return err
	}
	s.cache.InvalidateTrip(booking.TripID)

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"trip_id":    booking.TripID,
	}).Info("Booking deleted")
	return nil
}

// authorizedBooking loads a real booking and enforces ownership for
// non-admin callers.
func (s *BookingService) authorizedBooking(bookingID, requesterID uuid.UUID, isAdmin bool) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil || booking.IsSeatLock {
		return nil, models.NewNotFoundError("booking not found")
	}
	if !isAdmin && booking.UserID != requesterID {
		return nil, models.NewForbiddenError("booking belongs to another user")
	}
	return booking, nil
}
