package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/omar10120/ksdora-backend/internal/middleware"
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/omar10120/ksdora-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// BookingHandler handles booking lifecycle API endpoints
type BookingHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// CreateBooking creates a booking for explicit seats or a seat count
// POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, models.NewValidationError("%s", err.Error()))
		return
	}

	booking, err := h.bookingService.CreateBooking(userCtx.UserID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusCreated, booking)
}

// GetBooking returns a booking with its seats, bill and available actions
// GET /api/v1/bookings/:bookingId
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	bookingID, err := parseUUIDParam(c, "bookingId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	booking, err := h.bookingService.GetBooking(bookingID, userCtx.UserID, userCtx.IsAdmin())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, booking)
}

// ListMyBookings returns the caller's bookings, newest first
// GET /api/v1/bookings
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	bookings, err := h.bookingService.ListUserBookings(userCtx.UserID, limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondList(c, "no bookings found", bookings, len(bookings))
}

// ListTripBookings returns all bookings on a trip (admin)
// GET /api/v1/admin/trips/:tripId/bookings
func (h *BookingHandler) ListTripBookings(c *gin.Context) {
	tripID, err := parseUUIDParam(c, "tripId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	bookings, err := h.bookingService.ListTripBookings(tripID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondList(c, "no bookings found for trip", bookings, len(bookings))
}

// UpdateBookingStatus moves a booking through its lifecycle
// PATCH /api/v1/bookings/:bookingId/status
func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	bookingID, err := parseUUIDParam(c, "bookingId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req models.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, models.NewValidationError("%s", err.Error()))
		return
	}

	booking, err := h.bookingService.UpdateStatus(bookingID, userCtx.UserID, userCtx.IsAdmin(), req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, booking)
}

// CancelBooking cancels a booking and releases its seats
// POST /api/v1/bookings/:bookingId/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	bookingID, err := parseUUIDParam(c, "bookingId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	booking, err := h.bookingService.CancelBooking(bookingID, userCtx.UserID, userCtx.IsAdmin())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, booking)
}

// DeleteBooking removes a booking and its dependent records
// DELETE /api/v1/bookings/:bookingId
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	bookingID, err := parseUUIDParam(c, "bookingId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.bookingService.DeleteBooking(bookingID, userCtx.UserID, userCtx.IsAdmin()); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}
