package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/omar10120/ksdora-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// TripHandler handles trip scheduling and listing API endpoints
type TripHandler struct {
	tripService *services.TripService
	logger      *logrus.Logger
}

// NewTripHandler creates a new TripHandler
func NewTripHandler(tripService *services.TripService, logger *logrus.Logger) *TripHandler {
	return &TripHandler{
		tripService: tripService,
		logger:      logger,
	}
}

// CreateTrip schedules a trip and materializes its seat inventory
// POST /api/v1/admin/trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, models.NewValidationError("%s", err.Error()))
		return
	}

	trip, err := h.tripService.CreateTrip(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusCreated, trip)
}

// GetTrip returns a single trip
// GET /api/v1/trips/:tripId
func (h *TripHandler) GetTrip(c *gin.Context) {
	tripID, err := parseUUIDParam(c, "tripId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	trip, err := h.tripService.GetTrip(tripID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, trip)
}

// ListTrips returns all trips with seat availability
// GET /api/v1/trips
func (h *TripHandler) ListTrips(c *gin.Context) {
	trips, err := h.tripService.ListTrips()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondList(c, "no trips found", trips, len(trips))
}

// UpdateTripStatus changes a trip's status
// PATCH /api/v1/admin/trips/:tripId/status
func (h *TripHandler) UpdateTripStatus(c *gin.Context) {
	tripID, err := parseUUIDParam(c, "tripId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req models.UpdateTripStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, models.NewValidationError("%s", err.Error()))
		return
	}

	trip, err := h.tripService.UpdateStatus(tripID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, trip)
}
