package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/omar10120/ksdora-backend/internal/middleware"
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/omar10120/ksdora-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// SeatHandler handles seat inventory and seat lock API endpoints
type SeatHandler struct {
	inventoryService *services.SeatInventoryService
	lockService      *services.SeatLockService
	logger           *logrus.Logger
}

// NewSeatHandler creates a new SeatHandler
func NewSeatHandler(
	inventoryService *services.SeatInventoryService,
	lockService *services.SeatLockService,
	logger *logrus.Logger,
) *SeatHandler {
	return &SeatHandler{
		inventoryService: inventoryService,
		lockService:      lockService,
		logger:           logger,
	}
}

// GetTripSeats returns all seats for a trip, ordered by seat number
// GET /api/v1/trips/:tripId/seats
func (h *SeatHandler) GetTripSeats(c *gin.Context) {
	tripID, err := parseUUIDParam(c, "tripId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	seats, err := h.inventoryService.ListSeats(tripID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, seats)
}

// GetSeatSummary returns aggregate availability counts for a trip
// GET /api/v1/trips/:tripId/seats/summary
func (h *SeatHandler) GetSeatSummary(c *gin.Context) {
	tripID, err := parseUUIDParam(c, "tripId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	summary, err := h.inventoryService.GetSummary(tripID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, summary)
}

// LockSeats places a temporary hold on seats while the user decides
// POST /api/v1/trips/:tripId/seats/lock
func (h *SeatHandler) LockSeats(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	tripID, err := parseUUIDParam(c, "tripId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req models.LockSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, models.NewValidationError("%s", err.Error()))
		return
	}

	lock, err := h.lockService.LockSeats(userCtx.UserID, tripID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusCreated, lock)
}

// ReleaseLock releases one of the caller's seat locks before it expires
// DELETE /api/v1/seat-locks/:lockId
func (h *SeatHandler) ReleaseLock(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	lockID, err := parseUUIDParam(c, "lockId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.lockService.ReleaseLock(lockID, userCtx.UserID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"released": true})
}

// BlockSeats takes seats off sale (admin)
// POST /api/v1/admin/trips/:tripId/seats/block
func (h *SeatHandler) BlockSeats(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	tripID, err := parseUUIDParam(c, "tripId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req models.BlockSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, models.NewValidationError("%s", err.Error()))
		return
	}

	if err := h.inventoryService.BlockSeats(tripID, userCtx.UserID, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"blocked": req.SeatNumbers})
}

// UnblockSeats returns blocked seats to the available pool (admin)
// POST /api/v1/admin/trips/:tripId/seats/unblock
func (h *SeatHandler) UnblockSeats(c *gin.Context) {
	tripID, err := parseUUIDParam(c, "tripId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req models.UnblockSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, models.NewValidationError("%s", err.Error()))
		return
	}

	if err := h.inventoryService.UnblockSeats(tripID, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"unblocked": req.SeatNumbers})
}
