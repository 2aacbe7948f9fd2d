package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/omar10120/ksdora-backend/internal/middleware"
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/omar10120/ksdora-backend/internal/services"
	"github.com/omar10120/ksdora-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// PaymentHandler handles payment submission and reconciliation API endpoints
type PaymentHandler struct {
	paymentService *services.PaymentService
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *services.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

func requestMeta(c *gin.Context) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}
}

// SubmitPayment records one payment attempt for a booking's bill
// POST /api/v1/bookings/:bookingId/payments
func (h *PaymentHandler) SubmitPayment(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	bookingID, err := parseUUIDParam(c, "bookingId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req models.SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, models.NewValidationError("%s", err.Error()))
		return
	}

	payment, err := h.paymentService.SubmitPayment(userCtx.UserID, bookingID, &req, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusCreated, payment)
}

// GetPaymentSummary returns the reconciliation view for a booking's bill
// GET /api/v1/bookings/:bookingId/payments
func (h *PaymentHandler) GetPaymentSummary(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	bookingID, err := parseUUIDParam(c, "bookingId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	summary, err := h.paymentService.GetSummary(bookingID, userCtx.UserID, userCtx.IsAdmin())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, summary)
}

// ConfirmPayment approves a pending payment and cascades bill and booking
// effects (admin)
// POST /api/v1/admin/payments/:paymentId/confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	paymentID, err := parseUUIDParam(c, "paymentId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	outcome, err := h.paymentService.ConfirmPayment(userCtx.UserID, paymentID, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, outcome)
}

// RejectPayment finalizes a pending payment as failed (admin)
// POST /api/v1/admin/payments/:paymentId/reject
func (h *PaymentHandler) RejectPayment(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	paymentID, err := parseUUIDParam(c, "paymentId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	payment, err := h.paymentService.RejectPayment(userCtx.UserID, paymentID, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, payment)
}

// ListPaymentAudits returns recent payment audit entries (admin)
// GET /api/v1/admin/payments/audits
func (h *PaymentHandler) ListPaymentAudits(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	audits, err := h.paymentService.ListAudits(limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondList(c, "no audit entries found", audits, len(audits))
}
