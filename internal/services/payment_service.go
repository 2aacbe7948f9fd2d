package services

import (
	"encoding/base64"
	"net/http"

	"github.com/google/uuid"
	"github.com/mssola/user_agent"
	"github.com/omar10120/ksdora-backend/internal/database"
	"github.com/omar10120/ksdora-backend/internal/lifecycle"
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/omar10120/ksdora-backend/pkg/gateway"
	"github.com/omar10120/ksdora-backend/pkg/storage"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// RequestMeta carries the caller's network identity into the audit trail
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// PaymentService records payment attempts and reconciles bill and booking
// state. Gateway success never advances booking state by itself; the admin
// confirmation step does.
type PaymentService struct {
	paymentRepo        *database.PaymentRepository
	bookingRepo        *database.BookingRepository
	auditRepo          *database.PaymentAuditRepository
	gateway            gateway.Gateway
	receipts           storage.Store
	cache              *CacheService
	cashDepositPercent int
	logger             *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo *database.PaymentRepository,
	bookingRepo *database.BookingRepository,
	auditRepo *database.PaymentAuditRepository,
	gw gateway.Gateway,
	receipts storage.Store,
	cache *CacheService,
	cashDepositPercent int,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo:        paymentRepo,
		bookingRepo:        bookingRepo,
		auditRepo:          auditRepo,
		gateway:            gw,
		receipts:           receipts,
		cache:              cache,
		cashDepositPercent: cashDepositPercent,
		logger:             logger,
	}
}

// SubmitPayment records one payment attempt for a booking's bill. The
// amount is computed from the method, never taken from the client. The
// payment stays pending after a successful gateway charge, awaiting the
// admin confirmation step.
func (s *PaymentService) SubmitPayment(
	userID, bookingID uuid.UUID,
	req *models.SubmitPaymentRequest,
	meta RequestMeta,
) (*models.Payment, error) {
	if !req.Method.Valid() {
		return nil, models.NewValidationError("unknown payment method: %s", req.Method)
	}
	method, err := lifecycle.ForMethod(req.Method, s.cashDepositPercent)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil || booking.IsSeatLock {
		return nil, models.NewNotFoundError("booking not found")
	}
	if booking.UserID != userID {
		return nil, models.NewForbiddenError("booking belongs to another user")
	}

	bill, err := s.paymentRepo.GetBillByBookingID(bookingID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, models.NewNotFoundError("bill not found for booking")
	}

	var receiptURL *string
	if req.ReceiptBase64 != nil && *req.ReceiptBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(*req.ReceiptBase64)
		if err != nil {
			return nil, models.NewValidationError("receipt_base64 is not valid base64")
		}
		url, err := s.receipts.Store(data, http.DetectContentType(data))
		if err != nil {
			s.logger.WithError(err).Error("Failed to store receipt image")
			return nil, models.NewBusinessRuleError("failed to store receipt image")
		}
		receiptURL = &url
	}

	payment := &models.Payment{
		BillID:     bill.ID,
		Amount:     method.ComputeAmount(bill.Amount),
		Method:     req.Method,
		ReceiptURL: receiptURL,
	}
	if err := s.paymentRepo.CreatePending(payment); err != nil {
		return nil, err
	}
	s.audit(payment, bill.ID, models.AuditEventPaymentSubmitted, &userID, meta, nil)

	result, err := s.gateway.AttemptCharge(payment.Amount, string(payment.Method))
	if err != nil {
		s.logger.WithError(err).WithField("payment_id", payment.ID).Error("Gateway charge failed")
		if recErr := s.paymentRepo.RecordGatewayResult(payment.ID, false, ""); recErr != nil {
			return nil, recErr
		}
		payment.Status = models.PaymentStatusFailed
		msg := "gateway unavailable"
		s.audit(payment, bill.ID, models.AuditEventGatewayResult, &userID, meta, &msg)
		return payment, nil
	}

	if err := s.paymentRepo.RecordGatewayResult(payment.ID, result.Success, result.TransactionID); err != nil {
		return nil, err
	}
	if result.Success {
		payment.TransactionID = &result.TransactionID
	} else {
		payment.Status = models.PaymentStatusFailed
	}
	var auditErr *string
	if !result.Success {
		auditErr = &result.FailureReason
	}
	s.audit(payment, bill.ID, models.AuditEventGatewayResult, &userID, meta, auditErr)

	s.logger.WithFields(logrus.Fields{
		"payment_id":      payment.ID,
		"booking_id":      bookingID,
		"method":          payment.Method,
		"amount":          payment.Amount,
		"gateway_success": result.Success,
	}).Info("Payment submitted")
	return payment, nil
}

// GetSummary recomputes the reconciliation view over a bill's payments:
// totalPaid, remaining balance floored at zero, and whether fully paid.
func (s *PaymentService) GetSummary(bookingID, requesterID uuid.UUID, isAdmin bool) (*models.PaymentSummary, error) {
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

	bill, err := s.paymentRepo.GetBillByBookingID(bookingID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, models.NewNotFoundError("bill not found for booking")
	}

	payments, err := s.paymentRepo.GetPaymentsByBillID(bill.ID)
	if err != nil {
		return nil, err
	}

	totalPaid := decimal.Zero
	for _, p := range payments {
		if p.Status == models.PaymentStatusSuccessful {
			totalPaid = totalPaid.Add(p.Amount)
		}
	}
	remaining := bill.Amount.Sub(totalPaid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return &models.PaymentSummary{
		BillID:           bill.ID,
		BillAmount:       bill.Amount,
		BillStatus:       bill.Status,
		TotalPaid:        totalPaid,
		RemainingBalance: remaining,
		IsFullyPaid:      remaining.IsZero(),
		Payments:         payments,
	}, nil
}

// ConfirmPayment is the human-in-the-loop step that turns captured money
// into booking state. Method-specific rules decide bill and booking
// effects; everything cascades in one transaction.
func (s *PaymentService) ConfirmPayment(adminID, paymentID uuid.UUID, meta RequestMeta) (*database.ConfirmOutcome, error) {
	payment, err := s.paymentRepo.GetPaymentByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, models.NewNotFoundError("payment not found")
	}
	method, err := lifecycle.ForMethod(payment.Method, s.cashDepositPercent)
	if err != nil {
		return nil, err
	}

	outcome, err := s.paymentRepo.Confirm(paymentID, method)
	if err != nil {
		return nil, err
	}
	s.audit(outcome.Payment, outcome.Payment.BillID, models.AuditEventPaymentConfirmed, &adminID, meta, nil)
	s.invalidateBookingTrip(outcome.Payment.BillID)

	s.logger.WithFields(logrus.Fields{
		"payment_id":        paymentID,
		"admin_id":          adminID,
		"bill_paid":         outcome.BillPaid,
		"booking_confirmed": outcome.BookingConfirmed,
		"remainder_logged":  outcome.RemainderLogged,
	}).Info("Payment confirmed")
	return outcome, nil
}

// RejectPayment finalizes a pending payment as failed; booking, bill and
// seats stay untouched.
func (s *PaymentService) RejectPayment(adminID, paymentID uuid.UUID, meta RequestMeta) (*models.Payment, error) {
	payment, err := s.paymentRepo.Reject(paymentID)
	if err != nil {
		return nil, err
	}
	s.audit(payment, payment.BillID, models.AuditEventPaymentRejected, &adminID, meta, nil)

	s.logger.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"admin_id":   adminID,
	}).Info("Payment rejected")
	return payment, nil
}

// ListAudits returns recent payment audit entries (admin view)
func (s *PaymentService) ListAudits(limit, offset int) ([]models.PaymentAudit, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.auditRepo.List(limit, offset)
}

// audit writes one payment audit entry, logging loudly on failure
func (s *PaymentService) audit(
	payment *models.Payment,
	billID uuid.UUID,
	event models.PaymentAuditEvent,
	actor *uuid.UUID,
	meta RequestMeta,
	errMsg *string,
) {
	ua := user_agent.New(meta.UserAgent)
	browser, _ := ua.Browser()

	entry := &models.PaymentAudit{
		BillID:        billID,
		EventType:     event,
		Amount:        payment.Amount,
		PaymentStatus: payment.Status,
		TransactionID: payment.TransactionID,
		ActorUserID:   actor,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		Browser:       browser,
		Platform:      ua.Platform(),
		ErrorMessage:  errMsg,
	}
	if payment.ID != uuid.Nil {
		entry.PaymentID = &payment.ID
	}
	if err := s.auditRepo.Log(entry); err != nil {
		s.logger.WithError(err).WithField("event", event).Error("Payment audit write failed")
	}
}

// invalidateBookingTrip drops cached inventory for the trip behind a bill
func (s *PaymentService) invalidateBookingTrip(billID uuid.UUID) {
	bill, err := s.paymentRepo.GetBillByID(billID)
	if err != nil || bill == nil {
		return
	}
	booking, err := s.bookingRepo.GetByID(bill.BookingID)
	if err != nil || booking == nil {
		return
	}
	s.cache.InvalidateTrip(booking.TripID)
}
