package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how a payment is made.
// Matches PostgreSQL ENUM: payment_method
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodOnline PaymentMethod = "online_payment"
)

// Valid reports whether the method is one of the closed set
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodOnline
}

// PaymentStatus represents the status of one payment attempt
// Matches PostgreSQL ENUM: payment_status
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusSuccessful PaymentStatus = "successful"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// Payment is one attempt to satisfy a bill. Rows are append-only history:
// never deleted, only transitioned to successful or failed.
type Payment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	BillID        uuid.UUID       `json:"bill_id" db:"bill_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Method        PaymentMethod   `json:"method" db:"method"`
	Status        PaymentStatus   `json:"status" db:"status"`
	TransactionID *string         `json:"transaction_id,omitempty" db:"transaction_id"`
	ReceiptURL    *string         `json:"receipt_url,omitempty" db:"receipt_url"`
	PaidAt        *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// SubmitPaymentRequest submits one payment attempt for a booking's bill.
// The amount is computed server-side from the method, never client-supplied.
type SubmitPaymentRequest struct {
	Method        PaymentMethod `json:"method" binding:"required"`
	ReceiptBase64 *string       `json:"receipt_base64,omitempty"`
}

// PaymentSummary is the reconciliation view over a bill's payment history
type PaymentSummary struct {
	BillID           uuid.UUID       `json:"bill_id"`
	BillAmount       decimal.Decimal `json:"bill_amount"`
	BillStatus       BillStatus      `json:"bill_status"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	IsFullyPaid      bool            `json:"is_fully_paid"`
	Payments         []Payment       `json:"payments"`
}

// PaymentAuditEvent classifies payment audit trail entries
type PaymentAuditEvent string

const (
	AuditEventPaymentSubmitted PaymentAuditEvent = "payment_submitted"
	AuditEventGatewayResult    PaymentAuditEvent = "gateway_result"
	AuditEventPaymentConfirmed PaymentAuditEvent = "payment_confirmed"
	AuditEventPaymentRejected  PaymentAuditEvent = "payment_rejected"
)

// PaymentAudit is an append-only audit entry for payment events.
// Payment events must always be logged; audit writes never fail silently.
type PaymentAudit struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	PaymentID     *uuid.UUID        `json:"payment_id,omitempty" db:"payment_id"`
	BillID        uuid.UUID         `json:"bill_id" db:"bill_id"`
	EventType     PaymentAuditEvent `json:"event_type" db:"event_type"`
	Amount        decimal.Decimal   `json:"amount" db:"amount"`
	PaymentStatus PaymentStatus     `json:"payment_status" db:"payment_status"`
	TransactionID *string           `json:"transaction_id,omitempty" db:"transaction_id"`
	ActorUserID   *uuid.UUID        `json:"actor_user_id,omitempty" db:"actor_user_id"`
	IPAddress     string            `json:"ip_address" db:"ip_address"`
	UserAgent     string            `json:"user_agent" db:"user_agent"`
	Browser       string            `json:"browser" db:"browser"`
	Platform      string            `json:"platform" db:"platform"`
	ErrorMessage  *string           `json:"error_message,omitempty" db:"error_message"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
}
