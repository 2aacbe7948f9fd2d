package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillStatus represents the payable status of a bill
// Matches PostgreSQL ENUM: bill_status
type BillStatus string

const (
	BillStatusUnpaid    BillStatus = "unpaid"
	BillStatusPaid      BillStatus = "paid"
	BillStatusCancelled BillStatus = "cancelled"
)

// Bill is the payable total for one booking, created together with it.
// Invariant: a bill only reports paid when the sum of successful payments
// covers the full amount.
type Bill struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	BookingID uuid.UUID       `json:"booking_id" db:"booking_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Status    BillStatus      `json:"status" db:"status"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
