// Package gateway abstracts the external payment gateway. The booking core
// never advances state from a gateway result alone; captured money still
// waits for administrative confirmation.
package gateway

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeResult is the gateway's answer to one charge attempt
type ChargeResult struct {
	Success       bool
	TransactionID string
	FailureReason string
}

// Gateway charges an amount using the given method
type Gateway interface {
	AttemptCharge(amount decimal.Decimal, method string) (*ChargeResult, error)
}

// SandboxGateway simulates a payment gateway for development and tests.
// Charges succeed unless the amount is non-positive.
type SandboxGateway struct {
	environment string
}

// NewSandboxGateway creates a simulated gateway
func NewSandboxGateway(environment string) *SandboxGateway {
	return &SandboxGateway{environment: environment}
}

// AttemptCharge simulates a charge and returns a synthetic transaction id
func (g *SandboxGateway) AttemptCharge(amount decimal.Decimal, method string) (*ChargeResult, error) {
	if !amount.IsPositive() {
		return &ChargeResult{
			Success:       false,
			FailureReason: "amount must be positive",
		}, nil
	}
	return &ChargeResult{
		Success:       true,
		TransactionID: fmt.Sprintf("TXN-%s-%d", uuid.New().String()[:8], time.Now().Unix()),
	}, nil
}
