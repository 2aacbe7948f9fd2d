package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// PaymentAuditRepository handles the append-only payment audit trail.
// Payment events must always be logged; failures here are reported loudly,
// never swallowed.
type PaymentAuditRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewPaymentAuditRepository creates a new payment audit repository
func NewPaymentAuditRepository(db *sqlx.DB, logger *logrus.Logger) *PaymentAuditRepository {
	return &PaymentAuditRepository{db: db, logger: logger}
}

// Log creates a new payment audit entry
func (r *PaymentAuditRepository) Log(audit *models.PaymentAudit) error {
	if audit == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}
	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_audits (
			id, payment_id, bill_id, event_type, amount, payment_status,
			transaction_id, actor_user_id, ip_address, user_agent,
			browser, platform, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(query,
		audit.ID, audit.PaymentID, audit.BillID, audit.EventType, audit.Amount,
		audit.PaymentStatus, audit.TransactionID, audit.ActorUserID, audit.IPAddress,
		audit.UserAgent, audit.Browser, audit.Platform, audit.ErrorMessage, audit.CreatedAt,
	)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"bill_id":    audit.BillID,
			"event_type": audit.EventType,
		}).WithError(err).Error("Failed to write payment audit entry")
		return fmt.Errorf("failed to write payment audit: %w", err)
	}
	return nil
}

// List returns the most recent audit entries
func (r *PaymentAuditRepository) List(limit, offset int) ([]models.PaymentAudit, error) {
	audits := []models.PaymentAudit{}
	query := `
		SELECT id, payment_id, bill_id, event_type, amount, payment_status,
		       transaction_id, actor_user_id, ip_address, user_agent,
		       browser, platform, error_message, created_at
		FROM payment_audits
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	if err := r.db.Select(&audits, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list payment audits: %w", err)
	}
	return audits, nil
}
