package crm

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrLeadNotFound  = errors.New("lead not found")
	ErrInvalidStatus = errors.New("invalid status")
)

// Lead statuses. Status is a label, not a workflow: any status may be
// replaced by any other via an update.
const (
	StatusNew       = "NEW"
	StatusContacted = "CONTACTED"
	StatusQualified = "QUALIFIED"
	StatusLost      = "LOST"
)

// NormalizeStatus upper-cases s and checks it against the known statuses.
func NormalizeStatus(s string) (string, error) {
	switch up := strings.ToUpper(s); up {
	case StatusNew, StatusContacted, StatusQualified, StatusLost:
		return up, nil
	default:
		return "", ErrInvalidStatus
	}
}

// LeadCustomer is the customer projection attached to a listed lead.
// Only id and name cross the wire, never the full customer record.
type LeadCustomer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Lead struct {
	ID           int64         `json:"id" db:"id"`
	Name         string        `json:"name" db:"name"`
	Email        *string       `json:"email" db:"email"`
	Phone        *string       `json:"phone" db:"phone"`
	Status       string        `json:"status" db:"status"`
	UserID       int64         `json:"-" db:"user_id"`
	CustomerID   *int64        `json:"customerId" db:"customer_id"`
	Customer     *LeadCustomer `json:"customer"`
	FollowUpDate *time.Time    `json:"followUpDate" db:"follow_up_date"`
	Notes        *string       `json:"notes" db:"notes"`
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" db:"updated_at"`
}

// NewLead carries the validated fields for a lead create. Status must
// already be normalized.
type NewLead struct {
	Name         string
	Email        *string
	Phone        *string
	Status       string
	CustomerID   *int64
	FollowUpDate *time.Time
	Notes        *string
}

// UpdateLead carries the fields for a lead update. A nil Status keeps the
// stored value; every other nil field clears the stored value, including
// CustomerID, which detaches the customer.
type UpdateLead struct {
	Name         string
	Email        *string
	Phone        *string
	Status       *string
	CustomerID   *int64
	FollowUpDate *time.Time
	Notes        *string
}

type LeadService interface {
	List(ctx context.Context, userID int64) ([]Lead, error)
	Count(ctx context.Context, userID int64) (int, error)
	Create(ctx context.Context, userID int64, nl NewLead) (Lead, error)
	Update(ctx context.Context, userID, id int64, ul UpdateLead) (Lead, error)
	Delete(ctx context.Context, userID, id int64) error
}
