package crm

import (
	"context"
	"errors"
	"time"
)

var ErrCustomerNotFound = errors.New("customer not found")

// CustomerLead is the lead projection nested under a listed customer.
type CustomerLead struct {
	ID           int64      `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Status       string     `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	FollowUpDate *time.Time `json:"followUpDate" db:"follow_up_date"`
	Notes        *string    `json:"notes" db:"notes"`
}

type Customer struct {
	ID        int64          `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	Email     *string        `json:"email" db:"email"`
	Phone     *string        `json:"phone" db:"phone"`
	Company   *string        `json:"company" db:"company"`
	UserID    int64          `json:"-" db:"user_id"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
	Leads     []CustomerLead `json:"leads"`
}

// CustomerInput carries the mutable customer fields. Update is a full
// replacement: nil optional fields are stored as NULL, not left unchanged.
type CustomerInput struct {
	Name    string
	Email   *string
	Phone   *string
	Company *string
}

type CustomerService interface {
	List(ctx context.Context, userID int64) ([]Customer, error)
	Create(ctx context.Context, userID int64, in CustomerInput) (Customer, error)
	Update(ctx context.Context, userID, id int64, in CustomerInput) (Customer, error)
	Delete(ctx context.Context, userID, id int64) error
}
