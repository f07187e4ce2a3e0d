package crm

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
}

type UserService interface {
	Create(ctx context.Context, nu NewUser) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}
