package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	crm "github.com/pgalanos/crm-api"
)

type UserService struct {
	db *sqlx.DB
}

func NewUserService(db *sqlx.DB) crm.UserService {
	return &UserService{
		db: db,
	}
}

func (us UserService) Create(ctx context.Context, nu crm.NewUser) (crm.User, error) {
	const q = `
	INSERT INTO users (
		name, email, password_hash
	) VALUES (
		$1, $2, $3
	)
	RETURNING id, created_at`

	user := crm.User{
		Name:         nu.Name,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
	}

	row := us.db.QueryRowContext(ctx, q, nu.Name, nu.Email, nu.PasswordHash)
	if err := row.Scan(&user.ID, &user.CreatedAt); err != nil {
		if pqerr, ok := err.(*pq.Error); ok && pqerr.Code == uniqueViolation {
			return crm.User{}, crm.ErrEmailTaken
		}
		return crm.User{}, err
	}

	return user, nil
}

func (us UserService) GetByEmail(ctx context.Context, email string) (crm.User, error) {
	const q = `
	SELECT
		id,
		name,
		email,
		password_hash,
		created_at
	FROM users
	WHERE email = $1`

	var user crm.User
	if err := us.db.GetContext(ctx, &user, q, email); err != nil {
		if err == sql.ErrNoRows {
			return crm.User{}, crm.ErrUserNotFound
		}
		return crm.User{}, err
	}

	return user, nil
}
