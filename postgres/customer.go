package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	crm "github.com/pgalanos/crm-api"
)

type CustomerService struct {
	db *sqlx.DB
}

func NewCustomerService(db *sqlx.DB) crm.CustomerService {
	return &CustomerService{
		db: db,
	}
}

// customerLeadRow carries the customer linkage needed to group leads under
// their customer; the linkage itself does not cross the wire.
type customerLeadRow struct {
	crm.CustomerLead
	CustomerID int64 `db:"customer_id"`
}

func (cs CustomerService) List(ctx context.Context, userID int64) ([]crm.Customer, error) {
	const q = `
	SELECT
		id,
		name,
		email,
		phone,
		company,
		user_id,
		created_at
	FROM customers
	WHERE user_id = $1
	ORDER BY id`

	customers := []crm.Customer{}
	if err := cs.db.SelectContext(ctx, &customers, q, userID); err != nil {
		return nil, err
	}

	const leadsQ = `
	SELECT
		id,
		name,
		status,
		created_at,
		follow_up_date,
		notes,
		customer_id
	FROM leads
	WHERE user_id = $1 AND customer_id IS NOT NULL
	ORDER BY id`

	rows := []customerLeadRow{}
	if err := cs.db.SelectContext(ctx, &rows, leadsQ, userID); err != nil {
		return nil, err
	}

	byCustomer := make(map[int64][]crm.CustomerLead)
	for _, row := range rows {
		byCustomer[row.CustomerID] = append(byCustomer[row.CustomerID], row.CustomerLead)
	}

	for i := range customers {
		leads, ok := byCustomer[customers[i].ID]
		if !ok {
			leads = []crm.CustomerLead{}
		}
		customers[i].Leads = leads
	}

	return customers, nil
}

func (cs CustomerService) Create(ctx context.Context, userID int64, in crm.CustomerInput) (crm.Customer, error) {
	const q = `
	INSERT INTO customers (
		name, email, phone, company, user_id
	) VALUES (
		$1, $2, $3, $4, $5
	)
	RETURNING id, created_at`

	customer := crm.Customer{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Company: in.Company,
		UserID:  userID,
		Leads:   []crm.CustomerLead{},
	}

	row := cs.db.QueryRowContext(ctx, q, in.Name, in.Email, in.Phone, in.Company, userID)
	if err := row.Scan(&customer.ID, &customer.CreatedAt); err != nil {
		return crm.Customer{}, err
	}

	return customer, nil
}

func (cs CustomerService) Update(ctx context.Context, userID, id int64, in crm.CustomerInput) (crm.Customer, error) {
	// Full replacement of the mutable fields, scoped to (id, owner). Zero
	// matched rows means not found and not owned look the same.
	const q = `
	UPDATE customers
	SET name = $1, email = $2, phone = $3, company = $4
	WHERE id = $5 AND user_id = $6
	RETURNING id, name, email, phone, company, user_id, created_at`

	customer := crm.Customer{Leads: []crm.CustomerLead{}}

	row := cs.db.QueryRowContext(ctx, q, in.Name, in.Email, in.Phone, in.Company, id, userID)
	err := row.Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.Company,
		&customer.UserID,
		&customer.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return crm.Customer{}, crm.ErrCustomerNotFound
		}
		return crm.Customer{}, err
	}

	return customer, nil
}

func (cs CustomerService) Delete(ctx context.Context, userID, id int64) error {
	tx, err := cs.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	// Leads survive a customer delete: they are detached, not removed. The
	// detach runs first so a not-found rollback undoes it.
	const detachQ = `
	UPDATE leads
	SET customer_id = NULL
	WHERE customer_id = $1 AND user_id = $2`

	if _, err := tx.ExecContext(ctx, detachQ, id, userID); err != nil {
		tx.Rollback()
		return err
	}

	const deleteQ = `
	DELETE FROM customers
	WHERE id = $1 AND user_id = $2`

	res, err := tx.ExecContext(ctx, deleteQ, id, userID)
	if err != nil {
		tx.Rollback()
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if affected == 0 {
		tx.Rollback()
		return crm.ErrCustomerNotFound
	}

	return tx.Commit()
}
