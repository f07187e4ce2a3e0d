package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	crm "github.com/pgalanos/crm-api"
)

type LeadService struct {
	db *sqlx.DB
}

func NewLeadService(db *sqlx.DB) crm.LeadService {
	return &LeadService{
		db: db,
	}
}

// customerOwnedBy is the ownership guard for a customer reference supplied on
// a lead write. A customer that exists under another user fails exactly like
// one that does not exist.
func (ls LeadService) customerOwnedBy(ctx context.Context, customerID, userID int64) error {
	const q = `
	SELECT id
	FROM customers
	WHERE id = $1 AND user_id = $2`

	var id int64
	if err := ls.db.QueryRowContext(ctx, q, customerID, userID).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return crm.ErrCustomerNotFound
		}
		return err
	}
	return nil
}

// leadRow adds the joined customer name to a scanned lead.
type leadRow struct {
	crm.Lead
	CustomerName *string `db:"customer_name"`
}

func (r leadRow) lead() crm.Lead {
	lead := r.Lead
	if lead.CustomerID != nil && r.CustomerName != nil {
		lead.Customer = &crm.LeadCustomer{
			ID:   *lead.CustomerID,
			Name: *r.CustomerName,
		}
	}
	return lead
}

func (ls LeadService) List(ctx context.Context, userID int64) ([]crm.Lead, error) {
	const q = `
	SELECT
		l.id,
		l.name,
		l.email,
		l.phone,
		l.status,
		l.user_id,
		l.customer_id,
		l.follow_up_date,
		l.notes,
		l.created_at,
		l.updated_at,
		c.name AS customer_name
	FROM leads l
	LEFT JOIN customers c ON c.id = l.customer_id
	WHERE l.user_id = $1
	ORDER BY l.id`

	rows := []leadRow{}
	if err := ls.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, err
	}

	leads := make([]crm.Lead, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, row.lead())
	}

	return leads, nil
}

func (ls LeadService) Count(ctx context.Context, userID int64) (int, error) {
	const q = `
	SELECT count(*)
	FROM leads
	WHERE user_id = $1`

	var count int
	if err := ls.db.QueryRowContext(ctx, q, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (ls LeadService) Create(ctx context.Context, userID int64, nl crm.NewLead) (crm.Lead, error) {
	if nl.CustomerID != nil {
		if err := ls.customerOwnedBy(ctx, *nl.CustomerID, userID); err != nil {
			return crm.Lead{}, err
		}
	}

	const q = `
	INSERT INTO leads (
		name, email, phone, status, user_id, customer_id, follow_up_date, notes
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8
	)
	RETURNING id, created_at, updated_at`

	lead := crm.Lead{
		Name:         nl.Name,
		Email:        nl.Email,
		Phone:        nl.Phone,
		Status:       nl.Status,
		UserID:       userID,
		CustomerID:   nl.CustomerID,
		FollowUpDate: nl.FollowUpDate,
		Notes:        nl.Notes,
	}

	row := ls.db.QueryRowContext(ctx, q,
		nl.Name,
		nl.Email,
		nl.Phone,
		nl.Status,
		userID,
		nl.CustomerID,
		nl.FollowUpDate,
		nl.Notes,
	)
	if err := row.Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt); err != nil {
		return crm.Lead{}, err
	}

	return lead, nil
}

func (ls LeadService) Update(ctx context.Context, userID, id int64, ul crm.UpdateLead) (crm.Lead, error) {
	if ul.CustomerID != nil {
		if err := ls.customerOwnedBy(ctx, *ul.CustomerID, userID); err != nil {
			return crm.Lead{}, err
		}
	}

	// A nil status keeps the stored value; a nil customer_id or
	// follow_up_date clears it. Ownership is enforced by the WHERE clause
	// rather than a separate existence check.
	const q = `
	UPDATE leads
	SET
		name = $1,
		email = $2,
		phone = $3,
		status = COALESCE($4, status),
		customer_id = $5,
		follow_up_date = $6,
		notes = $7,
		updated_at = now()
	WHERE id = $8 AND user_id = $9
	RETURNING id, name, email, phone, status, user_id, customer_id, follow_up_date, notes, created_at, updated_at`

	var lead crm.Lead

	row := ls.db.QueryRowContext(ctx, q,
		ul.Name,
		ul.Email,
		ul.Phone,
		ul.Status,
		ul.CustomerID,
		ul.FollowUpDate,
		ul.Notes,
		id,
		userID,
	)
	err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Status,
		&lead.UserID,
		&lead.CustomerID,
		&lead.FollowUpDate,
		&lead.Notes,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return crm.Lead{}, crm.ErrLeadNotFound
		}
		return crm.Lead{}, err
	}

	return lead, nil
}

func (ls LeadService) Delete(ctx context.Context, userID, id int64) error {
	const q = `
	DELETE FROM leads
	WHERE id = $1 AND user_id = $2`

	res, err := ls.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return crm.ErrLeadNotFound
	}

	return nil
}
