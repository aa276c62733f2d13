package registrationrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/Zedts/backend-digital-library/model"
)

type Repo interface {
	Insert(ctx context.Context, reg *model.Registration) (int64, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListPending(ctx context.Context) ([]model.Registration, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Registration, error)
	SetStatus(ctx context.Context, tx *sql.Tx, id int64, status model.RegistrationStatus, now time.Time) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, reg *model.Registration) (int64, error) {
	const q = `
INSERT INTO registrations (name, email, password_hash, requested_role, status)
VALUES ($1,$2,$3,$4,'Pending')
RETURNING register_id`
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		reg.Name, reg.Email, reg.PasswordHash, reg.RequestedRole,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE lower(email) = lower($1))`,
		email,
	).Scan(&exists)
	return exists, err
}

func (r *repo) ListPending(ctx context.Context) ([]model.Registration, error) {
	const q = `
SELECT register_id, name, email, requested_role, status, register_date, updated_date
FROM registrations
WHERE status = 'Pending'
ORDER BY register_date DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(
			&reg.ID, &reg.Name, &reg.Email, &reg.RequestedRole,
			&reg.Status, &reg.RegisterDate, &reg.UpdatedDate,
		); err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Registration, error) {
	const q = `
SELECT register_id, name, email, password_hash, requested_role, status, register_date, updated_date
FROM registrations
WHERE register_id = $1
FOR UPDATE`
	var reg model.Registration
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&reg.ID, &reg.Name, &reg.Email, &reg.PasswordHash, &reg.RequestedRole,
		&reg.Status, &reg.RegisterDate, &reg.UpdatedDate,
	)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *repo) SetStatus(ctx context.Context, tx *sql.Tx, id int64, status model.RegistrationStatus, now time.Time) error {
	const q = `
UPDATE registrations
SET status = $2, updated_date = $3
WHERE register_id = $1`
	_, err := tx.ExecContext(ctx, q, id, status, now)
	return err
}
