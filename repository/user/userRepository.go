package userrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/Zedts/backend-digital-library/model"
)

type Repo interface {
	ByEmail(ctx context.Context, email string) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, tx *sql.Tx, u *model.User) error
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	err := r.db.QueryRowContext(ctx, `
        SELECT users_id, name, email, password_hash, role, created_date
        FROM users
        WHERE lower(email) = lower($1)`,
		email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedDate)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`,
		email,
	).Scan(&exists)
	return exists, err
}

// Create runs inside the registration-approval transaction.
func (r *repo) Create(ctx context.Context, tx *sql.Tx, u *model.User) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1,$2,$3,$4)
		RETURNING users_id, created_date`,
		u.Name, u.Email, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedDate)
}

func (r *repo) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	const q = `
SELECT COUNT(*)
FROM users
WHERE created_date >= $1 AND role = 'user'`
	var total int64
	err := r.db.QueryRowContext(ctx, q, since).Scan(&total)
	return total, err
}
