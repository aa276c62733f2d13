package registrationsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Zedts/backend-digital-library/model"
	"github.com/Zedts/backend-digital-library/util/hash"
)

var (
	ErrEmailTaken = errors.New("email already registered")
	ErrNotFound   = errors.New("registration not found")
	ErrNotPending = errors.New("registration already decided")
)

type Regs interface {
	Insert(ctx context.Context, reg *model.Registration) (int64, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListPending(ctx context.Context) ([]model.Registration, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Registration, error)
	SetStatus(ctx context.Context, tx *sql.Tx, id int64, status model.RegistrationStatus, now time.Time) error
}

type Users interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, tx *sql.Tx, u *model.User) error
}

type Service interface {
	Submit(ctx context.Context, req model.RegisterReq) (int64, error)
	ListPending(ctx context.Context) ([]model.Registration, error)
	Approve(ctx context.Context, id int64) error
	Reject(ctx context.Context, id int64) error
}

type service struct {
	db *sql.DB
	rr Regs
	ur Users
}

func New(db *sql.DB, rr Regs, ur Users) Service { return &service{db: db, rr: rr, ur: ur} }

// Submit queues a signup for admin review. The email must be unused by
// existing accounts and by earlier pending registrations.
func (s *service) Submit(ctx context.Context, req model.RegisterReq) (int64, error) {
	taken, err := s.ur.EmailExists(ctx, req.Email)
	if err != nil {
		return 0, err
	}
	if !taken {
		taken, err = s.rr.EmailExists(ctx, req.Email)
		if err != nil {
			return 0, err
		}
	}
	if taken {
		return 0, ErrEmailTaken
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return 0, err
	}
	id, err := s.rr.Insert(ctx, &model.Registration{
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  hashed,
		RequestedRole: "user",
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrEmailTaken
		}
		return 0, err
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (s *service) ListPending(ctx context.Context) ([]model.Registration, error) {
	return s.rr.ListPending(ctx)
}

// Approve creates the account and marks the registration in one transaction,
// so a crash between the two cannot leave an approved registration without a
// matching user.
func (s *service) Approve(ctx context.Context, id int64) error {
	return s.decide(ctx, id, func(ctx context.Context, tx *sql.Tx, reg *model.Registration) error {
		u := &model.User{
			Name:         reg.Name,
			Email:        reg.Email,
			PasswordHash: reg.PasswordHash,
			Role:         reg.RequestedRole,
		}
		if err := s.ur.Create(ctx, tx, u); err != nil {
			if isUniqueViolation(err) {
				return ErrEmailTaken
			}
			return err
		}
		return s.rr.SetStatus(ctx, tx, id, model.RegistrationApproved, time.Now())
	})
}

func (s *service) Reject(ctx context.Context, id int64) error {
	return s.decide(ctx, id, func(ctx context.Context, tx *sql.Tx, reg *model.Registration) error {
		return s.rr.SetStatus(ctx, tx, id, model.RegistrationRejected, time.Now())
	})
}

func (s *service) decide(ctx context.Context, id int64, apply func(context.Context, *sql.Tx, *model.Registration) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	reg, err := s.rr.GetForUpdate(ctx, tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if reg.Status != model.RegistrationPending {
		return ErrNotPending
	}
	if err = apply(ctx, tx, reg); err != nil {
		return err
	}
	return tx.Commit()
}
