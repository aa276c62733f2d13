package borrowing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Zedts/backend-digital-library/model"
	bookrepo "github.com/Zedts/backend-digital-library/repository/book"
	brepo "github.com/Zedts/backend-digital-library/repository/borrowing"
)

// ListFilter = repository shape
type ListFilter = brepo.ListFilter

// Policy holds the lending rules and the backing-store call discipline.
type Policy struct {
	LoanPeriodDays       int
	DefaultExtensionDays int
	OpTimeout            time.Duration
	RetryAttempts        int
}

type Repo interface {
	Insert(ctx context.Context, b *model.Borrowing) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Borrowing, error)
	List(ctx context.Context, f ListFilter) ([]model.Borrowing, int64, error)

	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error)
	MarkBorrowed(ctx context.Context, tx *sql.Tx, id, approvedBy int64, now time.Time) error
	ExtendDueDate(ctx context.Context, tx *sql.Tx, id int64, newDue time.Time, approvedBy int64, notes *string, now time.Time) error
	MarkWaitingReturn(ctx context.Context, tx *sql.Tx, id int64, prior model.BorrowStatus, notes *string, now time.Time) error
	MarkReturned(ctx context.Context, tx *sql.Tx, id int64, returnDate time.Time, approvedBy int64, notes *string, now time.Time) error
	RestoreStatus(ctx context.Context, tx *sql.Tx, id int64, restored model.BorrowStatus, approvedBy int64, notes *string, now time.Time) error
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
	InsertReturnRecord(ctx context.Context, tx *sql.Tx, borrowingID int64, fine float64, returnDate time.Time) error
}

// Inventory is the stock side of the book repository. The lifecycle engine is
// the only code that mutates stock, and only inside its transactions.
type Inventory interface {
	GetByID(ctx context.Context, id int64) (*model.Book, error)
	GetStockForUpdate(ctx context.Context, tx *sql.Tx, bookID int64) (int64, error)
	AdjustStock(ctx context.Context, tx *sql.Tx, bookID int64, delta int64) error
}

type Service interface {
	// Request creates a Pending borrowing. No stock is reserved yet.
	Request(ctx context.Context, userID, bookID, quantity int64, notes *string) (*model.Borrowing, error)

	// Approve moves Pending -> Borrowed and decrements stock in one transaction.
	Approve(ctx context.Context, id, approverID int64) (*model.Borrowing, error)

	// Extend pushes the due date forward from the current due date.
	Extend(ctx context.Context, id int64, days int, approverID int64, notes *string) (*model.Borrowing, error)

	// RequestReturn moves an active loan to Waiting Return. No stock change.
	RequestReturn(ctx context.Context, id int64, notes *string) (*model.Borrowing, error)

	// ApproveReturn moves Waiting Return -> Returned and restores stock in one
	// transaction, recording the fine when nonzero.
	ApproveReturn(ctx context.Context, id, approverID int64, fine float64, notes *string) (*model.Borrowing, error)

	// RejectReturn restores the active status the loan held before the
	// return was requested.
	RejectReturn(ctx context.Context, id, approverID int64, notes *string) (*model.Borrowing, error)

	// Delete hard-deletes a Pending request (admin rejection).
	Delete(ctx context.Context, id int64) error

	List(ctx context.Context, f ListFilter) ([]model.Borrowing, *model.Pagination, error)
	Get(ctx context.Context, id int64) (*model.Borrowing, error)
}

// ----- Service implementation -----

type service struct {
	db  *sql.DB
	r   Repo
	inv Inventory
	pol Policy
	log *slog.Logger
	now func() time.Time
}

func New(db *sql.DB, r Repo, inv Inventory, pol Policy, log *slog.Logger) Service {
	if pol.LoanPeriodDays <= 0 {
		pol.LoanPeriodDays = 14
	}
	if pol.DefaultExtensionDays <= 0 {
		pol.DefaultExtensionDays = 7
	}
	if pol.OpTimeout <= 0 {
		pol.OpTimeout = 5 * time.Second
	}
	return &service{db: db, r: r, inv: inv, pol: pol, log: log, now: time.Now}
}

func (s *service) today() time.Time {
	n := s.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *service) Request(ctx context.Context, userID, bookID, quantity int64, notes *string) (*model.Borrowing, error) {
	if quantity == 0 {
		// omitted quantity means a single copy
		quantity = 1
	}
	if quantity < 1 {
		return nil, makeErrf(ErrInvalidQuantity, "quantity must be at least 1")
	}

	opCtx, cancel := context.WithTimeout(ctx, s.pol.OpTimeout)
	defer cancel()

	book, err := s.inv.GetByID(opCtx, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if book.Stock <= 0 {
		return nil, makeErrf(ErrUnavailable, "book is not available for borrowing")
	}
	if quantity > book.Stock {
		return nil, makeErrf(ErrInsufficientStock, "only %d copies available", book.Stock)
	}

	today := s.today()
	b := &model.Borrowing{
		UserID:     userID,
		BookID:     bookID,
		Quantity:   quantity,
		BorrowDate: today,
		DueDate:    today.AddDate(0, 0, s.pol.LoanPeriodDays),
		Status:     model.StatusPending,
		Notes:      notes,
	}
	id, err := s.r.Insert(opCtx, b)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) Approve(ctx context.Context, id, approverID int64) (*model.Borrowing, error) {
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		l, err := s.lockLoan(ctx, tx, id)
		if err != nil {
			return err
		}
		if l.Status != model.StatusPending {
			return makeErrf(ErrInvalidTransition, "borrowing is %s, only Pending requests can be approved", l.Status)
		}

		// Re-check availability at approval time; the request-time check only
		// closes the obvious cases, this one closes the race.
		stock, err := s.inv.GetStockForUpdate(ctx, tx, l.BookID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return makeErr(ErrNotFound)
			}
			return err
		}
		if stock < l.Quantity {
			return makeErrf(ErrInsufficientStock, "only %d copies available", stock)
		}

		if err := s.adjustStock(ctx, tx, l.BookID, -l.Quantity); err != nil {
			return err
		}
		return s.r.MarkBorrowed(ctx, tx, id, approverID, s.now())
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) Extend(ctx context.Context, id int64, days int, approverID int64, notes *string) (*model.Borrowing, error) {
	if days <= 0 {
		days = s.pol.DefaultExtensionDays
	}
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		l, err := s.lockLoan(ctx, tx, id)
		if err != nil {
			return err
		}
		if !l.Status.Active() {
			return makeErr(ErrNotFound)
		}
		// extension counts from the current due date, not from today
		newDue := l.DueDate.AddDate(0, 0, days)
		if notes == nil {
			n := fmt.Sprintf("Extended by %d days", days)
			notes = &n
		}
		return s.r.ExtendDueDate(ctx, tx, id, newDue, approverID, notes, s.now())
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) RequestReturn(ctx context.Context, id int64, notes *string) (*model.Borrowing, error) {
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		l, err := s.lockLoan(ctx, tx, id)
		if err != nil {
			return err
		}
		if !l.Status.Active() {
			return makeErrf(ErrInvalidTransition, "borrowing is %s, only active loans can request a return", l.Status)
		}
		return s.r.MarkWaitingReturn(ctx, tx, id, l.Status, notes, s.now())
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) ApproveReturn(ctx context.Context, id, approverID int64, fine float64, notes *string) (*model.Borrowing, error) {
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		l, err := s.lockLoan(ctx, tx, id)
		if err != nil {
			return err
		}
		if l.Status != model.StatusWaitingReturn {
			return makeErrf(ErrInvalidTransition, "borrowing is %s, expected Waiting Return", l.Status)
		}

		now := s.now()
		if err := s.r.MarkReturned(ctx, tx, id, s.today(), approverID, notes, now); err != nil {
			return err
		}
		if err := s.adjustStock(ctx, tx, l.BookID, l.Quantity); err != nil {
			return err
		}
		if fine > 0 {
			return s.r.InsertReturnRecord(ctx, tx, id, fine, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) RejectReturn(ctx context.Context, id, approverID int64, notes *string) (*model.Borrowing, error) {
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		l, err := s.lockLoan(ctx, tx, id)
		if err != nil {
			return err
		}
		if l.Status != model.StatusWaitingReturn {
			return makeErrf(ErrInvalidTransition, "borrowing is %s, expected Waiting Return", l.Status)
		}
		restored := model.StatusBorrowed
		if l.PriorStatus != nil && l.PriorStatus.Active() {
			restored = *l.PriorStatus
		}
		return s.r.RestoreStatus(ctx, tx, id, restored, approverID, notes, s.now())
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		l, err := s.lockLoan(ctx, tx, id)
		if err != nil {
			return err
		}
		if l.Status != model.StatusPending {
			return makeErrf(ErrInvalidTransition, "borrowing is %s, only Pending requests can be deleted", l.Status)
		}
		return s.r.Delete(ctx, tx, id)
	})
}

func (s *service) List(ctx context.Context, f ListFilter) ([]model.Borrowing, *model.Pagination, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	now := s.now()
	f.Now = now

	opCtx, cancel := context.WithTimeout(ctx, s.pol.OpTimeout)
	defer cancel()

	rows, total, err := s.r.List(opCtx, f)
	if err != nil {
		return nil, nil, err
	}
	for i := range rows {
		rows[i].Decorate(now)
	}
	return rows, model.NewPagination(f.Page, f.Limit, total), nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Borrowing, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.pol.OpTimeout)
	defer cancel()

	b, err := s.r.GetByID(opCtx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	b.Decorate(s.now())
	return b, nil
}

// ----- helpers -----

func (s *service) lockLoan(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
	l, err := s.r.GetForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return l, nil
}

// adjustStock maps the inventory guard to the fatal consistency alarm. The
// guard only trips after the in-transaction availability check passed, so a
// trip means the bookkeeping itself is broken.
func (s *service) adjustStock(ctx context.Context, tx *sql.Tx, bookID, delta int64) error {
	if err := s.inv.AdjustStock(ctx, tx, bookID, delta); err != nil {
		if errors.Is(err, bookrepo.ErrStockConflict) {
			s.log.Error("stock invariant violation",
				"book_id", bookID,
				"delta", delta,
			)
			return makeErrf(ErrInvariantViolation, "stock adjustment refused for book %d", bookID)
		}
		return err
	}
	return nil
}

// inTx runs fn inside a bounded transaction, retrying transient failures a
// bounded number of times. Each attempt is a whole transaction, so a retried
// attempt never observes partial writes from a failed one.
func (s *service) inTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	var err error
	for attempt := 0; attempt <= s.pol.RetryAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if err == nil || !isTransient(err) {
			return err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return makeErrf(ErrTransient, "backing store unavailable: %v", err)
}

func (s *service) runTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) (err error) {
	opCtx, cancel := context.WithTimeout(ctx, s.pol.OpTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(opCtx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(opCtx, tx); err != nil {
		return err
	}
	return tx.Commit()
}
