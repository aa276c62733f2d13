package borrowingrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/Zedts/backend-digital-library/model"
)

var pg = goqu.Dialect("postgres")

// LoanRow is the row-locked snapshot the lifecycle engine works on.
type LoanRow struct {
	ID          int64
	UserID      int64
	BookID      int64
	Quantity    int64
	Status      model.BorrowStatus
	PriorStatus *model.BorrowStatus
	DueDate     time.Time
}

type ListFilter struct {
	Page   int
	Limit  int
	Status string // stored status or the "overdue" pseudo filter
	Search string
	Now    time.Time
}

// StatusCounts is the stats rollup for the borrowings table.
type StatusCounts struct {
	Pending  int64 `json:"pending_count"`
	Borrowed int64 `json:"borrowed_count"`
	Extended int64 `json:"extended_count"`
	Returned int64 `json:"returned_count"`
	Overdue  int64 `json:"overdue_count"`
	Total    int64 `json:"total_count"`
}

// TrendRow is one day of borrowing activity.
type TrendRow struct {
	Day      time.Time
	Requests int64
	Borrows  int64
	Returns  int64
}

// ActivityRow feeds the recent-activity dashboard list.
type ActivityRow struct {
	BorrowingID int64
	UserName    string
	BookTitle   string
	Status      model.BorrowStatus
	BorrowDate  time.Time
	DueDate     time.Time
	ReturnDate  *time.Time
	Fine        *float64
}

// HistoryRow is one entry of a user's borrowing history.
type HistoryRow struct {
	BorrowingID int64              `json:"borrowing_id"`
	BookTitle   string             `json:"title"`
	BookAuthor  string             `json:"author"`
	BorrowDate  time.Time          `json:"borrow_date"`
	DueDate     time.Time          `json:"due_date"`
	Status      model.BorrowStatus `json:"status"`
	ReturnDate  *time.Time         `json:"return_date,omitempty"`
	Fine        *float64           `json:"fine,omitempty"`
}

type Repo interface {
	Insert(ctx context.Context, b *model.Borrowing) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Borrowing, error)
	List(ctx context.Context, f ListFilter) ([]model.Borrowing, int64, error)

	// lifecycle transitions, always inside the engine's transaction
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*LoanRow, error)
	MarkBorrowed(ctx context.Context, tx *sql.Tx, id, approvedBy int64, now time.Time) error
	ExtendDueDate(ctx context.Context, tx *sql.Tx, id int64, newDue time.Time, approvedBy int64, notes *string, now time.Time) error
	MarkWaitingReturn(ctx context.Context, tx *sql.Tx, id int64, prior model.BorrowStatus, notes *string, now time.Time) error
	MarkReturned(ctx context.Context, tx *sql.Tx, id int64, returnDate time.Time, approvedBy int64, notes *string, now time.Time) error
	RestoreStatus(ctx context.Context, tx *sql.Tx, id int64, restored model.BorrowStatus, approvedBy int64, notes *string, now time.Time) error
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
	InsertReturnRecord(ctx context.Context, tx *sql.Tx, borrowingID int64, fine float64, returnDate time.Time) error

	// aggregator reads
	Stats(ctx context.Context, now time.Time) (*StatusCounts, error)
	CountByStatus(ctx context.Context, status model.BorrowStatus) (int64, error)
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
	CountDueToday(ctx context.Context, now time.Time) (int64, error)
	CountActiveBefore(ctx context.Context, now time.Time) (int64, error)
	CountDueTodayActive(ctx context.Context, now time.Time) (int64, error)
	ActivityByDay(ctx context.Context, since time.Time) ([]TrendRow, error)
	RecentActivities(ctx context.Context, limit int) ([]ActivityRow, error)
	ListUserActive(ctx context.Context, userID int64) ([]model.Borrowing, error)
	ListUserPending(ctx context.Context, userID int64) ([]model.Borrowing, error)
	ListUserHistory(ctx context.Context, userID int64) ([]HistoryRow, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, b *model.Borrowing) (int64, error) {
	const q = `
INSERT INTO borrowings (users_id, book_id, quantity, borrow_date, due_date, status, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING borrowing_id`
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		b.UserID, b.BookID, b.Quantity, b.BorrowDate, b.DueDate, b.Status, b.Notes,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

const detailColumns = `
br.borrowing_id, br.users_id, br.book_id, br.quantity, br.borrow_date, br.due_date,
br.return_date, br.status, br.prior_status, br.notes, br.approved_by, br.approved_date,
br.created_at, br.updated_at,
u.name, u.email, b.title, b.author, ap.name`

func scanDetail(row interface{ Scan(...any) error }, b *model.Borrowing) error {
	return row.Scan(
		&b.ID, &b.UserID, &b.BookID, &b.Quantity, &b.BorrowDate, &b.DueDate,
		&b.ReturnDate, &b.Status, &b.PriorStatus, &b.Notes, &b.ApprovedBy, &b.ApprovedDate,
		&b.CreatedAt, &b.UpdatedAt,
		&b.UserName, &b.UserEmail, &b.BookTitle, &b.BookAuthor, &b.ApprovedByName,
	)
}

func (r *repo) GetByID(ctx context.Context, id int64) (*model.Borrowing, error) {
	q := `
SELECT ` + detailColumns + `
FROM borrowings br
JOIN users u ON br.users_id = u.users_id
JOIN books b ON br.book_id = b.book_id
LEFT JOIN users ap ON br.approved_by = ap.users_id
WHERE br.borrowing_id = $1`
	var b model.Borrowing
	if err := scanDetail(r.db.QueryRowContext(ctx, q, id), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) List(ctx context.Context, f ListFilter) ([]model.Borrowing, int64, error) {
	base := pg.From(goqu.T("borrowings").As("br")).
		Join(goqu.T("users").As("u"),
			goqu.On(goqu.I("br.users_id").Eq(goqu.I("u.users_id")))).
		Join(goqu.T("books").As("b"),
			goqu.On(goqu.I("br.book_id").Eq(goqu.I("b.book_id")))).
		LeftJoin(goqu.T("users").As("ap"),
			goqu.On(goqu.I("br.approved_by").Eq(goqu.I("ap.users_id"))))

	if f.Status != "" {
		if f.Status == "overdue" {
			base = base.Where(
				goqu.I("br.status").In(string(model.StatusBorrowed), string(model.StatusExtended)),
				goqu.I("br.due_date").Lt(f.Now),
			)
		} else {
			base = base.Where(goqu.I("br.status").Eq(f.Status))
		}
	}
	if f.Search != "" {
		p := "%" + f.Search + "%"
		base = base.Where(goqu.Or(
			goqu.I("u.name").ILike(p),
			goqu.I("b.title").ILike(p),
			goqu.I("u.email").ILike(p),
		))
	}

	listQ, listArgs, err := base.
		Select(
			goqu.I("br.borrowing_id"), goqu.I("br.users_id"), goqu.I("br.book_id"),
			goqu.I("br.quantity"), goqu.I("br.borrow_date"), goqu.I("br.due_date"),
			goqu.I("br.return_date"), goqu.I("br.status"), goqu.I("br.prior_status"),
			goqu.I("br.notes"), goqu.I("br.approved_by"), goqu.I("br.approved_date"),
			goqu.I("br.created_at"), goqu.I("br.updated_at"),
			goqu.I("u.name"), goqu.I("u.email"), goqu.I("b.title"), goqu.I("b.author"),
			goqu.I("ap.name"),
		).
		Order(goqu.I("br.created_at").Desc()).
		Limit(uint(f.Limit)).
		Offset(uint((f.Page - 1) * f.Limit)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}

	countQ, countArgs, err := base.Select(goqu.COUNT("*")).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, listQ, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Borrowing
	for rows.Next() {
		var b model.Borrowing
		if err := scanDetail(rows, &b); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*LoanRow, error) {
	const q = `
SELECT borrowing_id, users_id, book_id, quantity, status, prior_status, due_date
FROM borrowings
WHERE borrowing_id = $1
FOR UPDATE`
	var l LoanRow
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&l.ID, &l.UserID, &l.BookID, &l.Quantity, &l.Status, &l.PriorStatus, &l.DueDate,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repo) MarkBorrowed(ctx context.Context, tx *sql.Tx, id, approvedBy int64, now time.Time) error {
	const q = `
UPDATE borrowings
SET status = 'Borrowed',
    approved_by = $2,
    approved_date = $3,
    updated_at = $3
WHERE borrowing_id = $1`
	_, err := tx.ExecContext(ctx, q, id, approvedBy, now)
	return err
}

func (r *repo) ExtendDueDate(ctx context.Context, tx *sql.Tx, id int64, newDue time.Time, approvedBy int64, notes *string, now time.Time) error {
	const q = `
UPDATE borrowings
SET status = 'Extended',
    due_date = $2,
    approved_by = $3,
    approved_date = $4,
    notes = COALESCE($5, notes),
    updated_at = $4
WHERE borrowing_id = $1`
	_, err := tx.ExecContext(ctx, q, id, newDue, approvedBy, now, notes)
	return err
}

func (r *repo) MarkWaitingReturn(ctx context.Context, tx *sql.Tx, id int64, prior model.BorrowStatus, notes *string, now time.Time) error {
	const q = `
UPDATE borrowings
SET status = 'Waiting Return',
    prior_status = $2,
    notes = COALESCE($3, notes),
    updated_at = $4
WHERE borrowing_id = $1`
	_, err := tx.ExecContext(ctx, q, id, prior, notes, now)
	return err
}

func (r *repo) MarkReturned(ctx context.Context, tx *sql.Tx, id int64, returnDate time.Time, approvedBy int64, notes *string, now time.Time) error {
	const q = `
UPDATE borrowings
SET status = 'Returned',
    return_date = $2,
    prior_status = NULL,
    approved_by = $3,
    approved_date = $4,
    notes = COALESCE($5, notes),
    updated_at = $4
WHERE borrowing_id = $1`
	_, err := tx.ExecContext(ctx, q, id, returnDate, approvedBy, now, notes)
	return err
}

func (r *repo) RestoreStatus(ctx context.Context, tx *sql.Tx, id int64, restored model.BorrowStatus, approvedBy int64, notes *string, now time.Time) error {
	const q = `
UPDATE borrowings
SET status = $2,
    prior_status = NULL,
    approved_by = $3,
    notes = COALESCE($4, notes),
    updated_at = $5
WHERE borrowing_id = $1`
	_, err := tx.ExecContext(ctx, q, id, restored, approvedBy, notes, now)
	return err
}

func (r *repo) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM borrowings WHERE borrowing_id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) InsertReturnRecord(ctx context.Context, tx *sql.Tx, borrowingID int64, fine float64, returnDate time.Time) error {
	const q = `
INSERT INTO returns (borrowing_id, fine, return_date)
VALUES ($1,$2,$3)`
	_, err := tx.ExecContext(ctx, q, borrowingID, fine, returnDate)
	return err
}

func (r *repo) Stats(ctx context.Context, now time.Time) (*StatusCounts, error) {
	const q = `
SELECT
  COUNT(*) FILTER (WHERE status = 'Pending'),
  COUNT(*) FILTER (WHERE status = 'Borrowed'),
  COUNT(*) FILTER (WHERE status = 'Extended'),
  COUNT(*) FILTER (WHERE status = 'Returned'),
  COUNT(*) FILTER (WHERE status IN ('Borrowed','Extended') AND due_date < $1),
  COUNT(*)
FROM borrowings`
	var s StatusCounts
	err := r.db.QueryRowContext(ctx, q, now).Scan(
		&s.Pending, &s.Borrowed, &s.Extended, &s.Returned, &s.Overdue, &s.Total,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repo) CountByStatus(ctx context.Context, status model.BorrowStatus) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM borrowings WHERE status = $1`, status).Scan(&total)
	return total, err
}

func (r *repo) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	const q = `
SELECT COUNT(*)
FROM borrowings
WHERE status IN ('Borrowed','Extended') AND due_date < $1`
	var total int64
	err := r.db.QueryRowContext(ctx, q, now).Scan(&total)
	return total, err
}

func (r *repo) CountDueToday(ctx context.Context, now time.Time) (int64, error) {
	const q = `
SELECT COUNT(*)
FROM borrowings
WHERE status = 'Borrowed' AND due_date = $1::date`
	var total int64
	err := r.db.QueryRowContext(ctx, q, now).Scan(&total)
	return total, err
}

// CountDueTodayActive counts both active statuses, used by the overview chart.
func (r *repo) CountDueTodayActive(ctx context.Context, now time.Time) (int64, error) {
	const q = `
SELECT COUNT(*)
FROM borrowings
WHERE status IN ('Borrowed','Extended') AND due_date = $1::date`
	var total int64
	err := r.db.QueryRowContext(ctx, q, now).Scan(&total)
	return total, err
}

// CountActiveBefore counts active loans not yet due.
func (r *repo) CountActiveBefore(ctx context.Context, now time.Time) (int64, error) {
	const q = `
SELECT COUNT(*)
FROM borrowings
WHERE status IN ('Borrowed','Extended') AND due_date > $1`
	var total int64
	err := r.db.QueryRowContext(ctx, q, now).Scan(&total)
	return total, err
}

func (r *repo) ActivityByDay(ctx context.Context, since time.Time) ([]TrendRow, error) {
	const q = `
SELECT CAST(created_at AS DATE) AS day,
       COUNT(*) AS requests,
       COUNT(*) FILTER (WHERE status IN ('Borrowed','Extended') OR return_date IS NOT NULL) AS borrows,
       COUNT(*) FILTER (WHERE return_date IS NOT NULL) AS returns
FROM borrowings
WHERE created_at >= $1
GROUP BY 1
ORDER BY 1`
	rows, err := r.db.QueryContext(ctx, q, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrendRow
	for rows.Next() {
		var t TrendRow
		if err := rows.Scan(&t.Day, &t.Requests, &t.Borrows, &t.Returns); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repo) RecentActivities(ctx context.Context, limit int) ([]ActivityRow, error) {
	const q = `
SELECT br.borrowing_id, u.name, b.title, br.status, br.borrow_date, br.due_date,
       br.return_date, rt.fine
FROM borrowings br
JOIN users u ON br.users_id = u.users_id
JOIN books b ON br.book_id = b.book_id
LEFT JOIN returns rt ON br.borrowing_id = rt.borrowing_id
ORDER BY COALESCE(br.return_date, br.borrow_date) DESC, br.borrowing_id DESC
LIMIT $1`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActivityRow
	for rows.Next() {
		var a ActivityRow
		if err := rows.Scan(
			&a.BorrowingID, &a.UserName, &a.BookTitle, &a.Status,
			&a.BorrowDate, &a.DueDate, &a.ReturnDate, &a.Fine,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repo) ListUserActive(ctx context.Context, userID int64) ([]model.Borrowing, error) {
	const q = `
SELECT br.borrowing_id, br.book_id, br.quantity, br.borrow_date, br.due_date, br.status,
       b.title, b.author
FROM borrowings br
JOIN books b ON br.book_id = b.book_id
WHERE br.users_id = $1 AND br.status IN ('Borrowed','Extended')
ORDER BY br.borrow_date DESC`
	return r.queryUserRows(ctx, q, userID)
}

func (r *repo) ListUserPending(ctx context.Context, userID int64) ([]model.Borrowing, error) {
	const q = `
SELECT br.borrowing_id, br.book_id, br.quantity, br.borrow_date, br.due_date, br.status,
       b.title, b.author
FROM borrowings br
JOIN books b ON br.book_id = b.book_id
WHERE br.users_id = $1 AND br.status = 'Pending'
ORDER BY br.borrow_date DESC`
	return r.queryUserRows(ctx, q, userID)
}

func (r *repo) queryUserRows(ctx context.Context, q string, userID int64) ([]model.Borrowing, error) {
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Borrowing
	for rows.Next() {
		var b model.Borrowing
		if err := rows.Scan(
			&b.ID, &b.BookID, &b.Quantity, &b.BorrowDate, &b.DueDate, &b.Status,
			&b.BookTitle, &b.BookAuthor,
		); err != nil {
			return nil, err
		}
		b.UserID = userID
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) ListUserHistory(ctx context.Context, userID int64) ([]HistoryRow, error) {
	const q = `
SELECT br.borrowing_id, b.title, b.author, br.borrow_date, br.due_date, br.status,
       br.return_date, rt.fine
FROM borrowings br
JOIN books b ON br.book_id = b.book_id
LEFT JOIN returns rt ON br.borrowing_id = rt.borrowing_id
WHERE br.users_id = $1
ORDER BY br.borrow_date DESC, br.borrowing_id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(
			&h.BorrowingID, &h.BookTitle, &h.BookAuthor, &h.BorrowDate, &h.DueDate,
			&h.Status, &h.ReturnDate, &h.Fine,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
