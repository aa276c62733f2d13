package bookrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/Zedts/backend-digital-library/model"
)

// ErrStockConflict is returned when a guarded stock adjustment matched no row
// because it would have driven stock below zero.
var ErrStockConflict = errors.New("stock adjustment would drive stock below zero")

var pg = goqu.Dialect("postgres")

type ListFilter struct {
	Page       int
	Limit      int
	Search     string
	CategoryID int64
}

type Repo interface {
	Create(ctx context.Context, b *model.Book) (int64, error)
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, f ListFilter) ([]model.Book, int64, error)
	ListAvailable(ctx context.Context) ([]model.Book, error)
	CountAll(ctx context.Context) (int64, error)
	HasOpenBorrowings(ctx context.Context, bookID int64) (bool, error)

	// inventory store: the lifecycle engine is the only caller of these two
	GetStockForUpdate(ctx context.Context, tx *sql.Tx, bookID int64) (int64, error)
	AdjustStock(ctx context.Context, tx *sql.Tx, bookID int64, delta int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, b *model.Book) (int64, error) {
	const q = `
INSERT INTO books (title, author, publisher, publish_year, stock, category_id)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING book_id`
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		b.Title, b.Author, b.Publisher, b.PublishYear, b.Stock, b.CategoryID,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) Update(ctx context.Context, b *model.Book) error {
	const q = `
UPDATE books
SET title=$2, author=$3, publisher=$4, publish_year=$5, stock=$6, category_id=$7
WHERE book_id=$1`
	res, err := r.db.ExecContext(ctx, q,
		b.ID, b.Title, b.Author, b.Publisher, b.PublishYear, b.Stock, b.CategoryID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE book_id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	const q = `
SELECT b.book_id, b.title, b.author, b.publisher, b.publish_year, b.stock,
       b.category_id, c.category_name
FROM books b
LEFT JOIN categories c ON b.category_id = c.category_id
WHERE b.book_id = $1`
	var b model.Book
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.Title, &b.Author, &b.Publisher, &b.PublishYear, &b.Stock,
		&b.CategoryID, &b.CategoryName,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) List(ctx context.Context, f ListFilter) ([]model.Book, int64, error) {
	base := pg.From(goqu.T("books").As("b")).
		LeftJoin(goqu.T("categories").As("c"),
			goqu.On(goqu.I("b.category_id").Eq(goqu.I("c.category_id"))))

	if f.Search != "" {
		p := "%" + f.Search + "%"
		base = base.Where(goqu.Or(
			goqu.I("b.title").ILike(p),
			goqu.I("b.author").ILike(p),
			goqu.I("b.publisher").ILike(p),
		))
	}
	if f.CategoryID > 0 {
		base = base.Where(goqu.I("b.category_id").Eq(f.CategoryID))
	}

	borrowed := pg.From(goqu.T("borrowings").As("br")).
		Select(goqu.COALESCE(goqu.SUM("br.quantity"), 0)).
		Where(
			goqu.I("br.book_id").Eq(goqu.I("b.book_id")),
			// stock is only restored once the return is approved
			goqu.I("br.status").In(string(model.StatusBorrowed), string(model.StatusExtended), string(model.StatusWaitingReturn)),
		)

	listQ, listArgs, err := base.
		Select(
			goqu.I("b.book_id"), goqu.I("b.title"), goqu.I("b.author"),
			goqu.I("b.publisher"), goqu.I("b.publish_year"), goqu.I("b.stock"),
			goqu.I("b.category_id"), goqu.I("c.category_name"),
			borrowed.As("borrowed_count"),
		).
		Order(goqu.I("b.title").Asc()).
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

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.Publisher, &b.PublishYear, &b.Stock,
			&b.CategoryID, &b.CategoryName, &b.BorrowedCount,
		); err != nil {
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

func (r *repo) ListAvailable(ctx context.Context) ([]model.Book, error) {
	const q = `
SELECT b.book_id, b.title, b.author, b.publisher, b.publish_year, b.stock,
       b.category_id, c.category_name
FROM books b
LEFT JOIN categories c ON b.category_id = c.category_id
WHERE b.stock > 0
ORDER BY b.title`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.Publisher, &b.PublishYear, &b.Stock,
			&b.CategoryID, &b.CategoryName,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) CountAll(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&total)
	return total, err
}

func (r *repo) HasOpenBorrowings(ctx context.Context, bookID int64) (bool, error) {
	const q = `
SELECT EXISTS (
    SELECT 1 FROM borrowings
    WHERE book_id = $1
      AND status IN ('Pending','Borrowed','Extended','Waiting Return')
)`
	var open bool
	err := r.db.QueryRowContext(ctx, q, bookID).Scan(&open)
	return open, err
}

func (r *repo) GetStockForUpdate(ctx context.Context, tx *sql.Tx, bookID int64) (int64, error) {
	const q = `
SELECT stock
FROM books
WHERE book_id = $1
FOR UPDATE`
	var stock int64
	err := tx.QueryRowContext(ctx, q, bookID).Scan(&stock)
	return stock, err
}

func (r *repo) AdjustStock(ctx context.Context, tx *sql.Tx, bookID int64, delta int64) error {
	// Guard: never let stock go negative.
	const q = `
UPDATE books
SET stock = stock + $2
WHERE book_id = $1
  AND stock + $2 >= 0`
	res, err := tx.ExecContext(ctx, q, bookID, delta)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStockConflict
	}
	return nil
}
