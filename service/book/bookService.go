package booksvc

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Zedts/backend-digital-library/model"
	repo "github.com/Zedts/backend-digital-library/repository/book"
)

var (
	ErrNotFound  = errors.New("book not found")
	ErrBadInput  = errors.New("invalid payload")
	ErrBookInUse = errors.New("book has open borrowings")
)

type ListFilter = repo.ListFilter

type Repo interface {
	Create(ctx context.Context, b *model.Book) (int64, error)
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, f ListFilter) ([]model.Book, int64, error)
	ListAvailable(ctx context.Context) ([]model.Book, error)
	HasOpenBorrowings(ctx context.Context, bookID int64) (bool, error)
}

type Service interface {
	Create(ctx context.Context, b *model.Book) (int64, error)
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id int64) error
	Detail(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, f ListFilter) ([]model.Book, *model.Pagination, error)
	Available(ctx context.Context) ([]model.Book, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, b *model.Book) (int64, error) {
	if b.Title == "" || b.Author == "" || b.Stock < 0 {
		return 0, ErrBadInput
	}
	return s.r.Create(ctx, b)
}

func (s *service) Update(ctx context.Context, b *model.Book) error {
	if b.Title == "" || b.Author == "" || b.Stock < 0 {
		return ErrBadInput
	}
	if _, err := s.Detail(ctx, b.ID); err != nil {
		return err
	}
	return s.r.Update(ctx, b)
}

// Delete refuses to remove a book that still has open borrowings so that
// active loans never point at a missing row.
func (s *service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Detail(ctx, id); err != nil {
		return err
	}
	open, err := s.r.HasOpenBorrowings(ctx, id)
	if err != nil {
		return err
	}
	if open {
		return ErrBookInUse
	}
	return s.r.Delete(ctx, id)
}

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) List(ctx context.Context, f ListFilter) ([]model.Book, *model.Pagination, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 10
	}
	books, total, err := s.r.List(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	return books, model.NewPagination(f.Page, f.Limit, total), nil
}

func (s *service) Available(ctx context.Context) ([]model.Book, error) {
	return s.r.ListAvailable(ctx)
}
