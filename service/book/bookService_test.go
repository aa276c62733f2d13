package booksvc

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Zedts/backend-digital-library/model"
)

type repoMock struct {
	createFn            func(ctx context.Context, b *model.Book) (int64, error)
	updateFn            func(ctx context.Context, b *model.Book) error
	deleteFn            func(ctx context.Context, id int64) error
	getByIDFn           func(ctx context.Context, id int64) (*model.Book, error)
	listFn              func(ctx context.Context, f ListFilter) ([]model.Book, int64, error)
	listAvailableFn     func(ctx context.Context) ([]model.Book, error)
	hasOpenBorrowingsFn func(ctx context.Context, bookID int64) (bool, error)
}

func (m *repoMock) Create(ctx context.Context, b *model.Book) (int64, error) {
	return m.createFn(ctx, b)
}
func (m *repoMock) Update(ctx context.Context, b *model.Book) error { return m.updateFn(ctx, b) }
func (m *repoMock) Delete(ctx context.Context, id int64) error      { return m.deleteFn(ctx, id) }
func (m *repoMock) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	if m.getByIDFn == nil {
		return &model.Book{ID: id, Title: "x", Author: "y"}, nil
	}
	return m.getByIDFn(ctx, id)
}
func (m *repoMock) List(ctx context.Context, f ListFilter) ([]model.Book, int64, error) {
	return m.listFn(ctx, f)
}
func (m *repoMock) ListAvailable(ctx context.Context) ([]model.Book, error) {
	return m.listAvailableFn(ctx)
}
func (m *repoMock) HasOpenBorrowings(ctx context.Context, bookID int64) (bool, error) {
	if m.hasOpenBorrowingsFn == nil {
		return false, nil
	}
	return m.hasOpenBorrowingsFn(ctx, bookID)
}

func TestCreate_RejectsInvalidPayload(t *testing.T) {
	s := New(&repoMock{})
	_, err := s.Create(context.Background(), &model.Book{Title: "", Author: "a"})
	require.ErrorIs(t, err, ErrBadInput)
	_, err = s.Create(context.Background(), &model.Book{Title: "t", Author: "a", Stock: -1})
	require.ErrorIs(t, err, ErrBadInput)
}

func TestDelete_RefusedWhileBorrowed(t *testing.T) {
	deleted := false
	s := New(&repoMock{
		hasOpenBorrowingsFn: func(ctx context.Context, bookID int64) (bool, error) { return true, nil },
		deleteFn:            func(ctx context.Context, id int64) error { deleted = true; return nil },
	})
	err := s.Delete(context.Background(), 7)
	require.ErrorIs(t, err, ErrBookInUse)
	require.False(t, deleted)
}

func TestDelete_AllowedWhenNoOpenLoans(t *testing.T) {
	var got int64
	s := New(&repoMock{
		deleteFn: func(ctx context.Context, id int64) error { got = id; return nil },
	})
	require.NoError(t, s.Delete(context.Background(), 7))
	require.Equal(t, int64(7), got)
}

func TestDetail_NotFound(t *testing.T) {
	s := New(&repoMock{
		getByIDFn: func(ctx context.Context, id int64) (*model.Book, error) { return nil, sql.ErrNoRows },
	})
	_, err := s.Detail(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList_NormalizesPaging(t *testing.T) {
	var seen ListFilter
	s := New(&repoMock{
		listFn: func(ctx context.Context, f ListFilter) ([]model.Book, int64, error) {
			seen = f
			return []model.Book{{ID: 1}}, 23, nil
		},
	})
	_, p, err := s.List(context.Background(), ListFilter{Page: 0, Limit: 500})
	require.NoError(t, err)
	require.Equal(t, 1, seen.Page)
	require.Equal(t, 10, seen.Limit)
	require.Equal(t, 3, p.TotalPages)
	require.Equal(t, int64(23), p.TotalItems)
}
