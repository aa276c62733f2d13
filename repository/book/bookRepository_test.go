package bookrepo

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestAdjustStock_AppliesDelta(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE books").
		WithArgs(int64(7), int64(-2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	r := New(db)
	require.NoError(t, r.AdjustStock(context.Background(), tx, 7, -2))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustStock_GuardTripsOnUnderflow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	// the WHERE clause filters out the row when stock + delta < 0
	mock.ExpectExec("UPDATE books").
		WithArgs(int64(7), int64(-5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)

	r := New(db)
	err = r.AdjustStock(context.Background(), tx, 7, -5)
	require.ErrorIs(t, err, ErrStockConflict)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStockForUpdate_LocksRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT stock").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(int64(4)))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	r := New(db)
	stock, err := r.GetStockForUpdate(context.Background(), tx, 7)
	require.NoError(t, err)
	require.Equal(t, int64(4), stock)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}
