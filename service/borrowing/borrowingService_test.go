package borrowing

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Zedts/backend-digital-library/model"
	bookrepo "github.com/Zedts/backend-digital-library/repository/book"
	brepo "github.com/Zedts/backend-digital-library/repository/borrowing"
)

// --- mocks ---

type repoMock struct {
	insertFn            func(ctx context.Context, b *model.Borrowing) (int64, error)
	getByIDFn           func(ctx context.Context, id int64) (*model.Borrowing, error)
	listFn              func(ctx context.Context, f ListFilter) ([]model.Borrowing, int64, error)
	getForUpdateFn      func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error)
	markBorrowedFn      func(ctx context.Context, tx *sql.Tx, id, approvedBy int64, now time.Time) error
	extendDueDateFn     func(ctx context.Context, tx *sql.Tx, id int64, newDue time.Time, approvedBy int64, notes *string, now time.Time) error
	markWaitingReturnFn func(ctx context.Context, tx *sql.Tx, id int64, prior model.BorrowStatus, notes *string, now time.Time) error
	markReturnedFn      func(ctx context.Context, tx *sql.Tx, id int64, returnDate time.Time, approvedBy int64, notes *string, now time.Time) error
	restoreStatusFn     func(ctx context.Context, tx *sql.Tx, id int64, restored model.BorrowStatus, approvedBy int64, notes *string, now time.Time) error
	deleteFn            func(ctx context.Context, tx *sql.Tx, id int64) error
	insertReturnFn      func(ctx context.Context, tx *sql.Tx, borrowingID int64, fine float64, returnDate time.Time) error
}

var _ Repo = (*repoMock)(nil)

func (m *repoMock) Insert(ctx context.Context, b *model.Borrowing) (int64, error) {
	if m.insertFn == nil {
		return 1, nil
	}
	return m.insertFn(ctx, b)
}

func (m *repoMock) GetByID(ctx context.Context, id int64) (*model.Borrowing, error) {
	if m.getByIDFn == nil {
		return &model.Borrowing{ID: id}, nil
	}
	return m.getByIDFn(ctx, id)
}

func (m *repoMock) List(ctx context.Context, f ListFilter) ([]model.Borrowing, int64, error) {
	if m.listFn == nil {
		return nil, 0, nil
	}
	return m.listFn(ctx, f)
}

func (m *repoMock) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
	return m.getForUpdateFn(ctx, tx, id)
}

func (m *repoMock) MarkBorrowed(ctx context.Context, tx *sql.Tx, id, approvedBy int64, now time.Time) error {
	if m.markBorrowedFn == nil {
		return nil
	}
	return m.markBorrowedFn(ctx, tx, id, approvedBy, now)
}

func (m *repoMock) ExtendDueDate(ctx context.Context, tx *sql.Tx, id int64, newDue time.Time, approvedBy int64, notes *string, now time.Time) error {
	if m.extendDueDateFn == nil {
		return nil
	}
	return m.extendDueDateFn(ctx, tx, id, newDue, approvedBy, notes, now)
}

func (m *repoMock) MarkWaitingReturn(ctx context.Context, tx *sql.Tx, id int64, prior model.BorrowStatus, notes *string, now time.Time) error {
	if m.markWaitingReturnFn == nil {
		return nil
	}
	return m.markWaitingReturnFn(ctx, tx, id, prior, notes, now)
}

func (m *repoMock) MarkReturned(ctx context.Context, tx *sql.Tx, id int64, returnDate time.Time, approvedBy int64, notes *string, now time.Time) error {
	if m.markReturnedFn == nil {
		return nil
	}
	return m.markReturnedFn(ctx, tx, id, returnDate, approvedBy, notes, now)
}

func (m *repoMock) RestoreStatus(ctx context.Context, tx *sql.Tx, id int64, restored model.BorrowStatus, approvedBy int64, notes *string, now time.Time) error {
	if m.restoreStatusFn == nil {
		return nil
	}
	return m.restoreStatusFn(ctx, tx, id, restored, approvedBy, notes, now)
}

func (m *repoMock) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, tx, id)
}

func (m *repoMock) InsertReturnRecord(ctx context.Context, tx *sql.Tx, borrowingID int64, fine float64, returnDate time.Time) error {
	if m.insertReturnFn == nil {
		return nil
	}
	return m.insertReturnFn(ctx, tx, borrowingID, fine, returnDate)
}

type invMock struct {
	getByIDFn           func(ctx context.Context, id int64) (*model.Book, error)
	getStockForUpdateFn func(ctx context.Context, tx *sql.Tx, bookID int64) (int64, error)
	adjustStockFn       func(ctx context.Context, tx *sql.Tx, bookID int64, delta int64) error
}

var _ Inventory = (*invMock)(nil)

func (m *invMock) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	return m.getByIDFn(ctx, id)
}
func (m *invMock) GetStockForUpdate(ctx context.Context, tx *sql.Tx, bookID int64) (int64, error) {
	return m.getStockForUpdateFn(ctx, tx, bookID)
}
func (m *invMock) AdjustStock(ctx context.Context, tx *sql.Tx, bookID int64, delta int64) error {
	return m.adjustStockFn(ctx, tx, bookID, delta)
}

// invFake is an in-memory inventory that emulates row-level locking: the
// row lock is taken by GetStockForUpdate and released by the next
// AdjustStock, so a concurrent approver observes the committed stock.
type invFake struct {
	mu    sync.Mutex
	sem   chan struct{}
	stock map[int64]int64
}

var _ Inventory = (*invFake)(nil)

func newInvFake(stock map[int64]int64) *invFake {
	return &invFake{sem: make(chan struct{}, 1), stock: stock}
}

func (f *invFake) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stock[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &model.Book{ID: id, Stock: s}, nil
}

func (f *invFake) GetStockForUpdate(ctx context.Context, tx *sql.Tx, id int64) (int64, error) {
	f.sem <- struct{}{} // row lock
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stock[id]
	if !ok {
		<-f.sem
		return 0, sql.ErrNoRows
	}
	return s, nil
}

func (f *invFake) AdjustStock(ctx context.Context, tx *sql.Tx, id int64, delta int64) error {
	defer func() {
		select {
		case <-f.sem:
		default:
		}
	}()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stock[id]+delta < 0 {
		return bookrepo.ErrStockConflict
	}
	f.stock[id] += delta
	return nil
}

func (f *invFake) current(id int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stock[id]
}

// --- helpers ---

func newTestService(t *testing.T, r Repo, inv Inventory) (Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.MatchExpectationsInOrder(false)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(db, r, inv, Policy{LoanPeriodDays: 14, DefaultExtensionDays: 7, OpTimeout: time.Second, RetryAttempts: 2}, log)
	return svc, mock
}

func expectTx(mock sqlmock.Sqlmock, commit bool) {
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func loan(id, bookID, qty int64, status model.BorrowStatus, due time.Time) *brepo.LoanRow {
	return &brepo.LoanRow{ID: id, UserID: 9, BookID: bookID, Quantity: qty, Status: status, DueDate: due}
}

// --- Request ---

func TestRequest_InvalidQuantity(t *testing.T) {
	svc, _ := newTestService(t, &repoMock{}, &invMock{})
	_, err := svc.Request(context.Background(), 1, 2, -1, nil)
	require.Error(t, err)
	require.Equal(t, ErrInvalidQuantity, Code(err))
}

func TestRequest_OmittedQuantityDefaultsToOne(t *testing.T) {
	var got *model.Borrowing
	r := &repoMock{
		insertFn: func(ctx context.Context, b *model.Borrowing) (int64, error) {
			got = b
			return 78, nil
		},
		getByIDFn: func(ctx context.Context, id int64) (*model.Borrowing, error) {
			return &model.Borrowing{ID: id, Status: model.StatusPending}, nil
		},
	}
	inv := &invMock{
		getByIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Stock: 5}, nil
		},
	}
	svc, _ := newTestService(t, r, inv)

	_, err := svc.Request(context.Background(), 9, 4, 0, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, int64(1), got.Quantity)
}

func TestRequest_BookNotFound(t *testing.T) {
	inv := &invMock{
		getByIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return nil, sql.ErrNoRows
		},
	}
	svc, _ := newTestService(t, &repoMock{}, inv)
	_, err := svc.Request(context.Background(), 1, 2, 1, nil)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestRequest_OutOfStock(t *testing.T) {
	inv := &invMock{
		getByIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Stock: 0}, nil
		},
	}
	svc, _ := newTestService(t, &repoMock{}, inv)
	_, err := svc.Request(context.Background(), 1, 2, 1, nil)
	require.Equal(t, ErrUnavailable, Code(err))
}

func TestRequest_QuantityOverStock(t *testing.T) {
	inv := &invMock{
		getByIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Stock: 2}, nil
		},
	}
	svc, _ := newTestService(t, &repoMock{}, inv)
	_, err := svc.Request(context.Background(), 1, 2, 3, nil)
	require.Equal(t, ErrInsufficientStock, Code(err))
	require.Contains(t, err.Error(), "2 copies")
}

func TestRequest_CreatesPendingWithLoanPeriod(t *testing.T) {
	var got *model.Borrowing
	r := &repoMock{
		insertFn: func(ctx context.Context, b *model.Borrowing) (int64, error) {
			got = b
			return 77, nil
		},
		getByIDFn: func(ctx context.Context, id int64) (*model.Borrowing, error) {
			return &model.Borrowing{ID: id, Status: model.StatusPending}, nil
		},
	}
	inv := &invMock{
		getByIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Stock: 5}, nil
		},
	}
	svc, _ := newTestService(t, r, inv)

	out, err := svc.Request(context.Background(), 9, 4, 2, nil)
	require.NoError(t, err)
	require.Equal(t, int64(77), out.ID)
	require.NotNil(t, got)
	require.Equal(t, model.StatusPending, got.Status)
	require.Equal(t, int64(2), got.Quantity)
	require.Equal(t, got.BorrowDate.AddDate(0, 0, 14), got.DueDate)
}

// --- Approve ---

func TestApprove_DecrementsStockOnce(t *testing.T) {
	inv := newInvFake(map[int64]int64{4: 5})
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			return loan(id, 4, 2, model.StatusPending, time.Now()), nil
		},
	}
	svc, mock := newTestService(t, r, inv)
	expectTx(mock, true)

	_, err := svc.Approve(context.Background(), 10, 3)
	require.NoError(t, err)
	require.Equal(t, int64(3), inv.current(4))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_InsufficientStockLeavesStockUnchanged(t *testing.T) {
	inv := newInvFake(map[int64]int64{4: 3})
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			return loan(id, 4, 5, model.StatusPending, time.Now()), nil
		},
	}
	svc, mock := newTestService(t, r, inv)
	expectTx(mock, false)

	_, err := svc.Approve(context.Background(), 10, 3)
	require.Equal(t, ErrInsufficientStock, Code(err))
	require.Equal(t, int64(3), inv.current(4))
}

func TestApprove_NonPending(t *testing.T) {
	inv := newInvFake(map[int64]int64{4: 3})
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			return loan(id, 4, 1, model.StatusBorrowed, time.Now()), nil
		},
	}
	svc, mock := newTestService(t, r, inv)
	expectTx(mock, false)

	_, err := svc.Approve(context.Background(), 10, 3)
	require.Equal(t, ErrInvalidTransition, Code(err))
	require.Equal(t, int64(3), inv.current(4))
}

func TestApprove_ConcurrentOnLastCopy(t *testing.T) {
	inv := newInvFake(map[int64]int64{4: 1})
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			return loan(id, 4, 1, model.StatusPending, time.Now()), nil
		},
	}
	svc, mock := newTestService(t, r, inv)
	// one approval commits, the other rolls back
	mock.ExpectBegin()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectRollback()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Approve(context.Background(), int64(10+i), 3)
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case Code(err) == ErrInsufficientStock:
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok, "exactly one approval must win")
	require.Equal(t, 1, insufficient)
	require.Equal(t, int64(0), inv.current(4))
}

func TestApprove_GuardTripIsInvariantViolation(t *testing.T) {
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			return loan(id, 4, 1, model.StatusPending, time.Now()), nil
		},
	}
	checks := 0
	inv := &invMock{
		getStockForUpdateFn: func(ctx context.Context, tx *sql.Tx, bookID int64) (int64, error) {
			checks++
			return 5, nil
		},
		adjustStockFn: func(ctx context.Context, tx *sql.Tx, bookID int64, delta int64) error {
			return bookrepo.ErrStockConflict
		},
	}
	svc, mock := newTestService(t, r, inv)
	expectTx(mock, false)

	_, err := svc.Approve(context.Background(), 10, 3)
	require.Equal(t, ErrInvariantViolation, Code(err))
	require.Equal(t, 1, checks, "invariant violations must not be retried")
}

// --- Extend ---

func TestExtend_CountsFromCurrentDueDate(t *testing.T) {
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	var gotDue time.Time
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			return loan(id, 4, 1, model.StatusBorrowed, due), nil
		},
		extendDueDateFn: func(ctx context.Context, tx *sql.Tx, id int64, newDue time.Time, approvedBy int64, notes *string, now time.Time) error {
			gotDue = newDue
			return nil
		},
	}
	svc, mock := newTestService(t, r, &invMock{})
	expectTx(mock, true)

	_, err := svc.Extend(context.Background(), 10, 7, 3, nil)
	require.NoError(t, err)
	require.Equal(t, due.AddDate(0, 0, 7), gotDue)
}

func TestExtend_NotActive(t *testing.T) {
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			return loan(id, 4, 1, model.StatusPending, time.Now()), nil
		},
	}
	svc, mock := newTestService(t, r, &invMock{})
	expectTx(mock, false)

	_, err := svc.Extend(context.Background(), 10, 7, 3, nil)
	require.Equal(t, ErrNotFound, Code(err))
}

// --- return flow ---

func TestRequestReturn_RecordsPriorStatus(t *testing.T) {
	var gotPrior model.BorrowStatus
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			return loan(id, 4, 1, model.StatusExtended, time.Now()), nil
		},
		markWaitingReturnFn: func(ctx context.Context, tx *sql.Tx, id int64, prior model.BorrowStatus, notes *string, now time.Time) error {
			gotPrior = prior
			return nil
		},
	}
	svc, mock := newTestService(t, r, &invMock{})
	expectTx(mock, true)

	_, err := svc.RequestReturn(context.Background(), 10, nil)
	require.NoError(t, err)
	require.Equal(t, model.StatusExtended, gotPrior)
}

func TestRequestReturn_NotActive(t *testing.T) {
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			return loan(id, 4, 1, model.StatusReturned, time.Now()), nil
		},
	}
	svc, mock := newTestService(t, r, &invMock{})
	expectTx(mock, false)

	_, err := svc.RequestReturn(context.Background(), 10, nil)
	require.Equal(t, ErrInvalidTransition, Code(err))
}

func TestApproveReturn_RestoresStockAndRecordsFine(t *testing.T) {
	inv := newInvFake(map[int64]int64{4: 3})
	var gotFine float64
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			return loan(id, 4, 2, model.StatusWaitingReturn, time.Now()), nil
		},
		insertReturnFn: func(ctx context.Context, tx *sql.Tx, borrowingID int64, fine float64, returnDate time.Time) error {
			gotFine = fine
			return nil
		},
	}
	svc, mock := newTestService(t, r, inv)
	expectTx(mock, true)

	_, err := svc.ApproveReturn(context.Background(), 10, 3, 2500, nil)
	require.NoError(t, err)
	require.Equal(t, int64(5), inv.current(4))
	require.Equal(t, float64(2500), gotFine)
}

func TestApproveReturn_ZeroFineSkipsReturnRecord(t *testing.T) {
	inv := newInvFake(map[int64]int64{4: 0})
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			return loan(id, 4, 1, model.StatusWaitingReturn, time.Now()), nil
		},
		insertReturnFn: func(ctx context.Context, tx *sql.Tx, borrowingID int64, fine float64, returnDate time.Time) error {
			t.Fatal("no return record expected for zero fine")
			return nil
		},
	}
	svc, mock := newTestService(t, r, inv)
	expectTx(mock, true)

	_, err := svc.ApproveReturn(context.Background(), 10, 3, 0, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), inv.current(4))
}

func TestRejectReturn_RestoresExtended(t *testing.T) {
	prior := model.StatusExtended
	var restored model.BorrowStatus
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			l := loan(id, 4, 1, model.StatusWaitingReturn, time.Now())
			l.PriorStatus = &prior
			return l, nil
		},
		restoreStatusFn: func(ctx context.Context, tx *sql.Tx, id int64, st model.BorrowStatus, approvedBy int64, notes *string, now time.Time) error {
			restored = st
			return nil
		},
	}
	svc, mock := newTestService(t, r, &invMock{})
	expectTx(mock, true)

	_, err := svc.RejectReturn(context.Background(), 10, 3, nil)
	require.NoError(t, err)
	require.Equal(t, model.StatusExtended, restored)
}

func TestRejectReturn_DefaultsToBorrowed(t *testing.T) {
	var restored model.BorrowStatus
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			return loan(id, 4, 1, model.StatusWaitingReturn, time.Now()), nil
		},
		restoreStatusFn: func(ctx context.Context, tx *sql.Tx, id int64, st model.BorrowStatus, approvedBy int64, notes *string, now time.Time) error {
			restored = st
			return nil
		},
	}
	svc, mock := newTestService(t, r, &invMock{})
	expectTx(mock, true)

	_, err := svc.RejectReturn(context.Background(), 10, 3, nil)
	require.NoError(t, err)
	require.Equal(t, model.StatusBorrowed, restored)
}

// --- round trip ---

func TestLifecycleRoundTripRestoresStock(t *testing.T) {
	inv := newInvFake(map[int64]int64{4: 5})
	status := model.StatusPending
	prior := model.BorrowStatus("")
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			l := loan(id, 4, 2, status, time.Now())
			if prior != "" {
				p := prior
				l.PriorStatus = &p
			}
			return l, nil
		},
		markBorrowedFn: func(ctx context.Context, tx *sql.Tx, id, approvedBy int64, now time.Time) error {
			status = model.StatusBorrowed
			return nil
		},
		markWaitingReturnFn: func(ctx context.Context, tx *sql.Tx, id int64, p model.BorrowStatus, notes *string, now time.Time) error {
			prior = p
			status = model.StatusWaitingReturn
			return nil
		},
		markReturnedFn: func(ctx context.Context, tx *sql.Tx, id int64, returnDate time.Time, approvedBy int64, notes *string, now time.Time) error {
			status = model.StatusReturned
			return nil
		},
	}
	svc, mock := newTestService(t, r, inv)
	expectTx(mock, true)
	expectTx(mock, true)
	expectTx(mock, true)

	ctx := context.Background()
	_, err := svc.Approve(ctx, 10, 3)
	require.NoError(t, err)
	require.Equal(t, int64(3), inv.current(4))

	_, err = svc.RequestReturn(ctx, 10, nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), inv.current(4), "requesting a return must not touch stock")

	_, err = svc.ApproveReturn(ctx, 10, 3, 0, nil)
	require.NoError(t, err)
	require.Equal(t, int64(5), inv.current(4), "stock must return to its pre-request value")
}

// --- Delete ---

func TestDelete_NonPending(t *testing.T) {
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			return loan(id, 4, 1, model.StatusBorrowed, time.Now()), nil
		},
	}
	svc, mock := newTestService(t, r, &invMock{})
	expectTx(mock, false)

	err := svc.Delete(context.Background(), 10)
	require.Equal(t, ErrInvalidTransition, Code(err))
}

func TestDelete_Pending(t *testing.T) {
	deleted := false
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			return loan(id, 4, 1, model.StatusPending, time.Now()), nil
		},
		deleteFn: func(ctx context.Context, tx *sql.Tx, id int64) error {
			deleted = true
			return nil
		},
	}
	svc, mock := newTestService(t, r, &invMock{})
	expectTx(mock, true)

	require.NoError(t, svc.Delete(context.Background(), 10))
	require.True(t, deleted)
}

// --- retry discipline ---

func TestTransientFailuresAreRetriedThenSurfaced(t *testing.T) {
	attempts := 0
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			attempts++
			return nil, context.DeadlineExceeded
		},
	}
	svc, mock := newTestService(t, r, &invMock{})
	expectTx(mock, false)
	expectTx(mock, false)
	expectTx(mock, false)

	err := svc.Delete(context.Background(), 10)
	require.Equal(t, ErrTransient, Code(err))
	require.Equal(t, 3, attempts, "RetryAttempts=2 means three tries total")
}

func TestTransientFailureRecoversOnRetry(t *testing.T) {
	attempts := 0
	r := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, id int64) (*brepo.LoanRow, error) {
			attempts++
			if attempts == 1 {
				return nil, context.DeadlineExceeded
			}
			return loan(id, 4, 1, model.StatusPending, time.Now()), nil
		},
	}
	svc, mock := newTestService(t, r, &invMock{})
	expectTx(mock, false)
	expectTx(mock, true)

	require.NoError(t, svc.Delete(context.Background(), 10))
	require.Equal(t, 2, attempts)
}
