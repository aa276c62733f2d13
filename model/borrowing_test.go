package model

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestDecorate_OverdueLoan(t *testing.T) {
	b := Borrowing{Status: StatusBorrowed, DueDate: date(2025, 3, 10)}
	b.Decorate(date(2025, 3, 13))

	if b.DisplayStatus != DisplayOverdue {
		t.Fatalf("display status = %q; want Overdue", b.DisplayStatus)
	}
	if b.DaysDiff == nil || *b.DaysDiff != 3 {
		t.Fatalf("days diff = %v; want 3", b.DaysDiff)
	}
}

func TestDecorate_ActiveLoanNotDue(t *testing.T) {
	b := Borrowing{Status: StatusExtended, DueDate: date(2025, 3, 20)}
	b.Decorate(date(2025, 3, 13))

	if b.DisplayStatus != string(StatusExtended) {
		t.Fatalf("display status = %q; want Extended", b.DisplayStatus)
	}
	if b.DaysDiff == nil || *b.DaysDiff != 7 {
		t.Fatalf("days diff = %v; want 7", b.DaysDiff)
	}
}

func TestDecorate_NonActiveStatusesPassThrough(t *testing.T) {
	for _, st := range []BorrowStatus{StatusPending, StatusWaitingReturn, StatusReturned} {
		b := Borrowing{Status: st, DueDate: date(2025, 1, 1)}
		b.Decorate(date(2025, 3, 13))
		if b.DisplayStatus != string(st) {
			t.Fatalf("display status = %q; want %q", b.DisplayStatus, st)
		}
		if b.DaysDiff != nil {
			t.Fatalf("days diff = %v; want nil for %s", *b.DaysDiff, st)
		}
	}
}
