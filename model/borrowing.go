// model/borrowing.go
package model

import "time"

type BorrowStatus string

const (
	StatusPending       BorrowStatus = "Pending"
	StatusBorrowed      BorrowStatus = "Borrowed"
	StatusExtended      BorrowStatus = "Extended"
	StatusWaitingReturn BorrowStatus = "Waiting Return"
	StatusReturned      BorrowStatus = "Returned"
)

// DisplayOverdue is a read-time label only, never written to the status column.
const DisplayOverdue = "Overdue"

// Active reports whether this status reserves stock.
func (s BorrowStatus) Active() bool {
	return s == StatusBorrowed || s == StatusExtended
}

type Borrowing struct {
	ID           int64         `json:"borrowing_id"`
	UserID       int64         `json:"users_id"`
	BookID       int64         `json:"book_id"`
	Quantity     int64         `json:"quantity"`
	BorrowDate   time.Time     `json:"borrow_date"`
	DueDate      time.Time     `json:"due_date"`
	ReturnDate   *time.Time    `json:"return_date,omitempty"`
	Status       BorrowStatus  `json:"status"`
	PriorStatus  *BorrowStatus `json:"-"`
	Notes        *string       `json:"notes,omitempty"`
	ApprovedBy   *int64        `json:"approved_by,omitempty"`
	ApprovedDate *time.Time    `json:"approved_date,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	// joined display fields
	UserName       string  `json:"user_name,omitempty"`
	UserEmail      string  `json:"user_email,omitempty"`
	BookTitle      string  `json:"book_title,omitempty"`
	BookAuthor     string  `json:"book_author,omitempty"`
	ApprovedByName *string `json:"approved_by_name,omitempty"`

	// derived at read time, see Decorate
	DisplayStatus string `json:"display_status,omitempty"`
	DaysDiff      *int   `json:"days_diff,omitempty"`
}

// Decorate fills DisplayStatus and DaysDiff from the stored state and a clock
// reading. An active loan past its due date shows as Overdue with the number
// of whole days late; an active loan before its due date shows the days left.
// Non-active records just echo the stored status.
func (b *Borrowing) Decorate(now time.Time) {
	b.DisplayStatus = string(b.Status)
	b.DaysDiff = nil
	if !b.Status.Active() {
		return
	}
	if b.DueDate.Before(now) {
		b.DisplayStatus = DisplayOverdue
		d := daysBetween(b.DueDate, now)
		b.DaysDiff = &d
		return
	}
	d := daysBetween(now, b.DueDate)
	b.DaysDiff = &d
}

func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// Pagination mirrors the list-endpoint envelope.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

func NewPagination(page, limit int, total int64) *Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return &Pagination{
		CurrentPage:  page,
		TotalPages:   pages,
		TotalItems:   total,
		ItemsPerPage: limit,
	}
}
