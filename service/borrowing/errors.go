package borrowing

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound           ErrCode = "NOT_FOUND"
	ErrUnavailable        ErrCode = "UNAVAILABLE"
	ErrInsufficientStock  ErrCode = "INSUFFICIENT_STOCK"
	ErrInvalidQuantity    ErrCode = "INVALID_QUANTITY"
	ErrInvalidTransition  ErrCode = "INVALID_TRANSITION"
	ErrInvariantViolation ErrCode = "INVARIANT_VIOLATION"
	ErrTransient          ErrCode = "TRANSIENT"
)

type codedError struct {
	code ErrCode
	msg  string
}

func (e codedError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }

func makeErr(c ErrCode) error { return codedError{code: c} }

func makeErrf(c ErrCode, format string, args ...any) error {
	return codedError{code: c, msg: fmt.Sprintf(format, args...)}
}

// Code extracts the error code, or "" for uncoded errors.
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// isTransient reports whether a backing-store failure is safe to retry.
// Coded business errors never are.
func isTransient(err error) bool {
	if err == nil || Code(err) != "" {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
