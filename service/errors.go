package service

import (
	"errors"
	"fmt"
)

// ErrorKind tags a domain failure so callers can branch on it without
// string matching.
type ErrorKind string

const (
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindBettingClosed     ErrorKind = "betting_closed"
	KindCapExceeded       ErrorKind = "cap_exceeded"
	KindInvalidSide       ErrorKind = "invalid_side"
	KindMatchNotFound     ErrorKind = "match_not_found"
	KindAlreadySettled    ErrorKind = "already_settled"
	KindWindowExpired     ErrorKind = "window_expired"
	KindNotFound          ErrorKind = "not_found"
	KindEmptyPool         ErrorKind = "empty_pool"
)

// WagerError is a recoverable domain failure. Infrastructure failures
// are wrapped with %w instead and never carry a kind.
type WagerError struct {
	Kind    ErrorKind
	Message string
}

func (e *WagerError) Error() string {
	return e.Message
}

// NewWagerError creates a tagged domain error
func NewWagerError(kind ErrorKind, format string, args ...any) *WagerError {
	return &WagerError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the error's kind, or empty string for infrastructure
// errors.
func KindOf(err error) ErrorKind {
	var wagerErr *WagerError
	if errors.As(err, &wagerErr) {
		return wagerErr.Kind
	}
	return ""
}
