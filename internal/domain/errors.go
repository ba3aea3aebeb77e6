package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the engine's error taxonomy.
type ErrorKind string

// Error kinds
const (
	KindTransientUpstream  ErrorKind = "transient_upstream"
	KindValidationRejected ErrorKind = "validation_rejected"
	KindWalletDisabled     ErrorKind = "wallet_disabled"
	KindConfigInvalid      ErrorKind = "config_invalid"
	KindFatal              ErrorKind = "fatal"
)

// Sentinel errors, one per kind.
var (
	ErrUnavailable    = errors.New("upstream unavailable")
	ErrRejected       = errors.New("trade rejected")
	ErrWalletDisabled = errors.New("wallet disabled")
	ErrConfigInvalid  = errors.New("invalid config")
	ErrFatal          = errors.New("fatal engine error")
)

// Error carries a kind and the operation that failed.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError wraps err with kind and op.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf classifies err. Unclassified errors are transient.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrConfigInvalid):
		return KindConfigInvalid
	case errors.Is(err, ErrWalletDisabled):
		return KindWalletDisabled
	case errors.Is(err, ErrRejected):
		return KindValidationRejected
	case errors.Is(err, ErrFatal):
		return KindFatal
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrUnavailable):
		return KindTransientUpstream
	}
	return KindTransientUpstream
}
