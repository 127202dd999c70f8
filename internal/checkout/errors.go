package checkout

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindStorage ErrorKind = iota
	KindInvalidInput
	KindNotFound
	KindInsufficientStock
)

// Error carries the checkout failure taxonomy. Everything that is not an
// explicit business failure is classified as storage.
type Error struct {
	Kind ErrorKind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil && e.msg != "" {
		return e.msg + ": " + e.err.Error()
	}
	if e.err != nil {
		return e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func errInvalidInput(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, msg: fmt.Sprintf(format, args...)}
}

func errNotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

func errInsufficientStock(format string, args ...any) error {
	return &Error{Kind: KindInsufficientStock, msg: fmt.Sprintf(format, args...)}
}

// StoreNotFound builds a NotFound error for a missing entity. Exported for
// Store implementations outside this package.
func StoreNotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, msg: fmt.Sprintf("%s %s not found", entity, id)}
}

// StorageError wraps a driver/transaction failure.
func StorageError(op string, err error) error {
	return &Error{Kind: KindStorage, msg: op, err: err}
}

// Classify returns the taxonomy kind for err; unknown errors count as storage
// failures so the boundary answers 500 rather than leaking driver details.
func Classify(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindStorage
}
