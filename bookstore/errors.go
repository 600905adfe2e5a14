package bookstore

import (
	"errors"
	"fmt"
)

// Kind classifies every error returned by the ledger engine.
type Kind int

const (
	// KindInternal covers unexpected failures; the cause is kept in Err.
	KindInternal Kind = iota
	KindNotFound
	KindInsufficientQuantity
	KindInvalidField
	KindFileOperation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInsufficientQuantity:
		return "insufficient quantity"
	case KindInvalidField:
		return "invalid field"
	case KindFileOperation:
		return "file operation"
	default:
		return "internal"
	}
}

// Error implements error so a Kind can be used as an errors.Is target:
//
//	errors.Is(err, bookstore.KindNotFound)
func (k Kind) Error() string { return "bookstore: " + k.String() }

// ErrMalformedSnapshot is the cause of a KindFileOperation error raised when a
// data file exists but its content cannot be decoded. A missing file wraps
// fs.ErrNotExist instead.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Error is the single error type of the package.
type Error struct {
	Kind Kind
	// Entity names the record type involved ("item", "staff", ...), if any.
	Entity string
	// Field is set for KindInvalidField.
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	msg := "bookstore: " + e.Kind.String()
	if e.Entity != "" {
		msg += ": " + e.Entity
	}
	if e.Field != "" {
		msg += "." + e.Field
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the Kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the Kind of err, or KindInternal when err was not produced by
// this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func notFound(entity string, id int64) error {
	return &Error{Kind: KindNotFound, Entity: entity, Msg: fmt.Sprintf("id %d does not exist", id)}
}

func insufficient(id int64, have, want int) error {
	return &Error{
		Kind:   KindInsufficientQuantity,
		Entity: "item",
		Msg:    fmt.Sprintf("id %d has %d in stock, %d requested", id, have, want),
	}
}

func invalidField(entity, field, msg string) error {
	return &Error{Kind: KindInvalidField, Entity: entity, Field: field, Msg: msg}
}

func fileError(msg string, err error) error {
	return &Error{Kind: KindFileOperation, Msg: msg, Err: err}
}

func malformed(path string, err error) error {
	return fileError(path, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err))
}

// wrapInternal classifies err as KindInternal unless it already carries a kind.
func wrapInternal(msg string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}
