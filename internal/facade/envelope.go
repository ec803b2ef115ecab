package facade

import (
	"errors"
	"fmt"
)

// Kind classifies a failed operation.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindImportFormat Kind = "import_format"
	KindStorage      Kind = "storage"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrImportFormat       = errors.New("invalid import format")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Error is a classified operation failure. Message is short and safe to show
// to a user; Err holds the lower-layer cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() []error {
	errs := []error{e.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	case KindImportFormat:
		return ErrImportFormat
	default:
		return ErrStorageUnavailable
	}
}

func notFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func invalid(what string, err error) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf("Invalid %s: %v", what, err), Err: err}
}

func badImport(err error) *Error {
	return &Error{Kind: KindImportFormat, Message: fmt.Sprintf("Invalid import file: %v", err), Err: err}
}

// Envelope is the uniform result of every facade operation.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitzero"`
	Error   string `json:"error,omitempty"`
	Code    Kind   `json:"code,omitempty"`
}

// Err returns nil for a successful envelope and an *Error otherwise.
func (e Envelope[T]) Err() error {
	if e.Success {
		return nil
	}
	return &Error{Kind: e.Code, Message: e.Error}
}

// Empty is the payload of operations that return no data.
type Empty = struct{}

// run executes fn and converts its outcome into an envelope. Unclassified
// errors and panics become a storage failure carrying failMsg; the cause is
// logged, never returned.
func run[T any](f *Facade, op, failMsg string, fn func() (T, error)) (env Envelope[T]) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("facade operation panicked", "op", op, "panic", r)
			env = Envelope[T]{Error: failMsg, Code: KindStorage}
		}
	}()

	v, err := fn()
	if err == nil {
		return Envelope[T]{Success: true, Data: v}
	}

	var ferr *Error
	if errors.As(err, &ferr) {
		if ferr.Kind == KindStorage {
			f.logger.Error("facade operation failed", "op", op, "error", ferr.Err)
		} else {
			f.logger.Debug("facade operation rejected", "op", op, "kind", ferr.Kind, "error", ferr.Message)
		}
		return Envelope[T]{Error: ferr.Message, Code: ferr.Kind}
	}

	f.logger.Error("facade operation failed", "op", op, "error", err)
	return Envelope[T]{Error: failMsg, Code: KindStorage}
}
