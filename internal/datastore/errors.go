package datastore

import (
	"errors"
)

// Kind classifies gateway failures.
type Kind int

const (
	// KindNotFound means the config file does not exist.
	KindNotFound Kind = iota + 1
	// KindIO covers every read, write and mkdir failure.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindIO:
		return "io_failure"
	default:
		return "unknown"
	}
}

// ErrNotFound matches any *Error of KindNotFound via errors.Is.
var ErrNotFound = errors.New("Config file not found")

// Error is returned by every Gateway operation. Error() yields the flat
// string the front-end sees.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == KindNotFound {
		return ErrNotFound.Error()
	}
	if e.Err == nil {
		return "i/o failure"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Kind == KindNotFound
}

// KindOf returns the Kind of a gateway error, or 0 if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func notFound(op, path string) error {
	return &Error{Kind: KindNotFound, Op: op, Path: path}
}

func ioFailure(op, path string, err error) error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}
