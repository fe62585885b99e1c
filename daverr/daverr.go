package daverr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindBadRequest
	KindPermissionDenied
	KindNotFound
	KindMethodNotAllowed
	KindNotImplemented
	KindConflict
	KindPreconditionFailed
	KindUnsupportedMediaType
	KindRangeNotSatisfiable
	KindLocked
	KindInsufficientStorage
)

var kind2status = map[Kind]int{
	KindBadRequest:           http.StatusBadRequest,
	KindPermissionDenied:     http.StatusForbidden,
	KindNotFound:             http.StatusNotFound,
	KindMethodNotAllowed:     http.StatusMethodNotAllowed,
	KindNotImplemented:       http.StatusNotImplemented,
	KindConflict:             http.StatusConflict,
	KindPreconditionFailed:   http.StatusPreconditionFailed,
	KindUnsupportedMediaType: http.StatusUnsupportedMediaType,
	KindRangeNotSatisfiable:  http.StatusRequestedRangeNotSatisfiable,
	KindLocked:               http.StatusLocked,
	KindInsufficientStorage:  http.StatusInsufficientStorage,
}

type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Kind() Kind {
	return e.kind
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s, err:%v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.err
}

func New(kind Kind, msg string) error {
	return &Error{kind: kind, msg: msg}
}

func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, msg string) error {
	return &Error{kind: kind, msg: msg, err: err}
}

// KindOf walks the error chain and reports the kind of the first
// typed error it finds, KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// StatusOf maps an error to its http status code; untyped errors
// map to 500.
func StatusOf(err error) int {
	if status, ok := kind2status[KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}
