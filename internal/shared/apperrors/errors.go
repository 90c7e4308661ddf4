// Package apperrors classifies domain errors so transports can map them
// without importing every domain package.
package apperrors

import "errors"

type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindForbidden
	KindNotFound
	KindConflict
	KindPrecondition
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPrecondition:
		return "precondition"
	case KindInvariant:
		return "invariant"
	default:
		return "internal"
	}
}

// Error is implemented by every typed domain error.
type Error interface {
	error
	Kind() Kind
	Code() string
}

// coded is a sentinel with a fixed kind and code.
type coded struct {
	kind Kind
	code string
	msg  string
}

func (e *coded) Error() string { return e.msg }
func (e *coded) Kind() Kind    { return e.kind }
func (e *coded) Code() string  { return e.code }

// New returns a sentinel error carrying a kind and a machine-readable code.
func New(kind Kind, code, msg string) error {
	return &coded{kind: kind, code: code, msg: msg}
}

func NotFound(code, msg string) error     { return New(KindNotFound, code, msg) }
func Conflict(code, msg string) error     { return New(KindConflict, code, msg) }
func Invalid(code, msg string) error      { return New(KindInvalid, code, msg) }
func Forbidden(code, msg string) error    { return New(KindForbidden, code, msg) }
func Precondition(code, msg string) error { return New(KindPrecondition, code, msg) }

// KindOf reports the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var ae Error
	if errors.As(err, &ae) {
		return ae.Kind()
	}
	return KindInternal
}

// CodeOf reports the code of the first classified error in err's chain.
func CodeOf(err error) string {
	var ae Error
	if errors.As(err, &ae) {
		return ae.Code()
	}
	return "INTERNAL_ERROR"
}

func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
func IsInvalid(err error) bool      { return KindOf(err) == KindInvalid }
func IsForbidden(err error) bool    { return KindOf(err) == KindForbidden }
func IsPrecondition(err error) bool { return KindOf(err) == KindPrecondition }
func IsInvariant(err error) bool    { return KindOf(err) == KindInvariant }
