package silo

import "fmt"

// Kind classifies errors produced by the silo layer.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidQuery
	KindInvalidArgument
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindInvalidQuery:
		return "invalid-query"
	case KindInvalidArgument:
		return "invalid-argument"
	case KindIO:
		return "io-failed"
	}
	return "unknown"
}

// Error carries a kind plus a human-readable message. Callers match on the
// kind via errors.Is against the exported sentinels below.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Is reports a match when the target is an *Error of the same kind, so
// errors.Is(err, ErrNotFound) works regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound        = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrInvalidQuery    = &Error{Kind: KindInvalidQuery, Msg: "invalid query"}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument, Msg: "invalid argument"}
	ErrIO              = &Error{Kind: KindIO, Msg: "io failed"}
)

func notFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func invalidQueryf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidQuery, Msg: fmt.Sprintf(format, args...)}
}

func invalidArgf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func ioFailedf(format string, args ...any) *Error {
	return &Error{Kind: KindIO, Msg: fmt.Sprintf(format, args...)}
}
