package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
)

// Kind classifies a failed request.
type Kind int

const (
	KindUnknown Kind = iota
	KindRequestFailed
	KindMalformedResponse
	KindTransport
)

// Sentinels for errors.Is. Every *Error matches exactly one of them.
var (
	ErrUnknown           = errors.New("unknown error")
	ErrRequestFailed     = errors.New("request failed")
	ErrMalformedResponse = errors.New("malformed response")
	ErrTransport         = errors.New("transport error")
)

func (k Kind) String() string {
	switch k {
	case KindRequestFailed:
		return "RequestFailed"
	case KindMalformedResponse:
		return "MalformedResponse"
	case KindTransport:
		return "TransportError"
	default:
		return "UnknownError"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindRequestFailed:
		return ErrRequestFailed
	case KindMalformedResponse:
		return ErrMalformedResponse
	case KindTransport:
		return ErrTransport
	default:
		return ErrUnknown
	}
}

// Error is a classified request failure. Status is the HTTP status for
// KindRequestFailed and zero otherwise.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Kind, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind.sentinel() }

// KindOf returns the classification of err, or KindUnknown.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

func requestFailed(status int, err error) *Error {
	return &Error{Kind: KindRequestFailed, Status: status, Err: err}
}

func malformed(err error) *Error {
	return &Error{Kind: KindMalformedResponse, Err: err}
}

// transportOrUnknown classifies an error from sending a request or reading
// its body.
func transportOrUnknown(err error) *Error {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return &Error{Kind: KindTransport, Err: err}
	default:
		return &Error{Kind: KindUnknown, Err: err}
	}
}
