package errors

import (
	"errors"
	"fmt"
)

// Kind represents the category of error
type Kind string

const (
	// KindSocket indicates a transport failure. Never fatal to the
	// process; the connection retries via its reconnect policy.
	KindSocket Kind = "Socket"

	// KindProtocol indicates a server-sent ERROR line
	KindProtocol Kind = "Protocol"

	// KindKeepalive indicates a missed PONG within the response window
	KindKeepalive Kind = "Keepalive"

	// KindHandler indicates a failure raised by a command, reply, join or
	// tick handler. Caught by the shared handler; never terminates the
	// receive loop or the tick timer.
	KindHandler Kind = "Handler"

	// KindDispatch indicates a command lookup that matched zero or more
	// than one registered name. Dropped silently, not surfaced to the user.
	KindDispatch Kind = "Dispatch"
)

// BotError is a structured error carrying its category and an optional cause
type BotError struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *BotError) Unwrap() error {
	return e.Err
}

// NewSocketError wraps a transport failure from the wire socket
func NewSocketError(op string, err error) *BotError {
	return &BotError{
		Kind:    KindSocket,
		Message: op,
		Err:     err,
	}
}

// NewProtocolError records a server-sent ERROR line
func NewProtocolError(line string) *BotError {
	return &BotError{
		Kind:    KindProtocol,
		Message: line,
	}
}

// NewKeepaliveError records a keepalive round-trip timeout
func NewKeepaliveError(host string) *BotError {
	return &BotError{
		Kind:    KindKeepalive,
		Message: fmt.Sprintf("no PONG from %s within the response window", host),
	}
}

// NewHandlerError wraps a failure raised by a dispatch handler
func NewHandlerError(context string, err error) *BotError {
	return &BotError{
		Kind:    KindHandler,
		Message: context,
		Err:     err,
	}
}

// NewDispatchError records a command lookup that resolved to anything
// other than exactly one registered name.
func NewDispatchError(name string, matches int) *BotError {
	return &BotError{
		Kind:    KindDispatch,
		Message: fmt.Sprintf("command %q matched %d registered names", name, matches),
	}
}

// IsKind reports whether err is a BotError of the given kind
func IsKind(err error, kind Kind) bool {
	var botErr *BotError
	if errors.As(err, &botErr) {
		return botErr.Kind == kind
	}
	return false
}

// AsBotError attempts to convert an error to a BotError
func AsBotError(err error) (*BotError, bool) {
	var botErr *BotError
	ok := errors.As(err, &botErr)
	return botErr, ok
}
