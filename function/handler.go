package function

import (
	"context"
	"fmt"
	"reflect"
)

// Handler is a context-aware trigger handler. The host waits for it and
// passes it the invocation context, so it may block on I/O and observe
// cancellation. It is the asynchronous handler kind.
type Handler func(ctx context.Context, inv *Invocation) (any, error)

// SyncHandler is a synchronous trigger handler. It receives no context of its
// own; inv.Context() returns the invocation context.
type SyncHandler func(inv *Invocation) (any, error)

// Awaitable is a result that still represents pending work. A SyncHandler
// returning one hands the host something it will never wait for.
type Awaitable interface {
	Wait(ctx context.Context) (any, error)
}

// Decorator registers handler under the trigger configuration it was created
// with.
type Decorator func(handler any) error

// Classify reports which kind handler is. Exactly one of the returned
// handlers is non-nil on success. Both the named handler types and plain
// function literals of the same signatures are accepted.
func Classify(handler any) (Handler, SyncHandler, error) {
	switch h := handler.(type) {
	case Handler:
		if h != nil {
			return h, nil, nil
		}
	case func(context.Context, *Invocation) (any, error):
		if h != nil {
			return h, nil, nil
		}
	case SyncHandler:
		if h != nil {
			return nil, h, nil
		}
	case func(*Invocation) (any, error):
		if h != nil {
			return nil, h, nil
		}
	case nil:
	default:
		return nil, nil, fmt.Errorf("%w: got %s", ErrInvalidHandler, reflect.TypeOf(handler))
	}

	return nil, nil, fmt.Errorf("%w: handler is nil", ErrInvalidHandler)
}

// IsPending reports whether a handler result is still pending work: an
// Awaitable or a channel.
func IsPending(result any) bool {
	if result == nil {
		return false
	}

	if _, ok := result.(Awaitable); ok {
		return true
	}

	return reflect.TypeOf(result).Kind() == reflect.Chan
}
