package fnboot

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Disposable is implemented by services that own a resource which must be
// released synchronously when their lifetime ends.
//
// Example:
//
//	type Connection struct {
//	    conn net.Conn
//	}
//
//	func (c *Connection) Close() error {
//	    return c.conn.Close()
//	}
type Disposable interface {
	Close() error
}

// DisposableWithContext is implemented by services whose release may block on
// I/O, such as flushing a buffer to a remote endpoint. It is the asynchronous
// form of Disposable: callers that cannot wait for it (synchronous handlers)
// skip it and report a warning instead.
//
// Example:
//
//	func (c *Client) Close(ctx context.Context) error {
//	    done := make(chan error, 1)
//	    go func() { done <- c.flush() }()
//
//	    select {
//	    case err := <-done:
//	        return err
//	    case <-ctx.Done():
//	        return ctx.Err()
//	    }
//	}
type DisposableWithContext interface {
	Close(ctx context.Context) error
}

// IsDisposable reports whether v satisfies either disposal capability.
func IsDisposable(v any) bool {
	switch v.(type) {
	case Disposable, DisposableWithContext:
		return true
	default:
		return false
	}
}

// dispose releases v with the capability it declares. Panics raised by Close
// are returned as errors so a single faulty instance cannot stop the disposal
// of the others. The returned bool is false when v is not disposable.
func dispose(ctx context.Context, v any) (disposed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			disposed = true
			err = DisposePanicError{Instance: fmt.Sprintf("%T", v), Panic: r, Stack: debug.Stack()}
		}
	}()

	switch d := v.(type) {
	case DisposableWithContext:
		return true, d.Close(ctx)
	case Disposable:
		return true, d.Close()
	default:
		return false, nil
	}
}
