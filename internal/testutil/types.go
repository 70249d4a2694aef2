package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Common test errors
var (
	ErrTest        = errors.New("test error")
	ErrConstructor = errors.New("constructor error")
	ErrDisposal    = errors.New("disposal error")
)

// DisposeLog records the order in which fixtures are disposed.
type DisposeLog struct {
	mu    sync.Mutex
	names []string
}

func (l *DisposeLog) Add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
}

func (l *DisposeLog) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

// Resource is a synchronously disposable fixture.
type Resource struct {
	ID     string
	Name   string
	Err    error // returned by Close
	Log    *DisposeLog
	closed atomic.Int32
}

func NewResource(name string) *Resource {
	return &Resource{ID: uuid.NewString(), Name: name}
}

func (r *Resource) Close() error {
	r.closed.Add(1)
	if r.Log != nil {
		r.Log.Add(r.Name)
	}
	return r.Err
}

// Closed returns how many times Close was called.
func (r *Resource) Closed() int {
	return int(r.closed.Load())
}

// AsyncResource is disposed with a context.
type AsyncResource struct {
	ID     string
	Name   string
	Err    error
	Log    *DisposeLog
	closed atomic.Int32

	mu     sync.Mutex
	ctxErr error // ctx.Err() observed by Close
}

func NewAsyncResource(name string) *AsyncResource {
	return &AsyncResource{ID: uuid.NewString(), Name: name}
}

func (r *AsyncResource) Close(ctx context.Context) error {
	r.closed.Add(1)
	r.mu.Lock()
	r.ctxErr = ctx.Err()
	r.mu.Unlock()
	if r.Log != nil {
		r.Log.Add(r.Name)
	}
	return r.Err
}

func (r *AsyncResource) Closed() int {
	return int(r.closed.Load())
}

// CloseContextErr returns the error of the context Close last received.
func (r *AsyncResource) CloseContextErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctxErr
}

// PanickingResource panics when closed.
type PanickingResource struct{}

func (PanickingResource) Close() error {
	panic("close exploded")
}

// Plain is a fixture that is not disposable.
type Plain struct {
	ID string
}

func NewPlain() *Plain {
	return &Plain{ID: uuid.NewString()}
}

// Counter counts factory calls.
type Counter struct {
	n atomic.Int64
}

func (c *Counter) Inc() int64 {
	return c.n.Add(1)
}

func (c *Counter) Load() int64 {
	return c.n.Load()
}
