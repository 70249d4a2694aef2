package function

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Trigger kinds known to the host.
const (
	KindRoute = "route"
	KindTimer = "timer_trigger"
	KindQueue = "queue_trigger"
)

// Invocation describes one execution of a function. Exactly one of Request,
// Message and Timer is set, depending on the trigger kind.
type Invocation struct {
	ID           string
	FunctionName string
	Kind         string

	// Request is the inbound HTTP request of a route trigger. Params holds
	// its route parameters.
	Request *http.Request
	Params  map[string]string

	Message *Message
	Timer   *TimerInfo

	ctx context.Context
}

// NewInvocation creates an invocation with a fresh ID.
func NewInvocation() *Invocation {
	return &Invocation{ID: uuid.NewString()}
}

// Context returns the invocation context. It is never nil.
func (inv *Invocation) Context() context.Context {
	if inv.ctx == nil {
		return context.Background()
	}
	return inv.ctx
}

// WithContext returns a shallow copy of inv carrying ctx.
func (inv *Invocation) WithContext(ctx context.Context) *Invocation {
	if ctx == nil {
		panic("nil context")
	}
	cp := *inv
	cp.ctx = ctx
	return &cp
}

// Param returns the named route parameter, or "".
func (inv *Invocation) Param(name string) string {
	return inv.Params[name]
}

// Message is a queue message delivered to a queue trigger.
type Message struct {
	ID           string
	Queue        string
	Body         []byte
	DequeueCount int
	EnqueuedAt   time.Time
}

// TimerInfo describes the firing of a timer trigger.
type TimerInfo struct {
	Schedule  string
	FiredAt   time.Time
	OnStartup bool
}
