package function

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// queue is an in-memory message queue with a single consuming function.
// Messages that still fail after the retry policy is exhausted are kept as
// dead letters.
type queue struct {
	name     string
	fn       *Function
	messages chan *Message

	mu          sync.Mutex
	deadLetters []*Message
}

func newQueue(name string, fn *Function, buffer int) *queue {
	return &queue{
		name:     name,
		fn:       fn,
		messages: make(chan *Message, buffer),
	}
}

// Enqueue adds a message to the named queue. It blocks while the queue is
// full, until ctx ends or the app stops.
func (a *App) Enqueue(ctx context.Context, name string, body []byte) (*Message, error) {
	a.mu.RLock()
	q, ok := a.queues[name]
	stopped := a.stopped
	a.mu.RUnlock()

	if stopped {
		return nil, ErrAppStopped
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrQueueNotFound, name)
	}

	msg := &Message{
		ID:         uuid.NewString(),
		Queue:      name,
		Body:       body,
		EnqueuedAt: time.Now(),
	}

	select {
	case q.messages <- msg:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-a.done:
		return nil, ErrAppStopped
	}
}

// DeadLetters returns the messages of the named queue that exhausted their
// retries.
func (a *App) DeadLetters(name string) []*Message {
	a.mu.RLock()
	q, ok := a.queues[name]
	a.mu.RUnlock()
	if !ok {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*Message(nil), q.deadLetters...)
}

func (a *App) consume(q *queue) {
	defer a.wg.Done()

	for {
		select {
		case <-a.done:
			return
		case msg := <-q.messages:
			a.deliver(q, msg)
		}
	}
}

func (a *App) deliver(q *queue, msg *Message) {
	err := a.runWithRetry(q.fn, func(attempt int) error {
		msg.DequeueCount = attempt
		inv := NewInvocation()
		inv.Message = msg
		_, err := a.safeInvoke(q.fn, inv)
		return err
	})
	if err == nil {
		return
	}

	q.mu.Lock()
	q.deadLetters = append(q.deadLetters, msg)
	q.mu.Unlock()

	a.logger.Error("queue message moved to dead letters",
		"function", q.fn.Name,
		"queue", q.name,
		"message", msg.ID,
		"dequeue_count", msg.DequeueCount,
		"error", err)
}
