package main

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

type ExampleService interface {
	Describe(ctx context.Context, param string) (string, error)
}

type exampleService struct {
	client *ExampleClient
}

func NewExampleService(client *ExampleClient) *exampleService {
	return &exampleService{client: client}
}

func (s *exampleService) Describe(ctx context.Context, param string) (string, error) {
	select {
	case <-time.After(5 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return s.client.Echo(param), nil
}

// Notifier is multi-bound: every registered implementation is notified.
type Notifier interface {
	Notify(ctx context.Context, event string)
}

type logNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *logNotifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Notify(ctx context.Context, event string) {
	n.logger.InfoContext(ctx, "event", "name", event)
}

type countingNotifier struct {
	count atomic.Int64
}

func NewCountingNotifier() *countingNotifier {
	return &countingNotifier{}
}

func (n *countingNotifier) Notify(context.Context, string) {
	n.count.Add(1)
}

// Count returns the number of events seen.
func (n *countingNotifier) Count() int64 {
	return n.count.Load()
}

// Auditor fans events out to every Notifier.
type Auditor struct {
	notifiers []Notifier
}

func NewAuditor(notifiers []Notifier) *Auditor {
	return &Auditor{notifiers: notifiers}
}

func (a *Auditor) Record(ctx context.Context, event string) {
	for _, n := range a.notifiers {
		n.Notify(ctx, event)
	}
}
