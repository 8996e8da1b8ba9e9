package ports

import "context"

// NotificationQueue publishes asynchronous events (confirmation emails and
// the like) with at-least-once delivery. The core never waits for the
// downstream consumer; a publish failure must not fail the triggering
// request.
type NotificationQueue interface {
	Enqueue(ctx context.Context, event string, payload any) error
}
