package queue

import "context"

// Job consumes messages of a single type pulled off the queue.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Type is the message type this job is registered for.
	Type() string

	// Handle processes one message payload. Returning an error schedules a retry.
	Handle(ctx context.Context, payload interface{}) error
}
