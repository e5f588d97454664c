package port

import "context"

// StatusPublisher emits extraction job status updates (processing,
// completed, failed) for whoever is waiting on the dataset.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg []byte) error
}

// DLQPublisher parks extraction requests that will never succeed, with
// a reason operators can act on. Malformed messages, invalid sampling
// config and exhausted retries all end up here.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}
