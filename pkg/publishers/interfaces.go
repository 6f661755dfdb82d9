package publishers

import "context"

// Publisher sends events to a downstream sink (SQS, SNS, HTTP, Pub/Sub).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// closer is implemented by publishers holding long-lived clients.
type closer interface {
	Close() error
}
