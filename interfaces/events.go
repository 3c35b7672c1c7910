package interfaces

import (
	"context"

	"github.com/plutushq/leadstream/dto"
)

type EventPublisher interface {
	// Publish appends the JSON-encoded payload to the topic. The error is
	// surfaced to the caller so a consuming listener can withhold its offset
	// commit when a downstream publish fails.
	Publish(ctx context.Context, topic string, payload any) error
	Close() error
}

type EventListener interface {
	Handle(ctx context.Context, msg dto.Message) error
	Topic() string
	ConsumerGroup() string
}

type EventConsumer interface {
	// Start blocks in the poll/handle/commit loop until ctx is cancelled.
	Start(ctx context.Context) error
	Close() error
}
