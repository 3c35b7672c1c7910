package events

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/plutushq/leadstream/dto"
)

// BaseEventListener provides the subscription identity shared by all
// listeners.
type BaseEventListener struct {
	topic string
	group string
}

func NewBaseEventListener(topic, group string) BaseEventListener {
	return BaseEventListener{topic: topic, group: group}
}

func (b BaseEventListener) Topic() string {
	return b.topic
}

func (b BaseEventListener) ConsumerGroup() string {
	return b.group
}

// DecodeMessage unmarshals a message body into the expected event type. A
// body that does not match the schema is a handler failure and ends up in the
// dead-letter topic once retries are exhausted.
func DecodeMessage[T any](msg dto.Message) (T, error) {
	var decoded T
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		return decoded, errors.Wrapf(err, "decode %s message at offset %d", msg.Topic, msg.Offset)
	}
	return decoded, nil
}
