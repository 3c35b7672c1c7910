package dto

// Message is a single record delivered by the topic bus to a listener.
// Value holds the raw JSON payload; the listener owns decoding it.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
}
