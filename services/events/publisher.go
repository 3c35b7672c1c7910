package events

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/plutushq/leadstream/internal/logger"
	"github.com/plutushq/leadstream/internal/tracing"
)

type PublisherConfig struct {
	Brokers        []string
	ClientID       string
	PublishTimeout time.Duration
}

// producerClient abstracts the kafka client methods used by the publisher for
// testing.
type producerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaPublisher appends JSON payloads to topics with idempotent-producer
// semantics: a produce attempt redelivered after a transient broker failure
// does not create a duplicate log entry, and the broker acknowledges only
// after durable replication (acks=all).
type KafkaPublisher struct {
	client producerClient
	logger logger.Logger
	config PublisherConfig
}

func NewKafkaPublisher(cfg PublisherConfig, log logger.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultPublishTimeout
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(10*time.Millisecond),
	)
	if err != nil {
		return nil, errors.Wrap(err, "kafka producer client")
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), DefaultStartupTimeout)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "kafka unreachable")
	}

	return &KafkaPublisher{
		client: client,
		logger: log,
		config: cfg,
	}, nil
}

// Publish marshals payload and produces it synchronously. The error is
// returned to the caller: a listener that fails to publish must report
// handler failure so its source offset stays uncommitted.
func (p *KafkaPublisher) Publish(ctx context.Context, topic string, payload any) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "KafkaPublisher.Publish")
	defer span.Finish()
	tracing.SetDefaultPublisherSpanTags(span)
	tracing.TagTopic(span, topic)

	body, err := json.Marshal(payload)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "marshal payload")
	}

	headers := map[string]string{
		HeaderCorrelationID: uuid.NewString(),
		HeaderEventType:     payloadType(payload),
		HeaderPublishedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if traceID := tracing.ExtractTextMapCarrier(span.Context())[HeaderUberTraceID]; traceID != "" {
		headers[HeaderUberTraceID] = traceID
	}

	if err := p.PublishRaw(ctx, topic, nil, body, headers); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

// PublishRaw produces an already-encoded record. Used directly for
// dead-letter routing, where the original bytes must be preserved.
func (p *KafkaPublisher) PublishRaw(ctx context.Context, topic string, key, value []byte, headers map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, p.config.PublishTimeout)
	defer cancel()

	record := &kgo.Record{
		Topic: topic,
		Key:   key,
		Value: value,
	}
	for k, v := range headers {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return errors.Wrapf(err, "publish to %s", topic)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.client.Close()
	return nil
}

func payloadType(payload any) string {
	t := reflect.TypeOf(payload)
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
