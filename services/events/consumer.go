package events

import (
	"context"
	"strconv"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/plutushq/leadstream/dto"
	"github.com/plutushq/leadstream/interfaces"
	"github.com/plutushq/leadstream/internal/logger"
)

type ConsumerConfig struct {
	Brokers           []string
	ClientID          string
	MaxHandlerRetries int
	RetryBackoffMin   time.Duration
	RetryBackoffMax   time.Duration
}

// consumerClient abstracts the kafka client methods used by the consumer loop
// for testing.
type consumerClient interface {
	PollFetches(ctx context.Context) kgo.Fetches
	MarkCommitRecords(rs ...*kgo.Record)
	CommitMarkedOffsets(ctx context.Context) error
	Close()
}

// deadLetterPublisher routes records that exhausted their retries.
type deadLetterPublisher interface {
	PublishRaw(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// KafkaConsumer runs the shared poll/handle/commit loop. Offsets advance only
// by explicit commit after the listener reports success, so every message is
// handled at least once. A brand-new consumer group starts from the oldest
// retained offset and replays the topic in full.
type KafkaConsumer struct {
	client    consumerClient
	listener  interfaces.EventListener
	deadLater deadLetterPublisher
	logger    logger.Logger
	config    ConsumerConfig
}

func NewKafkaConsumer(cfg ConsumerConfig, listener interfaces.EventListener, dlq deadLetterPublisher, log logger.Logger) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if listener == nil {
		return nil, errors.New("listener is required")
	}
	if cfg.MaxHandlerRetries <= 0 {
		cfg.MaxHandlerRetries = DefaultMaxHandlerRetries
	}
	if cfg.RetryBackoffMin <= 0 {
		cfg.RetryBackoffMin = DefaultRetryBackoffMin
	}
	if cfg.RetryBackoffMax <= 0 {
		cfg.RetryBackoffMax = DefaultRetryBackoffMax
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.ConsumerGroup(listener.ConsumerGroup()),
		kgo.ConsumeTopics(listener.Topic()),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "kafka consumer client")
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), DefaultStartupTimeout)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "kafka unreachable")
	}

	return &KafkaConsumer{
		client:    client,
		listener:  listener,
		deadLater: dlq,
		logger:    log,
		config:    cfg,
	}, nil
}

// Start blocks until ctx is cancelled. The in-flight record is allowed to
// finish before the loop observes cancellation; nothing is committed after
// that point.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Infof("consumer group %s listening on topic %s", c.listener.ConsumerGroup(), c.listener.Topic())

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}

		for _, fetchErr := range fetches.Errors() {
			if errors.Is(fetchErr.Err, context.Canceled) {
				continue
			}
			// Transport-level failure: log, never commit, keep polling.
			c.logger.Errorf("fetch error on %s[%d]: %v", fetchErr.Topic, fetchErr.Partition, fetchErr.Err)
		}

		fetches.EachRecord(func(record *kgo.Record) {
			if ctx.Err() != nil {
				return
			}
			c.handleRecord(ctx, record)
		})

		if ctx.Err() != nil {
			c.logger.Infof("consumer group %s stopping", c.listener.ConsumerGroup())
			return ctx.Err()
		}
	}
}

func (c *KafkaConsumer) handleRecord(ctx context.Context, record *kgo.Record) {
	msg := dto.Message{
		Topic:     record.Topic,
		Partition: record.Partition,
		Offset:    record.Offset,
		Key:       record.Key,
		Value:     record.Value,
		Headers:   make(map[string]string, len(record.Headers)),
	}
	for _, h := range record.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}

	handleErr := c.handleWithRetries(ctx, msg)
	if handleErr != nil {
		if ctx.Err() != nil {
			// Shutdown interrupted the retries; leave the offset
			// uncommitted so the record is redelivered.
			return
		}
		if err := c.deadLetter(ctx, record, handleErr); err != nil {
			c.logger.Errorf("dead-letter publish failed for %s[%d]@%d, offset left uncommitted: %v",
				record.Topic, record.Partition, record.Offset, err)
			return
		}
		c.logger.Warnf("routed %s[%d]@%d to %s after %d attempts: %v",
			record.Topic, record.Partition, record.Offset, DeadLetterTopic(record.Topic),
			c.config.MaxHandlerRetries, handleErr)
	}

	c.client.MarkCommitRecords(record)
	if err := c.client.CommitMarkedOffsets(ctx); err != nil {
		c.logger.Errorf("offset commit failed for %s[%d]@%d: %v",
			record.Topic, record.Partition, record.Offset, err)
	}
}

func (c *KafkaConsumer) handleWithRetries(ctx context.Context, msg dto.Message) error {
	b := &backoff.Backoff{
		Min:    c.config.RetryBackoffMin,
		Max:    c.config.RetryBackoffMax,
		Factor: 2,
	}

	var err error
	for attempt := 1; attempt <= c.config.MaxHandlerRetries; attempt++ {
		err = c.handleOne(ctx, msg)
		if err == nil {
			return nil
		}
		c.logger.Warnf("handler failed for %s[%d]@%d (attempt %d/%d): %v",
			msg.Topic, msg.Partition, msg.Offset, attempt, c.config.MaxHandlerRetries, err)
		if attempt == c.config.MaxHandlerRetries {
			break
		}
		select {
		case <-time.After(b.Duration()):
		case <-ctx.Done():
			return err
		}
	}
	return err
}

func (c *KafkaConsumer) handleOne(ctx context.Context, msg dto.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("listener panic: %v", r)
		}
	}()
	return c.listener.Handle(ctx, msg)
}

func (c *KafkaConsumer) deadLetter(ctx context.Context, record *kgo.Record, handleErr error) error {
	if c.deadLater == nil {
		return errors.New("no dead-letter publisher configured")
	}

	headers := map[string]string{
		HeaderOriginalTopic: record.Topic,
		HeaderErrorMessage:  handleErr.Error(),
		HeaderRetryCount:    strconv.Itoa(c.config.MaxHandlerRetries),
		HeaderFailedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	for _, h := range record.Headers {
		if h.Key == HeaderCorrelationID || h.Key == HeaderEventType {
			headers[h.Key] = string(h.Value)
		}
	}

	return c.deadLater.PublishRaw(ctx, DeadLetterTopic(record.Topic), record.Key, record.Value, headers)
}

func (c *KafkaConsumer) Close() error {
	c.client.Close()
	return nil
}
