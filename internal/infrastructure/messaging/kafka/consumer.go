package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mommyshops/irae/internal/config"
	apperrors "github.com/mommyshops/irae/internal/platform/errors"
	"github.com/mommyshops/irae/internal/platform/logging"
)

// readerAPI abstracts *kafka.Reader so tests can substitute a fake.
type readerAPI interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes a single mirror.write_failed payload, retrying the
// document-store write; a returned error makes the Consumer retry it with
// backoff, and the message is committed once retries are exhausted.
type Handler func(ctx context.Context, payload MirrorWriteFailedPayload) error

// Consumer drains the reconcile topic for cmd/reconciler.
type Consumer struct {
	reader  readerAPI
	handler Handler
	log     logging.Logger

	retryMaxAttempts int
	retryBaseDelay   time.Duration
}

// NewConsumer constructs a Consumer from configuration.
func NewConsumer(cfg config.KafkaConfig, rcfg config.ReconcilerConfig, handler Handler, log logging.Logger) *Consumer {
	if log == nil {
		log = logging.Default()
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultReconcileTopic
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   topic,
		GroupID: cfg.GroupID,
	})
	return &Consumer{
		reader:           reader,
		handler:          handler,
		log:              log.Named("kafka-reconciler-consumer"),
		retryMaxAttempts: rcfg.RetryMaxAttempts,
		retryBaseDelay:   rcfg.RetryBaseDelay,
	}
}

// NewConsumerWithReader injects a fake readerAPI; used by tests.
func NewConsumerWithReader(reader readerAPI, handler Handler, maxAttempts int, baseDelay time.Duration, log logging.Logger) *Consumer {
	if log == nil {
		log = logging.Default()
	}
	return &Consumer{reader: reader, handler: handler, log: log.Named("kafka-reconciler-consumer"),
		retryMaxAttempts: maxAttempts, retryBaseDelay: baseDelay}
}

// Run drains the topic until ctx is cancelled, retrying each message's
// handler with exponential backoff before giving up and committing it
// anyway (a permanently-broken mirror write must not wedge the topic).
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return apperrors.Wrap(err, apperrors.CodeInternal, "failed to fetch reconcile message")
		}

		var env EventEnvelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			c.log.Error("discarding malformed reconcile event", logging.Err(err))
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		payload, err := DecodeMirrorWriteFailed(env)
		if err != nil {
			c.log.Error("discarding reconcile event with unparseable payload", logging.Err(err))
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		c.processWithRetry(ctx, payload)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("failed to commit reconcile message", logging.Err(err))
		}
	}
}

func (c *Consumer) processWithRetry(ctx context.Context, payload MirrorWriteFailedPayload) {
	maxAttempts := c.retryMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	delay := c.retryBaseDelay
	if delay <= 0 {
		delay = time.Second
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.handler(ctx, payload); err == nil {
			return
		} else if attempt == maxAttempts {
			c.log.Error("reconciliation handler exhausted retries, giving up",
				logging.String("canonical_name", payload.CanonicalName), logging.Int("attempts", attempt), logging.Err(err))
			return
		} else {
			c.log.Warn("reconciliation handler failed, retrying",
				logging.String("canonical_name", payload.CanonicalName), logging.Int("attempt", attempt), logging.Err(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// Close releases the underlying reader.
func (c *Consumer) Close() error { return c.reader.Close() }
