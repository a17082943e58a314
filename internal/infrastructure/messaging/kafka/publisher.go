package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mommyshops/irae/internal/config"
	"github.com/mommyshops/irae/internal/ingredient"
	apperrors "github.com/mommyshops/irae/internal/platform/errors"
	"github.com/mommyshops/irae/internal/platform/logging"
)

// writerAPI abstracts *kafka.Writer so tests can substitute a fake.
type writerAPI interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements dualstore.ReconciliationPublisher by emitting
// mirror.write_failed events onto the reconcile topic.
type Publisher struct {
	writer writerAPI
	topic  string
	log    logging.Logger
}

// NewPublisher constructs a Publisher from configuration.
func NewPublisher(cfg config.KafkaConfig, log logging.Logger) *Publisher {
	if log == nil {
		log = logging.Default()
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultReconcileTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.ProducerRetries + 1,
		BatchSize:    maxInt(cfg.BatchSize, 1),
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 10 * time.Second,
	}
	return &Publisher{writer: writer, topic: topic, log: log.Named("kafka-publisher")}
}

// NewPublisherWithWriter injects a fake writerAPI; used by tests.
func NewPublisherWithWriter(writer writerAPI, topic string, log logging.Logger) *Publisher {
	if log == nil {
		log = logging.Default()
	}
	return &Publisher{writer: writer, topic: topic, log: log.Named("kafka-publisher")}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// PublishMirrorFailure implements dualstore.ReconciliationPublisher.
func (p *Publisher) PublishMirrorFailure(ctx context.Context, rec ingredient.IngredientRecord, cause error) error {
	env, err := NewMirrorWriteFailedEnvelope(string(rec.CanonicalName), time.Now().UTC(), cause)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to build mirror-failure envelope")
	}
	body, err := json.Marshal(env)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to marshal mirror-failure envelope")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(rec.CanonicalName),
		Value: body,
		Time:  env.Timestamp,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to publish mirror-failure event")
	}
	p.log.Warn("published mirror-write-failed event for reconciliation",
		logging.String("canonical_name", string(rec.CanonicalName)))
	return nil
}

// Close releases the underlying writer.
func (p *Publisher) Close() error { return p.writer.Close() }
