package repository

import (
	"context"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	"BrentCast/pkg/kafka"
	applogger "BrentCast/pkg/logger"
)

// KafkaPublisher announces persisted models on a Kafka topic, keyed by model id.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	l        *applogger.Logger
}

var _ domrepo.EventPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(p *kafka.Producer, topic string, l *applogger.Logger) *KafkaPublisher {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaPublisher{producer: p, topic: topic, l: l}
}

func (k *KafkaPublisher) PublishModelTrained(ctx context.Context, evt models.ModelTrainedEvent) error {
	err := k.producer.Publish(ctx, k.topic, []byte(evt.ModelID), evt,
		kafka.Header{Key: "event", Value: "model.trained"},
		kafka.Header{Key: "schema_version", Value: "1"},
	)
	if err != nil {
		k.l.Error("publish model trained failed", applogger.String("topic", k.topic), applogger.Error(err))
		return err
	}
	k.l.Debug("model trained event published", applogger.String("topic", k.topic), applogger.String("model_id", evt.ModelID))
	return nil
}

func (k *KafkaPublisher) Close() error { return k.producer.Close() }

// NoopPublisher drops events when Kafka is disabled.
type NoopPublisher struct{}

var _ domrepo.EventPublisher = NoopPublisher{}

func (NoopPublisher) PublishModelTrained(context.Context, models.ModelTrainedEvent) error { return nil }
func (NoopPublisher) Close() error { return nil }
