package repository

import (
	"context"

	"QuantPulse/internal/domain/models"
	pkgkafka "QuantPulse/pkg/kafka"
)

const defaultSignalTopic = "quantpulse.signals"

// KafkaSignalPublisher exports persisted signals to a Kafka topic for
// downstream consumers. Messages are keyed by symbol so one symbol's
// signals stay ordered on a single partition.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	if topic == "" {
		topic = defaultSignalTopic
	}
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, sig *models.Signal) error {
	return p.producer.Publish(ctx, p.topic, []byte(sig.Symbol), sig)
}

func (p *KafkaSignalPublisher) Close() error {
	return p.producer.Close()
}

// NoopSignalPublisher stands in when Kafka export is disabled.
type NoopSignalPublisher struct{}

func NewNoopSignalPublisher() *NoopSignalPublisher { return &NoopSignalPublisher{} }

func (NoopSignalPublisher) Publish(context.Context, *models.Signal) error { return nil }

func (NoopSignalPublisher) Close() error { return nil }
