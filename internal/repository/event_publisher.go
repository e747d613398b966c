package repository

import (
	"context"

	"FairVal/internal/domain/models"
	drepo "FairVal/internal/domain/repository"
	pkgkafka "FairVal/pkg/kafka"
)

// KafkaEventPublisher emits lookup audit events to Kafka. It also satisfies
// the log collector's Publisher interface, so aggregated error logs ship
// over the same producer.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a Kafka-backed publisher writing lookup
// events to topic.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

var _ drepo.EventPublisher = (*KafkaEventPublisher)(nil)

func (p *KafkaEventPublisher) Publish(ctx context.Context, ev *models.LookupEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

// PublishMessage sends an arbitrary payload to an arbitrary topic. Used by
// the log collector flush.
func (p *KafkaEventPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
