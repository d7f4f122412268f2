package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/khoahotran/talent-portfolio/internal/application/service"
	"github.com/khoahotran/talent-portfolio/internal/config"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducerClient struct {
	SnapshotEventsWriter messageWriter
	BankEventsWriter     messageWriter
}

func NewKafkaProducerClient(cfg config.Config) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	snapshotWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    TopicSnapshotEvents,
		Balancer: &kafka.LeastBytes{},
	}

	bankWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    TopicBankEvents,
		Balancer: &kafka.LeastBytes{},
	}

	return &KafkaProducerClient{
		SnapshotEventsWriter: snapshotWriter,
		BankEventsWriter:     bankWriter,
	}, nil
}

type envelope struct {
	EventType string `json:"event_type"`
	Data      any    `json:"data"`
}

func (c *KafkaProducerClient) PublishSnapshotCreated(ctx context.Context, e service.SnapshotCreatedEvent) error {
	return publish(ctx, c.SnapshotEventsWriter, e.OwnerID.String(), SnapshotEventTypeCreated, e)
}

func (c *KafkaProducerClient) PublishBankItemCreated(ctx context.Context, e service.BankItemCreatedEvent) error {
	return publish(ctx, c.BankEventsWriter, e.OwnerID.String(), BankEventTypeItemCreated, e)
}

func publish(ctx context.Context, w messageWriter, key, eventType string, data any) error {
	if w == nil {
		return fmt.Errorf("kafka writer for %s is not configured", eventType)
	}
	value, err := json.Marshal(envelope{EventType: eventType, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		return fmt.Errorf("failed to write %s event: %w", eventType, err)
	}
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.SnapshotEventsWriter != nil {
		c.SnapshotEventsWriter.Close()
	}
	if c.BankEventsWriter != nil {
		c.BankEventsWriter.Close()
	}
}

var _ service.EventPublisher = (*KafkaProducerClient)(nil)
