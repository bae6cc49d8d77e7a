package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
)

// messageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards messages to a Kafka topic as JSON, keyed by sender
// so one participant's messages stay on one partition.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

var _ Publisher = (*KafkaPublisher)(nil)

// kafkaEvent is the wire form. It carries createdAt, which chat.Message
// leaves out of its JSON.
type kafkaEvent struct {
	chat.Message
	CreatedAt time.Time `json:"createdAt"`
}

func (p *KafkaPublisher) Publish(ctx context.Context, m chat.Message) error {
	value, err := json.Marshal(kafkaEvent{Message: m, CreatedAt: m.CreatedAt})
	if err != nil {
		return fmt.Errorf("kafka: marshal message: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(m.From),
		Value: value,
		Time:  m.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("kafka: write message: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
