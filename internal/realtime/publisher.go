// Package realtime carries order row changes over Kafka and fans them out to in-process subscribers.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	d "github.com/fjod/foodcart/domain"
	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "order-changes"

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer MessageWriter
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func NewPublisher(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer}
}

// Publish writes change keyed by order id, so changes to one order stay in order.
func (p *Publisher) Publish(ctx context.Context, change d.OrderChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal order change: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(change.Order.ID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(change.Event)},
			{Key: "table", Value: []byte(change.Table)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write order change: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
