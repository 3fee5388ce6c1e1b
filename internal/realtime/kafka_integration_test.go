package realtime

import (
	"context"
	"fmt"
	"testing"
	"time"

	d "github.com/fjod/foodcart/domain"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestPublisherToHub_ThroughKafka(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	brokerAddr, cleanup := setupKafka(t)
	defer cleanup()

	const topic = "order-changes-test"
	createTopic(t, brokerAddr, topic)
	time.Sleep(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:     []string{brokerAddr},
		Topic:       topic,
		GroupID:     "hub-test",
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkaGo.FirstOffset,
	})
	hub := NewHub(reader, nil)
	sub := hub.Subscribe(Filter{OrderID: 11}, 4)
	go func() { _ = hub.Run(ctx) }()

	writer := NewKafkaWriter(topic, brokerAddr)
	writer.WriteTimeout = 10 * time.Second
	publisher := NewPublisher(writer)
	defer publisher.Close()

	require.NoError(t, publisher.Publish(ctx, change(d.ChangeInsert, 10, d.OrderStatusNew)))
	require.NoError(t, publisher.Publish(ctx, change(d.ChangeUpdate, 11, d.OrderStatusCooking)))

	select {
	case got := <-sub.C:
		assert.Equal(t, int64(11), got.Order.ID)
		assert.Equal(t, d.ChangeUpdate, got.Event)
	case <-ctx.Done():
		t.Fatal("change not delivered through kafka")
	}
}
