package kafka

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"quest-go/internal/config"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// MessageProducer sends raw payloads to a topic and waits for the delivery report.
type MessageProducer interface {
	SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error
	Close()
}

type confluentProducer struct {
	producer *kafka.Producer
}

// NewConfluentKafkaProducer creates a producer from the KAFKA config section.
func NewConfluentKafkaProducer(cfg config.KafkaConfig) (MessageProducer, error) {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers": strings.Join(cfg.Brokers, ","),
		"security.protocol": cfg.Protocol,
		"acks":              "all",
	}
	if cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", cfg.ClientID)
	}

	p, err := kafka.NewProducer(configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return &confluentProducer{producer: p}, nil
}

// SendMessage enqueues one message and blocks until it is acknowledged,
// the delivery fails, or ctx is done.
func (p *confluentProducer) SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error {
	deliveryChan := make(chan kafka.Event, 1)

	err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            key,
		Value:          payload,
		Timestamp:      time.Now(),
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("kafka producer failed to enqueue message for topic %s: %w", topic, err)
	}

	select {
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("kafka producer: unexpected delivery event %T: %v", e, e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("kafka producer: delivery failed for topic %s: %w", topic, m.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		// 消息可能仍会送达，只是不再等待回执
		return fmt.Errorf("kafka producer: gave up waiting for delivery report on %s: %w", topic, ctx.Err())
	}
}

// Close flushes outstanding messages (up to 15s) and releases the producer.
func (p *confluentProducer) Close() {
	if p.producer == nil {
		return
	}
	if remaining := p.producer.Flush(15 * 1000); remaining > 0 {
		log.Printf("警告: Kafka 生产者关闭时仍有 %d 条消息未送达", remaining)
	}
	p.producer.Close()
	p.producer = nil
	log.Println("Kafka 生产者已关闭。")
}
