package kafka

import (
	"context"
	"fmt"
	"log"
	"strings"

	"quest-go/internal/config"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// MessageHandler processes one consumed message. Returning nil commits its offset.
type MessageHandler func(ctx context.Context, msg *kafka.Message) error

// MessageConsumer defines a blocking consume loop.
type MessageConsumer interface {
	Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error
	Close()
}

type confluentConsumer struct {
	cfg      config.KafkaConfig
	consumer *kafka.Consumer
	groupID  string
}

// NewConfluentKafkaConsumer 只保存配置，真正的消费者在 Consume 中按 groupID 创建。
func NewConfluentKafkaConsumer(cfg config.KafkaConfig) (MessageConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer: no brokers configured")
	}
	return &confluentConsumer{cfg: cfg}, nil
}

// Consume 阻塞直到 ctx 被取消或发生致命错误。偏移量在 handler 成功后手动提交。
func (c *confluentConsumer) Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error {
	if len(topics) == 0 {
		return fmt.Errorf("kafka consumer: no topics specified")
	}
	c.groupID = groupID

	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(c.cfg.Brokers, ","),
		"group.id":           groupID,
		"auto.offset.reset":  "latest", // 通知只关心新事件
		"enable.auto.commit": "false",
		"security.protocol":  c.cfg.Protocol,
	}
	if c.cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", c.cfg.ClientID)
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer for group %s: %w", groupID, err)
	}
	c.consumer = consumer

	if err := consumer.SubscribeTopics(topics, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topics %v for group %s: %w", topics, groupID, err)
	}
	log.Printf("Kafka 消费者已启动: group=%s topics=%v", groupID, topics)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Kafka 消费者 %s 收到取消信号，退出循环。", groupID)
			return nil
		default:
		}

		switch e := consumer.Poll(1000).(type) {
		case nil:
			continue
		case *kafka.Message:
			if err := handler(ctx, e); err != nil {
				log.Printf("处理 Kafka 消息失败 (group=%s topic=%s offset=%v): %v",
					groupID, *e.TopicPartition.Topic, e.TopicPartition.Offset, err)
				continue
			}
			if _, err := consumer.CommitMessage(e); err != nil {
				log.Printf("提交偏移量失败 (group=%s offset=%v): %v", groupID, e.TopicPartition.Offset, err)
			}
		case kafka.Error:
			log.Printf("Kafka 消费者错误 (group=%s): %v (code=%d fatal=%t)", groupID, e, e.Code(), e.IsFatal())
			if e.IsFatal() {
				return e
			}
		}
	}
}

// Close closes the underlying consumer if Consume created one.
func (c *confluentConsumer) Close() {
	if c.consumer == nil {
		return
	}
	if err := c.consumer.Close(); err != nil {
		log.Printf("关闭 Kafka 消费者 %s 失败: %v", c.groupID, err)
	}
	c.consumer = nil
}
