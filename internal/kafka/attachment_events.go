package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"quest-go/internal/apitypes"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// AttachmentEventPublisher 把附件事件写入 Kafka，以 quest id 作为 key，
// 同一个 quest 的事件落在同一分区，保持顺序。
type AttachmentEventPublisher struct {
	producer MessageProducer
	topic    string
}

// NewAttachmentEventPublisher wraps a producer for one topic.
func NewAttachmentEventPublisher(producer MessageProducer, topic string) *AttachmentEventPublisher {
	return &AttachmentEventPublisher{producer: producer, topic: topic}
}

// Publish serializes the event and waits for delivery.
func (p *AttachmentEventPublisher) Publish(ctx context.Context, event apitypes.AttachmentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化附件事件失败: %w", err)
	}
	key := []byte(strconv.FormatUint(uint64(event.QuestID), 10))
	return p.producer.SendMessage(ctx, p.topic, key, payload)
}

// DecodeAttachmentEvent parses a consumed message back into an event.
func DecodeAttachmentEvent(msg *kafka.Message) (apitypes.AttachmentEvent, error) {
	var event apitypes.AttachmentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return event, fmt.Errorf("反序列化附件事件失败: %w", err)
	}
	if event.QuestID == 0 {
		return event, fmt.Errorf("附件事件缺少 quest_id")
	}
	return event, nil
}
