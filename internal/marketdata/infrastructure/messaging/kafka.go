// Package messaging 行情领域事件的 Kafka 发布实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/pkg/logging"
)

// KafkaEventPublisher 基于 kafka-go 的事件发布者
// 行情刷新事件是尽力而为的通知，发布失败由调用方记录日志，不影响行情返回
type KafkaEventPublisher struct {
	writer *kafka.Writer
}

// NewKafkaEventPublisher 创建 Kafka 事件发布者
func NewKafkaEventPublisher(brokers []string) *KafkaEventPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	logging.Info(context.Background(), "kafka event publisher created", "brokers", brokers)
	return &KafkaEventPublisher{writer: writer}
}

// Publish 发布事件，value 为 JSON 序列化后的事件体，key 用于分区
func (p *KafkaEventPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	})
}

// Close 关闭底层 writer
func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}

// NopEventPublisher 空发布者，未配置 Kafka 时使用
type NopEventPublisher struct{}

// Publish 丢弃事件
func (NopEventPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	return nil
}
