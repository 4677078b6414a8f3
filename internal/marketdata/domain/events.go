package domain

import (
	"context"
	"time"
)

const (
	// QuoteRefreshedEventType 行情刷新事件类型，同时用作 Kafka 主题
	QuoteRefreshedEventType = "marketdata.quote.updated"
)

// QuoteRefreshedEvent 行情刷新事件
// 每次从行情源取得新行情并落缓存后发布，供下游（组合估值、排行榜等）消费
type QuoteRefreshedEvent struct {
	Symbol        string    `json:"symbol"`
	AssetClass    string    `json:"asset_class"`
	Price         string    `json:"price"`
	Change        string    `json:"change"`
	ChangePercent string    `json:"change_percent"`
	Source        string    `json:"source"`
	ObservedAt    time.Time `json:"observed_at"`
}

// NewQuoteRefreshedEvent 从行情快照构造刷新事件
func NewQuoteRefreshedEvent(quote *Quote) *QuoteRefreshedEvent {
	return &QuoteRefreshedEvent{
		Symbol:        quote.Symbol,
		AssetClass:    string(quote.AssetClass),
		Price:         quote.Price.String(),
		Change:        quote.Change.String(),
		ChangePercent: quote.ChangePercent.String(),
		Source:        quote.Source,
		ObservedAt:    quote.ObservedAt,
	}
}

// EventPublisher 领域事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}
