// Package redis 行情数据 Redis 快速缓存实现（一级缓存）
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
)

// QuoteCache 基于 Redis 的行情快速缓存
// 键为 "quote:" + symbol，值为 JSON 序列化的行情快照，
// TTL 即缓存有效窗口，到期自动失效，无需显式删除
type QuoteCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewQuoteCache 创建行情快速缓存，ttl 为缓存有效窗口
func NewQuoteCache(client redis.UniversalClient, ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		client: client,
		prefix: "quote:",
		ttl:    ttl,
	}
}

func (c *QuoteCache) key(symbol string) string {
	return c.prefix + symbol
}

// Get 按标的读取，未命中时返回 (nil, nil)
func (c *QuoteCache) Get(ctx context.Context, symbol string) (*domain.Quote, error) {
	data, err := c.client.Get(ctx, c.key(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quote from redis: %w", err)
	}

	var quote domain.Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote: %w", err)
	}
	return &quote, nil
}

// GetMany 批量读取（单次 MGET），结果只包含命中且可解析的标的
func (c *QuoteCache) GetMany(ctx context.Context, symbols []string) (map[string]*domain.Quote, error) {
	result := make(map[string]*domain.Quote, len(symbols))
	if len(symbols) == 0 {
		return result, nil
	}

	keys := make([]string, len(symbols))
	for i, symbol := range symbols {
		keys[i] = c.key(symbol)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to mget quotes from redis: %w", err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var quote domain.Quote
		if err := json.Unmarshal([]byte(raw), &quote); err != nil {
			continue
		}
		result[symbols[i]] = &quote
	}
	return result, nil
}

// Set 写入并设置 TTL
func (c *QuoteCache) Set(ctx context.Context, quote *domain.Quote) error {
	if quote == nil {
		return nil
	}
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}
	if err := c.client.Set(ctx, c.key(quote.Symbol), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set quote in redis: %w", err)
	}
	return nil
}
