package domain

import (
	"context"
	"time"
)

// QuoteRepository 行情持久层仓储接口（二级缓存，MySQL）
type QuoteRepository interface {
	// 保存行情（按 symbol upsert，后写覆盖先写）
	Save(ctx context.Context, quote *Quote) error
	// 按标的查询最新行情，不存在时返回 (nil, nil)
	FindBySymbol(ctx context.Context, symbol string) (*Quote, error)
	// 批量查询最新行情，结果只包含存在的标的
	FindBySymbols(ctx context.Context, symbols []string) (map[string]*Quote, error)
	// 删除早于给定时刻的行情，返回删除条数
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// QuoteCache 行情快速缓存接口（一级缓存，Redis）
// 条目带 TTL 自动过期，无需显式删除
type QuoteCache interface {
	// 按标的读取，未命中时返回 (nil, nil)
	Get(ctx context.Context, symbol string) (*Quote, error)
	// 批量读取，结果只包含命中的标的
	GetMany(ctx context.Context, symbols []string) (map[string]*Quote, error)
	// 写入并设置 TTL
	Set(ctx context.Context, quote *Quote) error
}

// QuoteFetcher 单标的行情网络获取接口（回退编排器）
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*Quote, error)
}

// QuoteBatchFetcher 批量行情网络获取接口（批量获取策略器）
// 获取失败的标的从结果中省略，部分成功不视为错误
type QuoteBatchFetcher interface {
	FetchQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error)
}

// QuoteStore 分级行情存储接口，应用层读行情的唯一入口
type QuoteStore interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error)
}
