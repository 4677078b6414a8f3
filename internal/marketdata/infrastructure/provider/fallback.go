package provider

import (
	"context"
	"fmt"

	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"github.com/wyfcoding/pkg/logging"
)

// Chain 回退编排器：按固定优先级依次尝试多个行情源，返回第一个成功结果
// 每次尝试都经由该行情源的请求队列串行化；同一标的不会并发尝试两个行情源，
// 避免在大概率已耗尽配额的行情源上浪费调用预算。
// 未配置凭证的行情源不应出现在 entries 中（由装配方负责跳过）。
type Chain struct {
	entries []*Entry
}

// NewChain 创建回退编排器，entries 的顺序即尝试顺序
func NewChain(entries ...*Entry) *Chain {
	return &Chain{entries: entries}
}

// Entries 已注册的行情源列表（按优先级）
func (c *Chain) Entries() []*Entry { return c.entries }

// FetchQuote 获取单个标的的行情
// 单个行情源的失败只记录日志并继续尝试下一个；全部失败时返回 ErrQuoteUnavailable
func (c *Chain) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	for _, e := range c.entries {
		quote, err := e.Queue.Submit(ctx, func(ctx context.Context) (*domain.Quote, error) {
			return e.Provider.FetchQuote(ctx, symbol)
		})
		if err == nil {
			return quote, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.Warn(ctx, "provider fetch failed, trying next",
			"provider", e.Provider.Name(),
			"symbol", symbol,
			"error", err,
		)
	}
	return nil, fmt.Errorf("%s: %w", symbol, domain.ErrQuoteUnavailable)
}
