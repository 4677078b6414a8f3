package provider

import (
	"context"
	"sync"

	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"github.com/wyfcoding/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// MaxBatchSize 单次批量请求的标的数上限，超出部分被丢弃并记录告警
const MaxBatchSize = 100

// BatchFetcher 批量获取策略器
// 按批量规模挑选行情源：高延迟行情源只参与小批量（总耗时 = 批量 × 间隔）；
// 选中行情源后把所有标的作为独立任务并发提交到其队列（实际执行仍被队列串行化），
// 等全部结束后再把仍缺失的标的交给下一个行情源。
type BatchFetcher struct {
	chain *Chain
}

// NewBatchFetcher 创建批量获取策略器
func NewBatchFetcher(chain *Chain) *BatchFetcher {
	return &BatchFetcher{chain: chain}
}

// FetchQuotes 获取一组标的的行情
// 输入去重、丢弃空白项并按上限截断；所有行情源都失败的标的从结果中省略，
// 部分成功不视为错误。若选中的行情源全部颗粒无收，则退化为逐标的走完整回退链。
func (f *BatchFetcher) FetchQuotes(ctx context.Context, symbols []string) (map[string]*domain.Quote, error) {
	missing := dedupeSymbols(symbols)
	results := make(map[string]*domain.Quote, len(missing))
	if len(missing) == 0 {
		return results, nil
	}
	if len(missing) > MaxBatchSize {
		logging.Warn(ctx, "batch size exceeds cap, extra symbols dropped",
			"requested", len(missing),
			"cap", MaxBatchSize,
		)
		missing = missing[:MaxBatchSize]
	}

	var mu sync.Mutex
	for _, e := range f.chain.Entries() {
		if len(missing) == 0 {
			break
		}
		if e.MaxBatch > 0 && len(missing) >= e.MaxBatch {
			logging.Info(ctx, "skipping slow provider for large batch",
				"provider", e.Provider.Name(),
				"batch", len(missing),
				"threshold", e.MaxBatch,
			)
			continue
		}

		entry := e
		g, gctx := errgroup.WithContext(ctx)
		for _, symbol := range missing {
			symbol := symbol
			g.Go(func() error {
				quote, err := entry.Queue.Submit(gctx, func(ctx context.Context) (*domain.Quote, error) {
					return entry.Provider.FetchQuote(ctx, symbol)
				})
				if err != nil {
					logging.Warn(gctx, "batch fetch failed for symbol",
						"provider", entry.Provider.Name(),
						"symbol", symbol,
						"error", err,
					)
					return nil
				}
				mu.Lock()
				results[symbol] = quote
				mu.Unlock()
				return nil
			})
		}
		// 任务内部不向 errgroup 返回错误，失败已逐标的记录
		_ = g.Wait()
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		missing = subtractSymbols(missing, results)
	}

	// 选中的行情源全部失败时逐标的走完整回退链（含被批量策略跳过的行情源）
	if len(results) == 0 && len(missing) > 0 {
		for _, symbol := range missing {
			quote, err := f.chain.FetchQuote(ctx, symbol)
			if err != nil {
				if ctx.Err() != nil {
					return results, ctx.Err()
				}
				continue
			}
			results[symbol] = quote
		}
	}
	return results, nil
}

// dedupeSymbols 去重并丢弃空白项，保持首次出现的顺序
func dedupeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// subtractSymbols 返回 symbols 中尚未出现在 got 里的部分
func subtractSymbols(symbols []string, got map[string]*domain.Quote) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := got[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
