// Package persistence 组合 Redis 快速缓存与 MySQL 持久层的分级行情存储
package persistence

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"github.com/wyfcoding/pkg/logging"
)

var (
	cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketdata_quote_cache_hits_total",
		Help: "Quote cache hits by tier",
	}, []string{"tier"})
	quoteRefreshes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marketdata_quote_refreshes_total",
		Help: "Quotes fetched fresh from providers",
	})
	persistFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marketdata_quote_persist_failures_total",
		Help: "Persistent tier write failures",
	})
)

func init() {
	prometheus.MustRegister(cacheHits, quoteRefreshes, persistFailures)
}

// TieredQuoteStore 分级行情存储
// 读取顺序：Redis 快速缓存 → MySQL 持久层（按 TTL 判定时效）→ 行情源网络获取；
// 新获取的行情写穿两级缓存后返回。缓存时效的唯一判定规则是 now - ObservedAt < ttl。
// 快速缓存故障只降级不报错；持久层写入失败记录错误但不阻断调用方拿到行情。
// 本类型是两级缓存唯一的写入方。
type TieredQuoteStore struct {
	cache        domain.QuoteCache
	repo         domain.QuoteRepository
	fetcher      domain.QuoteFetcher
	batchFetcher domain.QuoteBatchFetcher
	publisher    domain.EventPublisher
	ttl          time.Duration
}

// NewTieredQuoteStore 创建分级行情存储，ttl 为缓存有效窗口
func NewTieredQuoteStore(
	cache domain.QuoteCache,
	repo domain.QuoteRepository,
	fetcher domain.QuoteFetcher,
	batchFetcher domain.QuoteBatchFetcher,
	publisher domain.EventPublisher,
	ttl time.Duration,
) *TieredQuoteStore {
	return &TieredQuoteStore{
		cache:        cache,
		repo:         repo,
		fetcher:      fetcher,
		batchFetcher: batchFetcher,
		publisher:    publisher,
		ttl:          ttl,
	}
}

// GetQuote 获取单个标的的行情
// 所有行情源均失败时返回 ErrQuoteUnavailable（包装后）
func (s *TieredQuoteStore) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	if quote, err := s.cache.Get(ctx, symbol); err != nil {
		logging.Warn(ctx, "fast tier read failed", "symbol", symbol, "error", err)
	} else if quote != nil {
		cacheHits.WithLabelValues("fast").Inc()
		return quote, nil
	}

	cached, err := s.repo.FindBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if cached != nil && s.isValid(cached.ObservedAt) {
		cacheHits.WithLabelValues("persistent").Inc()
		s.backfill(ctx, cached)
		return cached, nil
	}

	quote, err := s.fetcher.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	s.persist(ctx, quote)
	return quote, nil
}

// GetQuotes 批量获取行情
// 快速缓存批量读 → 持久层单次批量查 → 批量获取策略器；
// 无法定价的标的从结果中省略，部分成功不视为错误
func (s *TieredQuoteStore) GetQuotes(ctx context.Context, symbols []string) (map[string]*domain.Quote, error) {
	results := make(map[string]*domain.Quote, len(symbols))
	if len(symbols) == 0 {
		return results, nil
	}

	missing := symbols
	if cachedFast, err := s.cache.GetMany(ctx, symbols); err != nil {
		logging.Warn(ctx, "fast tier batch read failed", "symbols", len(symbols), "error", err)
	} else {
		for symbol, quote := range cachedFast {
			cacheHits.WithLabelValues("fast").Inc()
			results[symbol] = quote
		}
		missing = subtract(symbols, results)
	}
	if len(missing) == 0 {
		return results, nil
	}

	persisted, err := s.repo.FindBySymbols(ctx, missing)
	if err != nil {
		return nil, err
	}
	stillMissing := make([]string, 0, len(missing))
	for _, symbol := range missing {
		if quote, ok := persisted[symbol]; ok && s.isValid(quote.ObservedAt) {
			cacheHits.WithLabelValues("persistent").Inc()
			s.backfill(ctx, quote)
			results[symbol] = quote
			continue
		}
		stillMissing = append(stillMissing, symbol)
	}
	if len(stillMissing) == 0 {
		return results, nil
	}

	fetched, err := s.batchFetcher.FetchQuotes(ctx, stillMissing)
	if err != nil {
		return nil, err
	}
	for symbol, quote := range fetched {
		s.persist(ctx, quote)
		results[symbol] = quote
	}
	return results, nil
}

// isValid 缓存条目时效判定，分级存储内唯一的时效规则
func (s *TieredQuoteStore) isValid(observedAt time.Time) bool {
	return time.Since(observedAt) < s.ttl
}

// backfill 把持久层命中的行情回填到快速缓存，失败只记录日志
func (s *TieredQuoteStore) backfill(ctx context.Context, quote *domain.Quote) {
	if err := s.cache.Set(ctx, quote); err != nil {
		logging.Warn(ctx, "fast tier write failed", "symbol", quote.Symbol, "error", err)
	}
}

// persist 新行情写穿两级缓存并发布刷新事件
// 持久层失败表示真实的数据丢失风险，记录错误并计数，但行情仍返回给调用方；
// 单个标的的持久化失败不影响批量中的其它标的
func (s *TieredQuoteStore) persist(ctx context.Context, quote *domain.Quote) {
	quoteRefreshes.Inc()
	if err := s.repo.Save(ctx, quote); err != nil {
		persistFailures.Inc()
		logging.Error(ctx, "persistent tier write failed", "symbol", quote.Symbol, "error", err)
	}
	s.backfill(ctx, quote)

	if s.publisher != nil {
		event := domain.NewQuoteRefreshedEvent(quote)
		if err := s.publisher.Publish(ctx, domain.QuoteRefreshedEventType, quote.Symbol, event); err != nil {
			logging.Warn(ctx, "failed to publish quote refreshed event", "symbol", quote.Symbol, "error", err)
		}
	}
}

// subtract 返回 symbols 中尚未出现在 got 里的部分
func subtract(symbols []string, got map[string]*domain.Quote) []string {
	out := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if _, ok := got[symbol]; !ok {
			out = append(out, symbol)
		}
	}
	return out
}
