// Package application 行情应用服务与用例编排
package application

import (
	"context"
	"fmt"

	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"github.com/wyfcoding/pkg/logging"
)

// QuoteService 行情应用服务
// 平台内交易定价、组合估值、自选列表与搜索的统一行情入口；
// 自身无状态，规范化入参后委托给分级行情存储
type QuoteService struct {
	store domain.QuoteStore
}

// NewQuoteService 创建行情应用服务
func NewQuoteService(store domain.QuoteStore) *QuoteService {
	return &QuoteService{store: store}
}

// GetQuote 获取单个标的的行情
// 所有行情源均失败时返回 ErrQuoteUnavailable（调用方应视为该标的不可定价）
func (s *QuoteService) GetQuote(ctx context.Context, symbol string) (*QuoteDTO, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	quote, err := s.store.GetQuote(ctx, symbol)
	if err != nil {
		logging.Error(ctx, "failed to get quote", "symbol", symbol, "error", err)
		return nil, err
	}
	return toQuoteDTO(quote), nil
}

// GetQuotes 批量获取行情
// 入参逐项规范化并去重；无法定价的标的不会出现在结果中
func (s *QuoteService) GetQuotes(ctx context.Context, symbols []string) (map[string]*QuoteDTO, error) {
	normalized := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, symbol := range symbols {
		n := domain.NormalizeSymbol(symbol)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		normalized = append(normalized, n)
	}

	quotes, err := s.store.GetQuotes(ctx, normalized)
	if err != nil {
		logging.Error(ctx, "failed to get quotes", "symbols", len(normalized), "error", err)
		return nil, err
	}

	dtos := make(map[string]*QuoteDTO, len(quotes))
	for symbol, quote := range quotes {
		dtos[symbol] = toQuoteDTO(quote)
	}
	return dtos, nil
}

// Search 按标的代码搜索
// 目前的实现即按代码取一次行情；取不到时返回空列表而不是错误
func (s *QuoteService) Search(ctx context.Context, query string) []*SearchResultDTO {
	dto, err := s.GetQuote(ctx, query)
	if err != nil {
		return []*SearchResultDTO{}
	}
	return []*SearchResultDTO{{
		Symbol:       dto.Symbol,
		Name:         dto.Symbol,
		AssetType:    dto.AssetType,
		CurrentPrice: dto.CurrentPrice,
		Change24h:    dto.Change24h,
	}}
}
