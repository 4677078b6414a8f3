package application

import (
	"time"

	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
)

// QuoteDTO 行情数据 DTO
// 对外 JSON 字段名与原行情微服务的线上格式保持一致
type QuoteDTO struct {
	Symbol           string    `json:"symbol"`
	AssetType        string    `json:"asset_type"`
	CurrentPrice     string    `json:"current_price"`
	Change24h        string    `json:"change_24h"`
	ChangePercentage string    `json:"change_percentage"`
	Volume           int64     `json:"volume,omitempty"`
	MarketCap        int64     `json:"market_cap,omitempty"`
	LastUpdated      time.Time `json:"last_updated"`
	Source           string    `json:"source,omitempty"`
}

// SearchResultDTO 标的搜索结果 DTO
type SearchResultDTO struct {
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	AssetType    string `json:"asset_type"`
	CurrentPrice string `json:"current_price"`
	Change24h    string `json:"change_24h"`
}

// toQuoteDTO 领域对象转 DTO
func toQuoteDTO(quote *domain.Quote) *QuoteDTO {
	return &QuoteDTO{
		Symbol:           quote.Symbol,
		AssetType:        string(quote.AssetClass),
		CurrentPrice:     quote.Price.String(),
		Change24h:        quote.Change.String(),
		ChangePercentage: quote.ChangePercent.String(),
		Volume:           quote.Volume,
		MarketCap:        quote.MarketCap,
		LastUpdated:      quote.ObservedAt,
		Source:           quote.Source,
	}
}
