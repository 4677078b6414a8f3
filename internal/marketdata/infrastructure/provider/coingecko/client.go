// Package coingecko CoinGecko 行情源适配器（加密货币，无需 API Key）
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"github.com/wyfcoding/papertrading/internal/marketdata/infrastructure/provider"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"
	requestTimeout = 5 * time.Second
)

// coinIDs 支持的加密货币代码到 CoinGecko coin id 的映射
// 平台只允许交易主流币种，不在表内的标的视为不存在
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"LTC":   "litecoin",
	"LINK":  "chainlink",
	"AVAX":  "avalanche-2",
	"MATIC": "matic-network",
	"UNI":   "uniswap",
}

// marketEntry /coins/markets 接口的单个币种响应
type marketEntry struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	CurrentPrice   float64 `json:"current_price"`
	PriceChange24h float64 `json:"price_change_24h"`
	TotalVolume    float64 `json:"total_volume"`
	MarketCap      float64 `json:"market_cap"`
	LastUpdated    string  `json:"last_updated"`
}

// Client CoinGecko API 客户端
type Client struct {
	baseURL    string
	httpClient provider.HTTPClient
}

// Option 客户端配置选项
type Option func(*Client)

// WithBaseURL 覆盖 API 基础地址
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient 覆盖 HTTP 客户端
func WithHTTPClient(httpClient provider.HTTPClient) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient 创建 CoinGecko 客户端
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name 行情源名称
func (c *Client) Name() string { return "coingecko" }

// FetchQuote 获取单个加密货币标的的行情
// 非加密货币标的直接返回 ErrSymbolNotFound，让回退链继续（或结束于）其它行情源
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	coinID, ok := coinIDs[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("coingecko: %s: %w", symbol, domain.ErrSymbolNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/coins/markets?vs_currency=usd&ids=%s",
		c.baseURL, url.QueryEscape(coinID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("coingecko: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko: unexpected status %d", resp.StatusCode)
	}

	var entries []marketEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("coingecko: decode response: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("coingecko: %s: %w", symbol, domain.ErrSymbolNotFound)
	}

	entry := entries[0]
	observedAt := time.Now()
	if entry.LastUpdated != "" {
		if t, err := time.Parse(time.RFC3339, entry.LastUpdated); err == nil {
			observedAt = t
		}
	}

	return domain.NewQuote(
		strings.ToUpper(symbol),
		domain.AssetClassCrypto,
		decimal.NewFromFloat(entry.CurrentPrice),
		decimal.NewFromFloat(entry.PriceChange24h),
		int64(entry.TotalVolume),
		int64(entry.MarketCap),
		observedAt,
		c.Name(),
	), nil
}
