// Package finnhub Finnhub 行情源适配器（股票，主力行情源）
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"github.com/wyfcoding/papertrading/internal/marketdata/infrastructure/provider"
)

const (
	defaultBaseURL = "https://finnhub.io/api/v1"
	requestTimeout = 5 * time.Second
)

// quoteResponse Finnhub /quote 接口原始响应
// 字段在适配器边界完成校验与转换，松散结构不向外层传播
type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// Client Finnhub API 客户端
type Client struct {
	apiKey     string
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

// NewClient 创建 Finnhub 客户端
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name 行情源名称
func (c *Client) Name() string { return "finnhub" }

// FetchQuote 获取单个标的的实时行情
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/quote?symbol=%s&token=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("finnhub: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("finnhub: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("finnhub: unexpected status %d", resp.StatusCode)
	}

	var raw quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("finnhub: decode response: %w", err)
	}

	// Finnhub 对不存在的标的返回全零响应
	if raw.Current == 0 && raw.PreviousClose == 0 {
		return nil, fmt.Errorf("finnhub: %s: %w", symbol, domain.ErrSymbolNotFound)
	}

	observedAt := time.Unix(raw.Timestamp, 0)
	if raw.Timestamp == 0 {
		observedAt = time.Now()
	}

	return domain.NewQuote(
		symbol,
		domain.AssetClassStock,
		decimal.NewFromFloat(raw.Current),
		decimal.NewFromFloat(raw.Change),
		0,
		0,
		observedAt,
		c.Name(),
	), nil
}
