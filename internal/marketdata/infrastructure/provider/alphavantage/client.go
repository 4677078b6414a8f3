// Package alphavantage Alpha Vantage 行情源适配器（股票，低频率备用行情源）
// 免费配额约 5 次/分钟，请求队列间隔应配置为 12s 左右，
// 因此该行情源只适合小批量与单标的回退场景
package alphavantage

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
	defaultBaseURL = "https://www.alphavantage.co"
	requestTimeout = 5 * time.Second
)

// globalQuoteResponse GLOBAL_QUOTE 接口原始响应
// Alpha Vantage 对不存在的标的返回空的 "Global Quote" 对象
type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		PreviousClose string `json:"08. previous close"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// Client Alpha Vantage API 客户端
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

// NewClient 创建 Alpha Vantage 客户端
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
func (c *Client) Name() string { return "alphavantage" }

// FetchQuote 获取单个标的的实时行情
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("alphavantage: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alphavantage: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alphavantage: unexpected status %d", resp.StatusCode)
	}

	var raw globalQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("alphavantage: decode response: %w", err)
	}

	gq := raw.GlobalQuote
	if gq.Symbol == "" || gq.Price == "" {
		return nil, fmt.Errorf("alphavantage: %s: %w", symbol, domain.ErrSymbolNotFound)
	}

	price, err := decimal.NewFromString(gq.Price)
	if err != nil {
		return nil, fmt.Errorf("alphavantage: malformed price %q: %w", gq.Price, err)
	}
	change, err := decimal.NewFromString(gq.Change)
	if err != nil {
		return nil, fmt.Errorf("alphavantage: malformed change %q: %w", gq.Change, err)
	}
	var volume int64
	if gq.Volume != "" {
		v, err := decimal.NewFromString(gq.Volume)
		if err != nil {
			return nil, fmt.Errorf("alphavantage: malformed volume %q: %w", gq.Volume, err)
		}
		volume = v.IntPart()
	}

	return domain.NewQuote(
		symbol,
		domain.AssetClassStock,
		price,
		change,
		volume,
		0,
		time.Now(),
		c.Name(),
	), nil
}
