// Package provider 外部行情源接入层：请求队列、回退编排与批量获取策略
package provider

import (
	"context"
	"net/http"

	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
)

// Provider 外部行情源适配器接口
// 每个实现只做一次网络调用，把原始响应翻译成规范化的 Quote；
// 超时、响应缺字段、标的不存在统一以 error 形式返回，适配器不触碰缓存
type Provider interface {
	// Name 行情源名称，用于日志与 Quote.Source
	Name() string
	// FetchQuote 获取单个标的的行情
	FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

// HTTPClient HTTP 客户端接口，便于测试中注入桩实现
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Entry 行情源与其请求队列的绑定，按优先级排列后交给 Chain 与 BatchFetcher
type Entry struct {
	// Provider 行情源适配器
	Provider Provider
	// Queue 该行情源专属的请求队列
	Queue *RequestQueue
	// MaxBatch 大于 0 时表示仅当批量规模小于该值才参与批量获取
	// （高延迟行情源对大批量的总耗时不可接受）
	MaxBatch int
}
