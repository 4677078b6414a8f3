package domain

import "errors"

var (
	// ErrSymbolNotFound 数据源明确表示标的不存在
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrQuoteUnavailable 所有已启用的行情源均获取失败
	ErrQuoteUnavailable = errors.New("quote unavailable: all providers exhausted")
)
