// Package domain 市场数据服务的领域模型、实体、值对象、仓储接口
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AssetClass 资产类别
type AssetClass string

const (
	// AssetClassStock 股票
	AssetClassStock AssetClass = "STOCK"
	// AssetClassCrypto 加密货币
	AssetClassCrypto AssetClass = "CRYPTO"
)

// Quote 行情快照实体
// 代表某个标的在某一时刻的行情数据，创建后不可变；
// 行情刷新时生成新的 Quote 替换缓存中的旧值，而不是原地修改
type Quote struct {
	// Symbol 标的代码（规范化后的大写形式）
	Symbol string
	// AssetClass 资产类别
	AssetClass AssetClass
	// Price 当前价格
	Price decimal.Decimal
	// Change 参考窗口内的涨跌额（可为负）
	Change decimal.Decimal
	// ChangePercent 涨跌幅（百分比），由 Price 与 Change 推导
	ChangePercent decimal.Decimal
	// Volume 成交量（0 表示数据源未提供）
	Volume int64
	// MarketCap 市值（0 表示数据源未提供）
	MarketCap int64
	// ObservedAt 数据源产生该数据的时刻（而非落缓存的时刻）
	ObservedAt time.Time
	// Source 数据来源（行情源名称）
	Source string
}

// NewQuote 创建行情快照
// 涨跌幅由价格与涨跌额推导：change / (price - change) * 100，基数为零时记为零
func NewQuote(symbol string, assetClass AssetClass, price, change decimal.Decimal, volume, marketCap int64, observedAt time.Time, source string) *Quote {
	q := &Quote{
		Symbol:     symbol,
		AssetClass: assetClass,
		Price:      price,
		Change:     change,
		Volume:     volume,
		MarketCap:  marketCap,
		ObservedAt: observedAt,
		Source:     source,
	}
	base := price.Sub(change)
	if !base.IsZero() {
		q.ChangePercent = change.Div(base).Mul(decimal.NewFromInt(100))
	}
	return q
}

// NormalizeSymbol 规范化标的代码（去除首尾空白并统一大写）
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
