// Package mysql 行情数据 MySQL 持久层实现（二级缓存）
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuoteModel 行情数据库模型
type QuoteModel struct {
	gorm.Model
	// 标的代码
	Symbol string `gorm:"column:symbol;type:varchar(20);uniqueIndex;not null"`
	// 资产类别
	AssetClass string `gorm:"column:asset_class;type:varchar(10);not null"`
	// 当前价格
	Price string `gorm:"column:price;type:decimal(20,8);not null"`
	// 涨跌额（change 是 MySQL 保留字，列名避开）
	Change string `gorm:"column:price_change;type:decimal(20,8);not null"`
	// 涨跌幅（百分比）
	ChangePercent string `gorm:"column:change_percent;type:decimal(20,8);not null"`
	// 成交量
	Volume int64 `gorm:"column:volume;type:bigint;not null"`
	// 市值
	MarketCap int64 `gorm:"column:market_cap;type:bigint;not null"`
	// 数据源产生数据的时刻
	ObservedAt time.Time `gorm:"column:observed_at;index;not null"`
	// 数据来源
	Source string `gorm:"column:source;type:varchar(50)"`
}

// TableName 指定表名
func (QuoteModel) TableName() string {
	return "market_quotes"
}

// QuoteRepositoryImpl 行情持久层仓储实现
type QuoteRepositoryImpl struct {
	db *gorm.DB
}

// NewQuoteRepository 创建行情持久层仓储
func NewQuoteRepository(db *gorm.DB) domain.QuoteRepository {
	return &QuoteRepositoryImpl{db: db}
}

// Save 保存行情
// 按 symbol upsert，后写覆盖先写（行情缓存允许略旧的覆盖，不做乐观锁）
func (r *QuoteRepositoryImpl) Save(ctx context.Context, quote *domain.Quote) error {
	model := toModel(quote)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"asset_class", "price", "price_change", "change_percent",
			"volume", "market_cap", "observed_at", "source", "updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

// FindBySymbol 按标的查询最新行情，不存在时返回 (nil, nil)
func (r *QuoteRepositoryImpl) FindBySymbol(ctx context.Context, symbol string) (*domain.Quote, error) {
	var model QuoteModel
	err := r.db.WithContext(ctx).Where("symbol = ?", symbol).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find quote: %w", err)
	}
	return modelToDomain(&model), nil
}

// FindBySymbols 批量查询最新行情，单次查询，结果只包含存在的标的
func (r *QuoteRepositoryImpl) FindBySymbols(ctx context.Context, symbols []string) (map[string]*domain.Quote, error) {
	result := make(map[string]*domain.Quote, len(symbols))
	if len(symbols) == 0 {
		return result, nil
	}

	var models []QuoteModel
	err := r.db.WithContext(ctx).Where("symbol IN ?", symbols).Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find quotes: %w", err)
	}
	for i := range models {
		quote := modelToDomain(&models[i])
		result[quote.Symbol] = quote
	}
	return result, nil
}

// DeleteOlderThan 删除早于给定时刻的行情，返回删除条数
// 由外部的定期清扫任务调用，保持保留窗口（默认 24h）
func (r *QuoteRepositoryImpl) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("observed_at < ?", before).Delete(&QuoteModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired quotes: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// toModel 领域对象转数据库模型
func toModel(quote *domain.Quote) *QuoteModel {
	return &QuoteModel{
		Symbol:        quote.Symbol,
		AssetClass:    string(quote.AssetClass),
		Price:         quote.Price.String(),
		Change:        quote.Change.String(),
		ChangePercent: quote.ChangePercent.String(),
		Volume:        quote.Volume,
		MarketCap:     quote.MarketCap,
		ObservedAt:    quote.ObservedAt,
		Source:        quote.Source,
	}
}

// modelToDomain 数据库模型转领域对象
func modelToDomain(model *QuoteModel) *domain.Quote {
	price, _ := decimal.NewFromString(model.Price)
	change, _ := decimal.NewFromString(model.Change)
	changePercent, _ := decimal.NewFromString(model.ChangePercent)
	return &domain.Quote{
		Symbol:        model.Symbol,
		AssetClass:    domain.AssetClass(model.AssetClass),
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
		Volume:        model.Volume,
		MarketCap:     model.MarketCap,
		ObservedAt:    model.ObservedAt,
		Source:        model.Source,
	}
}
