// Package http 行情服务 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/papertrading/internal/marketdata/application"
	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
)

// QuoteHandler 行情查询 HTTP 处理器
type QuoteHandler struct {
	service *application.QuoteService
}

// NewQuoteHandler 创建行情查询处理器
func NewQuoteHandler(service *application.QuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *QuoteHandler) RegisterRoutes(r *gin.RouterGroup) {
	v1 := r.Group("/v1/marketdata")
	{
		v1.GET("/quote", h.GetQuote)
		v1.GET("/quotes", h.GetQuotes)
		v1.GET("/search", h.Search)
	}
}

// GetQuote 单标的行情查询
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	symbol := c.Query("symbol")
	if strings.TrimSpace(symbol) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	dto, err := h.service.GetQuote(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, domain.ErrQuoteUnavailable) {
			c.JSON(http.StatusNotFound, gin.H{"error": "quote unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto)
}

// GetQuotes 批量行情查询，symbols 为逗号分隔列表
// 无法定价的标的不出现在结果中，调用方不应假设结果覆盖全部请求
func (h *QuoteHandler) GetQuotes(c *gin.Context) {
	raw := c.Query("symbols")
	if strings.TrimSpace(raw) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbols is required"})
		return
	}

	dtos, err := h.service.GetQuotes(c.Request.Context(), strings.Split(raw, ","))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": dtos})
}

// Search 标的搜索，取不到行情时返回空列表
func (h *QuoteHandler) Search(c *gin.Context) {
	query := c.Query("query")
	if strings.TrimSpace(query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	c.JSON(http.StatusOK, h.service.Search(c.Request.Context(), query))
}
