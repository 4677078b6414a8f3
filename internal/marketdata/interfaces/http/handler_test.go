package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/papertrading/internal/marketdata/application"
	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
)

type fakeStore struct {
	data map[string]*domain.Quote
}

func newFakeStore(symbols ...string) *fakeStore {
	s := &fakeStore{data: map[string]*domain.Quote{}}
	for _, symbol := range symbols {
		s.data[symbol] = domain.NewQuote(symbol, domain.AssetClassStock,
			decimal.NewFromInt(150), decimal.NewFromInt(3),
			0, 0, time.Now(), "test")
	}
	return s
}

func (s *fakeStore) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	if q, ok := s.data[symbol]; ok {
		return q, nil
	}
	return nil, domain.ErrQuoteUnavailable
}

func (s *fakeStore) GetQuotes(ctx context.Context, symbols []string) (map[string]*domain.Quote, error) {
	out := make(map[string]*domain.Quote)
	for _, symbol := range symbols {
		if q, ok := s.data[symbol]; ok {
			out[symbol] = q
		}
	}
	return out, nil
}

func newTestRouter(store domain.QuoteStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewQuoteHandler(application.NewQuoteService(store))
	handler.RegisterRoutes(r.Group("/api"))
	return r
}

func TestGetQuoteOK(t *testing.T) {
	r := newTestRouter(newFakeStore("AAPL"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/marketdata/quote?symbol=aapl", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var dto application.QuoteDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dto))
	require.Equal(t, "AAPL", dto.Symbol)
	require.Equal(t, "150", dto.CurrentPrice)
	require.Equal(t, "STOCK", dto.AssetType)
}

func TestGetQuoteMissingSymbol(t *testing.T) {
	r := newTestRouter(newFakeStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/marketdata/quote", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetQuoteUnavailable(t *testing.T) {
	r := newTestRouter(newFakeStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/marketdata/quote?symbol=NOPE", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetQuotesPartial(t *testing.T) {
	r := newTestRouter(newFakeStore("AAPL", "TSLA"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/marketdata/quotes?symbols=aapl,tsla,nope", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Quotes map[string]*application.QuoteDTO `json:"quotes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Quotes, 2)
	require.Contains(t, body.Quotes, "AAPL")
	require.Contains(t, body.Quotes, "TSLA")
}

func TestGetQuotesMissingParam(t *testing.T) {
	r := newTestRouter(newFakeStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/marketdata/quotes", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchFound(t *testing.T) {
	r := newTestRouter(newFakeStore("BTC"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/marketdata/search?query=btc", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var results []*application.SearchResultDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results, 1)
	require.Equal(t, "BTC", results[0].Symbol)
}

func TestSearchNotFoundReturnsEmptyList(t *testing.T) {
	r := newTestRouter(newFakeStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/marketdata/search?query=nope", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var results []*application.SearchResultDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Empty(t, results)
}
