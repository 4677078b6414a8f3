package finnhub

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
)

// stubHTTPClient 返回预置响应的 HTTP 客户端桩
type stubHTTPClient struct {
	status  int
	body    string
	lastURL string
}

func (s *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	s.lastURL = req.URL.String()
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader(s.body)),
	}, nil
}

func TestFetchQuoteSuccess(t *testing.T) {
	stub := &stubHTTPClient{
		status: http.StatusOK,
		body:   `{"c":178.5,"d":2.5,"dp":1.42,"h":180,"l":176,"o":177,"pc":176,"t":1717000000}`,
	}
	c := NewClient("test-key", WithHTTPClient(stub))

	quote, err := c.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "AAPL", quote.Symbol)
	require.Equal(t, domain.AssetClassStock, quote.AssetClass)
	require.Equal(t, "178.5", quote.Price.String())
	require.Equal(t, "2.5", quote.Change.String())
	require.Equal(t, "finnhub", quote.Source)
	require.Equal(t, int64(1717000000), quote.ObservedAt.Unix())
	require.Contains(t, stub.lastURL, "symbol=AAPL")
	require.Contains(t, stub.lastURL, "token=test-key")
}

func TestFetchQuoteSymbolNotFound(t *testing.T) {
	// Finnhub 对不存在的标的返回全零响应
	stub := &stubHTTPClient{
		status: http.StatusOK,
		body:   `{"c":0,"d":0,"dp":0,"h":0,"l":0,"o":0,"pc":0,"t":0}`,
	}
	c := NewClient("test-key", WithHTTPClient(stub))

	_, err := c.FetchQuote(context.Background(), "NOPE")
	require.ErrorIs(t, err, domain.ErrSymbolNotFound)
}

func TestFetchQuoteUpstreamError(t *testing.T) {
	stub := &stubHTTPClient{status: http.StatusTooManyRequests, body: `{}`}
	c := NewClient("test-key", WithHTTPClient(stub))

	_, err := c.FetchQuote(context.Background(), "AAPL")
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrSymbolNotFound)
}

func TestFetchQuoteMalformedBody(t *testing.T) {
	stub := &stubHTTPClient{status: http.StatusOK, body: `not json`}
	c := NewClient("test-key", WithHTTPClient(stub))

	_, err := c.FetchQuote(context.Background(), "AAPL")
	require.Error(t, err)
}
