package provider

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
)

// stubProvider 可编程的行情源桩，按标的返回预置结果并统计调用次数
type stubProvider struct {
	name string

	mu     sync.Mutex
	calls  map[string]int
	quotes map[string]*domain.Quote
	err    error
}

func newStubProvider(name string) *stubProvider {
	return &stubProvider{
		name:   name,
		calls:  make(map[string]int),
		quotes: make(map[string]*domain.Quote),
	}
}

func (p *stubProvider) serve(symbol string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotes[symbol] = domain.NewQuote(symbol, domain.AssetClassStock,
		decimal.NewFromInt(100), decimal.NewFromInt(1), 0, 0, time.Now(), p.name)
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[symbol]++
	if p.err != nil {
		return nil, p.err
	}
	if quote, ok := p.quotes[symbol]; ok {
		return quote, nil
	}
	return nil, domain.ErrSymbolNotFound
}

func (p *stubProvider) callCount(symbol string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[symbol]
}

func (p *stubProvider) totalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.calls {
		total += n
	}
	return total
}

func newStubEntry(p Provider, maxBatch int) *Entry {
	return &Entry{
		Provider: p,
		Queue:    NewRequestQueue(p.Name(), time.Millisecond),
		MaxBatch: maxBatch,
	}
}

func TestChainFirstProviderWins(t *testing.T) {
	p1 := newStubProvider("primary")
	p1.serve("AAPL")
	p2 := newStubProvider("secondary")
	p2.serve("AAPL")
	chain := NewChain(newStubEntry(p1, 0), newStubEntry(p2, 0))

	quote, err := chain.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "primary", quote.Source)
	require.Equal(t, 1, p1.callCount("AAPL"))
	require.Zero(t, p2.callCount("AAPL"))
}

func TestChainFallsBackOnFailure(t *testing.T) {
	p1 := newStubProvider("primary")
	p1.err = errors.New("rate limited")
	p2 := newStubProvider("secondary")
	p2.serve("AAPL")
	chain := NewChain(newStubEntry(p1, 0), newStubEntry(p2, 0))

	quote, err := chain.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "secondary", quote.Source)
	require.Equal(t, 1, p1.callCount("AAPL"))
	require.Equal(t, 1, p2.callCount("AAPL"))
}

func TestChainAllProvidersFail(t *testing.T) {
	p1 := newStubProvider("primary")
	p2 := newStubProvider("secondary")
	chain := NewChain(newStubEntry(p1, 0), newStubEntry(p2, 0))

	_, err := chain.FetchQuote(context.Background(), "UNKNOWN")
	require.ErrorIs(t, err, domain.ErrQuoteUnavailable)
	require.Equal(t, 1, p1.callCount("UNKNOWN"))
	require.Equal(t, 1, p2.callCount("UNKNOWN"))
}

func TestChainEmpty(t *testing.T) {
	chain := NewChain()

	_, err := chain.FetchQuote(context.Background(), "AAPL")
	require.ErrorIs(t, err, domain.ErrQuoteUnavailable)
}

func TestChainStopsOnContextCancel(t *testing.T) {
	p1 := newStubProvider("primary")
	p1.err = errors.New("rate limited")
	p2 := newStubProvider("secondary")
	p2.serve("AAPL")
	chain := NewChain(newStubEntry(p1, 0), newStubEntry(p2, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := chain.FetchQuote(ctx, "AAPL")
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, p2.callCount("AAPL"))
}
