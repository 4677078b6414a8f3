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

func testQuote(symbol string) *domain.Quote {
	return domain.NewQuote(symbol, domain.AssetClassStock,
		decimal.NewFromInt(100), decimal.NewFromInt(1),
		0, 0, time.Now(), "test")
}

func TestRequestQueueSerializesWithDelay(t *testing.T) {
	const delay = 50 * time.Millisecond
	q := NewRequestQueue("test", delay)

	var mu sync.Mutex
	var starts []time.Time

	task := func(ctx context.Context) (*domain.Quote, error) {
		mu.Lock()
		starts = append(starts, time.Now())
		mu.Unlock()
		return testQuote("A"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Submit(context.Background(), task)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, starts, 3)
	// 同一队列内相邻两次执行的间隔不短于配置的延迟
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		require.GreaterOrEqual(t, gap, delay,
			"task %d started %v after previous, want >= %v", i, gap, delay)
	}
}

func TestRequestQueueFIFO(t *testing.T) {
	q := NewRequestQueue("test", time.Millisecond)

	var mu sync.Mutex
	var order []int

	// 先占住队列，保证后续提交在同一轮 drain 中排队
	blocker := make(chan struct{})
	go q.Submit(context.Background(), func(ctx context.Context) (*domain.Quote, error) {
		<-blocker
		return testQuote("A"), nil
	})
	time.Sleep(10 * time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Submit(context.Background(), func(ctx context.Context) (*domain.Quote, error) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return testQuote("A"), nil
			})
		}()
		// 依次提交，提交顺序即期望的执行顺序
		time.Sleep(5 * time.Millisecond)
	}
	close(blocker)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestRequestQueueTaskFailureDoesNotHaltQueue(t *testing.T) {
	q := NewRequestQueue("test", time.Millisecond)

	_, err := q.Submit(context.Background(), func(ctx context.Context) (*domain.Quote, error) {
		return nil, errors.New("upstream down")
	})
	require.Error(t, err)

	quote, err := q.Submit(context.Background(), func(ctx context.Context) (*domain.Quote, error) {
		return testQuote("B"), nil
	})
	require.NoError(t, err)
	require.Equal(t, "B", quote.Symbol)
}

func TestRequestQueueCanceledCallerReturnsEarly(t *testing.T) {
	q := NewRequestQueue("test", time.Millisecond)

	blocker := make(chan struct{})
	defer close(blocker)
	go q.Submit(context.Background(), func(ctx context.Context) (*domain.Quote, error) {
		<-blocker
		return testQuote("A"), nil
	})
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := q.Submit(ctx, func(ctx context.Context) (*domain.Quote, error) {
			return testQuote("B"), nil
		})
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Submit did not return after caller cancellation")
	}
}
