package provider

import (
	"context"
	"sync"
	"time"

	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
)

// Task 队列中的一个延迟执行单元：一次行情源调用
type Task func(ctx context.Context) (*domain.Quote, error)

type taskResult struct {
	quote *domain.Quote
	err   error
}

type queueItem struct {
	ctx  context.Context
	task Task
	done chan taskResult
}

// RequestQueue 针对单个行情源的串行请求队列
// 同一队列内的任务严格按提交顺序执行，任务结束后等待固定间隔再启动下一个，
// 以满足行情源的调用频率限制；不同行情源的队列相互独立。
// 队列深度不设上限，与原始实现保持一致；提交速率由上层批量大小上限约束。
type RequestQueue struct {
	name  string
	delay time.Duration

	mu       sync.Mutex
	items    []*queueItem
	draining bool
}

// NewRequestQueue 创建请求队列，delay 为相邻两次调用之间的最小间隔
func NewRequestQueue(name string, delay time.Duration) *RequestQueue {
	return &RequestQueue{
		name:  name,
		delay: delay,
	}
}

// Name 队列对应的行情源名称
func (q *RequestQueue) Name() string { return q.name }

// Submit 提交任务并等待其结果
// 任务自身的返回值原样传递给调用方；任务失败只影响其调用方，不会中断队列。
// 调用方的 ctx 取消后 Submit 立即返回，已入队的任务在轮到时被直接丢弃。
func (q *RequestQueue) Submit(ctx context.Context, task Task) (*domain.Quote, error) {
	item := &queueItem{ctx: ctx, task: task, done: make(chan taskResult, 1)}

	q.mu.Lock()
	q.items = append(q.items, item)
	if !q.draining {
		q.draining = true
		go q.drain()
	}
	q.mu.Unlock()

	select {
	case res := <-item.done:
		return res.quote, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// drain 单协程消费队列直到清空
// draining 标志保证任意时刻至多一个消费协程，队列内部切片只在持锁时访问
func (q *RequestQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		item := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		// 调用方已放弃的任务不再执行，也不消耗频率配额
		if err := item.ctx.Err(); err != nil {
			item.done <- taskResult{err: err}
			continue
		}

		quote, err := item.task(item.ctx)
		item.done <- taskResult{quote: quote, err: err}

		q.mu.Lock()
		pending := len(q.items)
		q.mu.Unlock()
		if pending > 0 {
			time.Sleep(q.delay)
		}
	}
}
