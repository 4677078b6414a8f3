// Package ratelimit 基于 Redis 的 HTTP 接口限流
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// Limit 限流规则
type Limit struct {
	Rate   int
	Period time.Duration
	Burst  int
}

// Result 单次限流判定结果
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// Limiter Redis 限流器，多实例部署时配额全局共享
type Limiter struct {
	limiter *redis_rate.Limiter
}

// NewLimiter 创建限流器
func NewLimiter(rdb redis.UniversalClient) *Limiter {
	return &Limiter{limiter: redis_rate.NewLimiter(rdb)}
}

// Allow 判定 key 在给定规则下是否放行
func (l *Limiter) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	res, err := l.limiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit.Rate,
		Period: limit.Period,
		Burst:  limit.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	return &Result{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		ResetAfter: res.ResetAfter,
		RetryAfter: res.RetryAfter,
	}, nil
}

// Middleware 按客户端 IP 限流的 gin 中间件
// 限流器自身故障时放行（fail open），限流不应成为服务可用性的短板
func Middleware(l *Limiter, qps, burst int) gin.HandlerFunc {
	limit := Limit{Rate: qps, Period: time.Second, Burst: burst}
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())

		res, err := l.Allow(c.Request.Context(), key, limit)
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Burst))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(res.ResetAfter/time.Second), 10))

		if !res.Allowed {
			c.Header("Retry-After", strconv.FormatInt(int64(res.RetryAfter/time.Second), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too Many Requests",
				"retry_after": res.RetryAfter.String(),
			})
			return
		}
		c.Next()
	}
}
