package inspector

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy 定义运行时连接失败的重试策略
type RetryPolicy struct {
	// MaxAttempts 总尝试次数（含首次）
	MaxAttempts int
	// InitialInterval 指数退避的初始间隔
	InitialInterval time.Duration
	// MaxInterval 退避间隔上限
	MaxInterval time.Duration
}

// DefaultRetryPolicy 返回默认重试策略：3次尝试，200ms起步指数退避
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// Execute 按策略执行操作，直到成功、达到最大次数或上下文取消
func (p *RetryPolicy) Execute(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	// WithMaxRetries计数不含首次尝试
	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx))
}
