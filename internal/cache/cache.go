package cache

import (
	"context"
	"time"

	"github.com/hewenyu/stack-discovery/pkg/model"
)

// Entry 封装一次成功发现过程的完整结果
// 条目只会被整体替换，不会原地修改，读取方不会观察到半写状态
type Entry struct {
	ComputedAt time.Time                      `json:"computed_at"`
	TTLSeconds int                            `json:"ttl_seconds"`
	Services   map[string]model.ServiceRecord `json:"services"`
	Summary    model.HealthSummary            `json:"summary"`
}

// IsFresh 判断条目在指定时刻是否仍在TTL内
func (e *Entry) IsFresh(now time.Time) bool {
	return now.Sub(e.ComputedAt) <= time.Duration(e.TTLSeconds)*time.Second
}

// Store 定义发现结果缓存接口
type Store interface {
	// Get 返回当前缓存条目，缓存为空时返回(nil, nil)
	Get(ctx context.Context) (*Entry, error)

	// Put 写入新的缓存条目，替换旧条目
	Put(ctx context.Context, entry *Entry) error

	// Invalidate 清除缓存条目
	Invalidate(ctx context.Context) error
}
