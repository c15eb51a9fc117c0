package facade

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hewenyu/stack-discovery/internal/cache"
	"github.com/hewenyu/stack-discovery/internal/config"
	"github.com/hewenyu/stack-discovery/internal/orchestrator"
	"github.com/hewenyu/stack-discovery/pkg/model"
)

// Facade 是发现引擎对外的查询边界
// 缓存新鲜时直接命中；未命中或过期时通过singleflight保证
// 系统内同一时刻至多一次发现过程在执行，并发调用方共享该次结果
type Facade struct {
	orchestrator *orchestrator.Orchestrator
	store        cache.Store
	group        singleflight.Group
	logger       config.Logger
}

// New 创建查询门面
func New(orch *orchestrator.Orchestrator, store cache.Store, logger config.Logger) *Facade {
	return &Facade{
		orchestrator: orch,
		store:        store,
		logger:       logger,
	}
}

// GetAll 返回全部服务记录，按服务名排序
func (f *Facade) GetAll(ctx context.Context, useCache bool) ([]model.ServiceRecord, model.CacheStatus, error) {
	entry, status, _, err := f.current(ctx, useCache)
	if err != nil {
		return nil, "", err
	}

	records := make([]model.ServiceRecord, 0, len(entry.Services))
	for _, record := range entry.Services {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ServiceName < records[j].ServiceName
	})
	return records, status, nil
}

// GetOne 按服务名返回单条记录
// 名称在新鲜结果中不存在时才判定NotFound：缓存命中但未找到时会强制刷新一次再确认
func (f *Facade) GetOne(ctx context.Context, serviceName string, useCache bool) (*model.ServiceRecord, error) {
	entry, status, ranPass, err := f.current(ctx, useCache)
	if err != nil {
		return nil, err
	}

	if record, ok := entry.Services[serviceName]; ok {
		return &record, nil
	}

	// 过期缓存里缺失不能断定服务不存在：
	// stale状态意味着确认用的发现过程失败了，没有新鲜结果可供判定
	if status == model.CacheStatusStale {
		return nil, NewDiscoveryFailedError("发现过程失败，无法确认服务是否存在: " + serviceName)
	}

	// 缓存里没有不代表服务不存在，可能是缓存落后于实际状态
	if !ranPass && status == model.CacheStatusFresh {
		refreshed, refreshErr := f.refresh(ctx)
		if refreshErr == nil {
			if record, ok := refreshed.Services[serviceName]; ok {
				return &record, nil
			}
		}
	}

	return nil, NewNotFoundError("服务不存在: " + serviceName)
}

// GetHealthSummary 返回按健康状态汇总的统计
// refresh为true时绕过缓存新鲜度强制执行新的发现过程
func (f *Facade) GetHealthSummary(ctx context.Context, useCache, refresh bool) (*model.HealthSummary, error) {
	if refresh {
		useCache = false
	}

	entry, status, _, err := f.current(ctx, useCache)
	if err != nil {
		return nil, err
	}

	summary := entry.Summary
	summary.CacheStatus = status
	return &summary, nil
}

// Refresh 强制执行一次新的发现过程，阻塞至完成或失败
// 失败时旧缓存条目保持不变，仍可用于降级响应
func (f *Facade) Refresh(ctx context.Context) error {
	if _, err := f.refresh(ctx); err != nil {
		return NewDiscoveryFailedError("刷新服务发现失败: " + err.Error())
	}
	return nil
}

// current 返回当前可用的缓存条目，必要时触发新的发现过程
// 返回值ranPass表示本次调用内是否执行了发现过程
func (f *Facade) current(ctx context.Context, useCache bool) (*cache.Entry, model.CacheStatus, bool, error) {
	entry, err := f.store.Get(ctx)
	if err != nil {
		// 缓存后端故障按缓存未命中处理
		f.logger.Warn("读取缓存失败，按未命中处理", zap.Error(err))
		entry = nil
	}

	if useCache && entry != nil && entry.IsFresh(time.Now()) {
		return entry, model.CacheStatusFresh, false, nil
	}

	refreshed, refreshErr := f.refresh(ctx)
	if refreshErr != nil {
		// 发现失败时旧缓存（即使过期）仍是最权威的数据
		if entry != nil {
			f.logger.Warn("发现过程失败，返回过期缓存", zap.Error(refreshErr))
			return entry, model.CacheStatusStale, true, nil
		}
		return nil, "", true, NewDiscoveryFailedError("服务发现失败且没有可用缓存: " + refreshErr.Error())
	}

	return refreshed, model.CacheStatusFresh, true, nil
}

// refresh 通过singleflight执行发现过程
// 同一时刻至多一次过程在飞行中，后到的调用方直接等待其结果
func (f *Facade) refresh(ctx context.Context) (*cache.Entry, error) {
	v, err, _ := f.group.Do("discovery", func() (interface{}, error) {
		// 脱离发起方的取消信号：飞行中的过程被多个调用方共享，
		// 不能因为第一个调用方离开而中断；总时长由过程自身的超时约束
		passCtx := context.WithoutCancel(ctx)

		entry, err := f.orchestrator.RunPass(passCtx)
		if err != nil {
			return nil, err
		}

		if putErr := f.store.Put(passCtx, entry); putErr != nil {
			// 写缓存失败不影响本次结果，下一次查询会重新发现
			f.logger.Error("写入缓存失败", zap.Error(putErr))
		}
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cache.Entry), nil
}
