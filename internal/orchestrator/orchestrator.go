package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/hewenyu/stack-discovery/internal/cache"
	"github.com/hewenyu/stack-discovery/internal/config"
	"github.com/hewenyu/stack-discovery/internal/inspector"
	"github.com/hewenyu/stack-discovery/internal/prober"
	"github.com/hewenyu/stack-discovery/internal/strategy"
	"github.com/hewenyu/stack-discovery/pkg/model"
)

// ErrPassTimeout 表示发现过程超出总超时，部分结果被丢弃
var ErrPassTimeout = errors.New("发现过程超时")

// ErrPassFailed 表示发现过程整体失败，没有可用结果
var ErrPassFailed = errors.New("发现过程失败")

// Options 发现协调器配置
type Options struct {
	// ProbePaths 全局候选探测路径
	ProbePaths []string
	// HealthPathOverrides 服务目录指定的专属探测路径，按服务名索引
	HealthPathOverrides map[string]string
	// PassTimeout 单次发现过程总超时
	PassTimeout time.Duration
	// ServiceTimeout 单个服务健康探测的总超时
	ServiceTimeout time.Duration
	// ProbeConcurrency 健康探测最大并发数
	ProbeConcurrency int
	// CacheTTLSeconds 结果缓存TTL（秒）
	CacheTTLSeconds int
}

// Orchestrator 协调一次完整的发现过程：
// 按优先级顺序串行执行各策略（后执行的策略要看到先前的结果以避免重复），
// 合并去重后对全部记录并发执行健康探测，最后组装缓存条目
type Orchestrator struct {
	strategies          []strategy.Strategy
	prober              prober.Prober
	probePaths          []string
	healthPathOverrides map[string]string
	passTimeout         time.Duration
	serviceTimeout      time.Duration
	probeConcurrency    int64
	cacheTTLSeconds     int
	logger              config.Logger
}

// New 创建发现协调器，strategies必须已按优先级排序
func New(strategies []strategy.Strategy, p prober.Prober, opts Options, logger config.Logger) *Orchestrator {
	if len(opts.ProbePaths) == 0 {
		opts.ProbePaths = prober.DefaultPaths
	}
	if opts.PassTimeout <= 0 {
		opts.PassTimeout = 30 * time.Second
	}
	if opts.ServiceTimeout <= 0 {
		opts.ServiceTimeout = 10 * time.Second
	}
	if opts.ProbeConcurrency <= 0 {
		opts.ProbeConcurrency = 10
	}
	if opts.CacheTTLSeconds <= 0 {
		opts.CacheTTLSeconds = 300
	}

	return &Orchestrator{
		strategies:          strategies,
		prober:              p,
		probePaths:          opts.ProbePaths,
		healthPathOverrides: opts.HealthPathOverrides,
		passTimeout:         opts.PassTimeout,
		serviceTimeout:      opts.ServiceTimeout,
		probeConcurrency:    int64(opts.ProbeConcurrency),
		cacheTTLSeconds:     opts.CacheTTLSeconds,
		logger:              logger,
	}
}

// RunPass 执行一次发现过程并返回新的缓存条目
// 超时或整体失败时返回错误且不产出部分结果，由调用方决定是否降级到旧缓存
func (o *Orchestrator) RunPass(ctx context.Context) (*cache.Entry, error) {
	passID := uuid.New().String()[:8]
	ctx, cancel := context.WithTimeout(ctx, o.passTimeout)
	defer cancel()

	o.logger.Info("开始发现过程", zap.String("pass_id", passID))

	// 策略阶段：串行执行，后续策略跳过已识别的服务
	merged := make(map[string]model.ServiceRecord)
	runtimeDown := false
	for _, s := range o.strategies {
		records, err := s.Discover(ctx, merged)
		if err != nil {
			if errors.Is(err, inspector.ErrRuntimeUnavailable) {
				// 运行时不可达不中止过程，记录降级
				runtimeDown = true
				o.logger.Warn("策略执行时容器运行时不可达",
					zap.String("pass_id", passID), zap.String("strategy", s.Name()), zap.Error(err))
			} else {
				o.logger.Error("策略执行失败",
					zap.String("pass_id", passID), zap.String("strategy", s.Name()), zap.Error(err))
			}
		}

		added := 0
		for _, record := range records {
			if o.mergeRecord(merged, record) {
				added++
			}
		}
		o.logger.Debug("策略阶段完成",
			zap.String("pass_id", passID), zap.String("strategy", s.Name()), zap.Int("added", added))

		if ctx.Err() != nil {
			o.logger.Error("发现过程超时", zap.String("pass_id", passID), zap.String("strategy", s.Name()))
			return nil, fmt.Errorf("%w: 策略%s未完成", ErrPassTimeout, s.Name())
		}
	}

	// 运行时完全不可用且目录也没有产出任何条目时，不能把空结果当作"零服务"缓存
	if len(merged) == 0 && runtimeDown {
		return nil, fmt.Errorf("%w: %v", ErrPassFailed, inspector.ErrRuntimeUnavailable)
	}

	// 健康探测阶段：所有策略完成后统一并发探测
	if err := o.probeAll(ctx, passID, merged); err != nil {
		return nil, err
	}

	now := time.Now()
	entry := &cache.Entry{
		ComputedAt: now,
		TTLSeconds: o.cacheTTLSeconds,
		Services:   merged,
		Summary:    model.NewHealthSummary(merged, now, model.CacheStatusFresh),
	}

	o.logger.Info("发现过程完成",
		zap.String("pass_id", passID),
		zap.Int("total", entry.Summary.Total),
		zap.Int("healthy", entry.Summary.Healthy),
		zap.Int("unhealthy", entry.Summary.Unhealthy),
		zap.Int("unknown", entry.Summary.Unknown))

	return entry, nil
}

// mergeRecord 按优先级规则合并一条记录，返回是否被采纳
// 同名服务保留发现方式优先级更高的记录，优先级相同时先到先得
func (o *Orchestrator) mergeRecord(merged map[string]model.ServiceRecord, record model.ServiceRecord) bool {
	old, ok := merged[record.ServiceName]
	if ok && record.DiscoveryMethod.Rank() >= old.DiscoveryMethod.Rank() {
		return false
	}
	merged[record.ServiceName] = record
	return true
}

// probeAll 并发探测全部记录的健康状态，受信号量限制并发数
// 单个探测失败只降级对应记录，不会中止过程
func (o *Orchestrator) probeAll(ctx context.Context, passID string, merged map[string]model.ServiceRecord) error {
	// 先固定待探测集合，探测协程并发回写merged时不能再遍历它
	type probeTarget struct {
		name   string
		record model.ServiceRecord
	}
	targets := make([]probeTarget, 0, len(merged))
	for name, record := range merged {
		// 没有可探测地址的记录保持unknown；
		// 虚拟条目没有运行容器，探测其模板地址只会制造误报
		if record.BaseURL == "" || record.DiscoveryMethod == model.DiscoveryMethodVirtual {
			continue
		}
		targets = append(targets, probeTarget{name: name, record: record})
	}

	sem := semaphore.NewWeighted(o.probeConcurrency)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, target := range targets {
		wg.Add(1)
		go func(name string, record model.ServiceRecord) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				// 总超时耗尽，保持unknown
				return
			}
			defer sem.Release(1)

			svcCtx, cancel := context.WithTimeout(ctx, o.serviceTimeout)
			verdict := o.prober.Probe(svcCtx, record.BaseURL, o.pathsFor(name))
			cancel()

			record.Status = verdict.Status
			if verdict.Status == model.HealthStatusHealthy {
				heartbeat := verdict.CheckedAt
				record.LastHeartbeat = &heartbeat
			}

			mu.Lock()
			merged[name] = record
			mu.Unlock()
		}(target.name, target.record)
	}

	wg.Wait()

	if ctx.Err() != nil {
		o.logger.Error("健康探测阶段超时，丢弃部分结果", zap.String("pass_id", passID))
		return fmt.Errorf("%w: 健康探测未完成", ErrPassTimeout)
	}
	return nil
}

// pathsFor 返回指定服务的候选探测路径
// 目录声明了专属健康检查路径的服务会优先尝试该路径
func (o *Orchestrator) pathsFor(serviceName string) []string {
	override, ok := o.healthPathOverrides[serviceName]
	if !ok || override == "" {
		return o.probePaths
	}

	paths := make([]string, 0, len(o.probePaths)+1)
	paths = append(paths, override)
	for _, p := range o.probePaths {
		if p != override {
			paths = append(paths, p)
		}
	}
	return paths
}
