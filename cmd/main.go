package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hewenyu/stack-discovery/internal/apihandler"
	"github.com/hewenyu/stack-discovery/internal/cache"
	"github.com/hewenyu/stack-discovery/internal/catalog"
	"github.com/hewenyu/stack-discovery/internal/config"
	"github.com/hewenyu/stack-discovery/internal/facade"
	"github.com/hewenyu/stack-discovery/internal/inspector"
	"github.com/hewenyu/stack-discovery/internal/orchestrator"
	"github.com/hewenyu/stack-discovery/internal/prober"
	"github.com/hewenyu/stack-discovery/internal/strategy"
)

var (
	logger     config.Logger
	configFile string
	appConfig  *config.Config
)

func init() {
	// 解析命令行参数
	flag.StringVar(&configFile, "config", "", "配置文件路径")
}

func main() {
	flag.Parse()

	// 加载配置
	var err error
	appConfig, err = config.LoadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger, err = config.NewLogger(appConfig.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	// 打印启动信息
	logger.Info("Stack Discovery Service Starting...",
		zap.String("version", "0.1.0"),
		zap.String("marker_label", appConfig.Docker.MarkerLabel),
		zap.String("catalog_path", appConfig.Discovery.CatalogPath),
		zap.Int("cache_ttl_seconds", appConfig.Discovery.CacheTTLSeconds),
		zap.Int("api_port", appConfig.API.Port),
	)

	// 初始化Docker容器查询器
	retryPolicy := &inspector.RetryPolicy{
		MaxAttempts:     appConfig.Docker.RetryMaxAttempts,
		InitialInterval: time.Duration(appConfig.Docker.RetryInitialIntervalMs) * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
	dockerInspector, err := inspector.NewDockerInspector(retryPolicy, logger)
	if err != nil {
		logger.Error("初始化Docker客户端失败", zap.Error(err))
		os.Exit(1)
	}

	// 加载静态服务目录
	entries, err := catalog.Load(appConfig.Discovery.CatalogPath)
	if err != nil {
		logger.Error("加载服务目录失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务目录加载完成", zap.Int("entries", len(entries)))

	// 按优先级组装发现策略：label > catalog > pattern
	strategies := []strategy.Strategy{
		strategy.NewLabelStrategy(dockerInspector, appConfig.Docker.MarkerLabel, appConfig.Docker.NameLabel, logger),
		strategy.NewCatalogStrategy(dockerInspector, entries, logger),
		strategy.NewPatternStrategy(dockerInspector, appConfig.Discovery.Patterns, logger),
	}

	// 目录声明的专属健康检查路径
	healthPathOverrides := make(map[string]string)
	for _, entry := range entries {
		if entry.HealthCheckPath != "" {
			healthPathOverrides[entry.ServiceName] = entry.HealthCheckPath
		}
	}

	httpProber := prober.NewHTTPProber(time.Duration(appConfig.Probe.PathTimeoutSeconds)*time.Second, logger)
	orch := orchestrator.New(strategies, httpProber, orchestrator.Options{
		ProbePaths:          appConfig.Probe.Paths,
		HealthPathOverrides: healthPathOverrides,
		PassTimeout:         time.Duration(appConfig.Discovery.PassTimeoutSeconds) * time.Second,
		ServiceTimeout:      time.Duration(appConfig.Probe.ServiceTimeoutSeconds) * time.Second,
		ProbeConcurrency:    appConfig.Discovery.ProbeConcurrency,
		CacheTTLSeconds:     appConfig.Discovery.CacheTTLSeconds,
	}, logger)

	// 初始化缓存后端
	var store cache.Store
	if appConfig.Cache.Etcd.Enabled {
		etcdStore, err := cache.NewEtcdStore(cache.EtcdConfig{
			Endpoints:   appConfig.Cache.Etcd.Endpoints,
			Username:    appConfig.Cache.Etcd.Username,
			Password:    appConfig.Cache.Etcd.Password,
			DialTimeout: time.Duration(appConfig.Cache.Etcd.DialTimeoutSeconds) * time.Second,
		}, logger)
		if err != nil {
			logger.Error("初始化etcd缓存后端失败", zap.Error(err))
			os.Exit(1)
		}
		defer etcdStore.Close()
		store = etcdStore
		logger.Info("使用etcd缓存后端", zap.Any("endpoints", appConfig.Cache.Etcd.Endpoints))
	} else {
		store = cache.NewMemoryStore()
	}

	// 启动API服务
	handler := apihandler.NewAPIHandler(appConfig, logger, facade.New(orch, store, logger))
	if err := handler.Start(); err != nil {
		logger.Error("启动API服务失败", zap.Error(err))
		os.Exit(1)
	}

	// 等待信号以优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("接收到关闭信号，正在优雅关闭...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := handler.Shutdown(shutdownCtx); err != nil {
		logger.Error("关闭API服务失败", zap.Error(err))
	}
}
