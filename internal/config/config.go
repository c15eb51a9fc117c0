package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用程序配置结构
type Config struct {
	// Docker容器运行时配置
	Docker struct {
		// MarkerLabel 标识可发现服务的标签，取值必须为true
		MarkerLabel string `mapstructure:"marker_label"`
		// NameLabel 指定服务名称的标签，缺失时从容器名推导
		NameLabel string `mapstructure:"name_label"`
		// RetryMaxAttempts 运行时连接失败的最大重试次数
		RetryMaxAttempts int `mapstructure:"retry_max_attempts"`
		// RetryInitialIntervalMs 重试退避的初始间隔（毫秒）
		RetryInitialIntervalMs int `mapstructure:"retry_initial_interval_ms"`
	} `mapstructure:"docker"`

	// 服务发现配置
	Discovery struct {
		// CatalogPath 静态服务目录文件路径，为空时目录为空
		CatalogPath string `mapstructure:"catalog_path"`
		// Patterns 命名模式匹配使用的子串列表
		Patterns []string `mapstructure:"patterns"`
		// PassTimeoutSeconds 单次发现过程的总超时（秒）
		PassTimeoutSeconds int `mapstructure:"pass_timeout_seconds"`
		// ProbeConcurrency 健康探测最大并发数
		ProbeConcurrency int `mapstructure:"probe_concurrency"`
		// CacheTTLSeconds 发现结果缓存TTL（秒）
		CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
	} `mapstructure:"discovery"`

	// 健康探测配置
	Probe struct {
		// Paths 候选探测路径，按优先级排列
		Paths []string `mapstructure:"paths"`
		// PathTimeoutSeconds 单个路径的探测超时（秒）
		PathTimeoutSeconds int `mapstructure:"path_timeout_seconds"`
		// ServiceTimeoutSeconds 单个服务所有路径的总超时（秒）
		ServiceTimeoutSeconds int `mapstructure:"service_timeout_seconds"`
	} `mapstructure:"probe"`

	// 缓存后端配置
	Cache struct {
		// 可选的etcd外部缓存后端，默认使用内存缓存
		Etcd struct {
			Enabled            bool     `mapstructure:"enabled"`
			Endpoints          []string `mapstructure:"endpoints"`
			Username           string   `mapstructure:"username"`
			Password           string   `mapstructure:"password"`
			DialTimeoutSeconds int      `mapstructure:"dial_timeout_seconds"`
		} `mapstructure:"etcd"`
	} `mapstructure:"cache"`

	// API服务配置
	API struct {
		ListenAddress string `mapstructure:"listen_address"`
		Port          int    `mapstructure:"port"`
	} `mapstructure:"api"`

	// 日志配置
	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
}

// LoadConfig 从文件和环境变量加载配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 如果指定了配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// 设置配置文件名和路径
		v.SetConfigName("config")                 // 配置文件名（无扩展名）
		v.AddConfigPath(".")                      // 当前目录
		v.AddConfigPath("./configs")              // configs目录
		v.AddConfigPath("$HOME/.stack-discovery") // 用户目录
		v.AddConfigPath("/etc/stack-discovery")   // 系统目录
	}

	// 配置文件格式
	v.SetConfigType("yaml")

	// 尝试从配置文件加载
	if err := v.ReadInConfig(); err != nil {
		// 如果找不到配置文件，仅记录警告；其他错误则返回
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件错误: %w", err)
		}
	}

	// 绑定环境变量
	v.SetEnvPrefix("STACK_DISCOVERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 从环境变量覆盖
	bindEnvVariables(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置错误: %w", err)
	}

	return &config, nil
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	// Docker默认配置
	v.SetDefault("docker.marker_label", "service-marker")
	v.SetDefault("docker.name_label", "service-name")
	v.SetDefault("docker.retry_max_attempts", 3)
	v.SetDefault("docker.retry_initial_interval_ms", 200)

	// 服务发现默认配置
	v.SetDefault("discovery.catalog_path", "")
	v.SetDefault("discovery.patterns", []string{"_service", "service_", "-svc"})
	v.SetDefault("discovery.pass_timeout_seconds", 30)
	v.SetDefault("discovery.probe_concurrency", 10)
	v.SetDefault("discovery.cache_ttl_seconds", 300)

	// 健康探测默认配置
	v.SetDefault("probe.paths", []string{"/health", "/healthz", "/ping", "/"})
	v.SetDefault("probe.path_timeout_seconds", 5)
	v.SetDefault("probe.service_timeout_seconds", 10)

	// 缓存后端默认配置
	v.SetDefault("cache.etcd.enabled", false)
	v.SetDefault("cache.etcd.endpoints", []string{"localhost:2379"})
	v.SetDefault("cache.etcd.username", "")
	v.SetDefault("cache.etcd.password", "")
	v.SetDefault("cache.etcd.dial_timeout_seconds", 5)

	// API服务默认配置
	v.SetDefault("api.listen_address", "0.0.0.0")
	v.SetDefault("api.port", 8085)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", true)
}

// bindEnvVariables 绑定特定的环境变量
func bindEnvVariables(v *viper.Viper) {
	v.BindEnv("discovery.catalog_path", "STACK_DISCOVERY_CATALOG_PATH")
	v.BindEnv("discovery.cache_ttl_seconds", "STACK_DISCOVERY_CACHE_TTL_SECONDS")
	v.BindEnv("api.port", "STACK_DISCOVERY_API_PORT")
	v.BindEnv("cache.etcd.endpoints", "STACK_DISCOVERY_ETCD_ENDPOINTS")
}

// GetDefaultConfigPath 返回默认配置文件路径
func GetDefaultConfigPath() string {
	// 按顺序检查不同位置的配置文件
	paths := []string{
		"./config.yaml",
		"./configs/config.yaml",
		os.Getenv("HOME") + "/.stack-discovery/config.yaml",
		"/etc/stack-discovery/config.yaml",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
