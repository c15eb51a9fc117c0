package model

import "time"

// HealthStatus 表示服务健康状态
type HealthStatus string

const (
	// HealthStatusHealthy 健康状态
	HealthStatusHealthy HealthStatus = "healthy"
	// HealthStatusUnhealthy 不健康状态
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	// HealthStatusUnknown 未知状态
	HealthStatusUnknown HealthStatus = "unknown"
)

// DiscoveryMethod 表示服务的发现来源
type DiscoveryMethod string

const (
	// DiscoveryMethodLabel 通过容器标签发现
	DiscoveryMethodLabel DiscoveryMethod = "label"
	// DiscoveryMethodCatalog 通过服务目录匹配到真实容器
	DiscoveryMethodCatalog DiscoveryMethod = "catalog"
	// DiscoveryMethodPattern 通过命名模式启发式发现
	DiscoveryMethodPattern DiscoveryMethod = "pattern"
	// DiscoveryMethodVirtual 目录中存在但没有运行容器的虚拟条目
	DiscoveryMethodVirtual DiscoveryMethod = "virtual"
)

// Rank 返回发现方式的优先级，数值越小优先级越高
// 优先级顺序：label > catalog(真实容器) > pattern > virtual
func (m DiscoveryMethod) Rank() int {
	switch m {
	case DiscoveryMethodLabel:
		return 0
	case DiscoveryMethodCatalog:
		return 1
	case DiscoveryMethodPattern:
		return 2
	case DiscoveryMethodVirtual:
		return 3
	default:
		return 4
	}
}

// EndpointInfo 表示服务暴露的一个路由
type EndpointInfo struct {
	Path        string `json:"path" mapstructure:"path"`
	Method      string `json:"method" mapstructure:"method"`
	Description string `json:"description,omitempty" mapstructure:"description"`
}

// ServiceRecord 表示一次发现过程中识别出的一个服务
type ServiceRecord struct {
	ServiceName     string            `json:"service_name"`             // 服务名称，单次发现结果内唯一
	ContainerName   string            `json:"container_name,omitempty"` // 容器名称，虚拟条目为空
	BaseURL         string            `json:"base_url,omitempty"`       // 解析出的网络地址
	Status          HealthStatus      `json:"status"`                   // 健康状态
	Endpoints       []EndpointInfo    `json:"endpoints,omitempty"`      // 已知路由列表
	LastHeartbeat   *time.Time        `json:"last_heartbeat,omitempty"` // 最近一次健康探测成功时间
	ContainerID     string            `json:"container_id,omitempty"`   // 容器ID，虚拟条目为空
	Image           string            `json:"image,omitempty"`          // 容器镜像
	Labels          map[string]string `json:"labels,omitempty"`         // 容器标签
	DiscoveryMethod DiscoveryMethod   `json:"discovery_method"`         // 发现来源
}

// CacheStatus 表示缓存条目的新鲜程度
type CacheStatus string

const (
	// CacheStatusFresh 缓存仍在TTL内
	CacheStatusFresh CacheStatus = "fresh"
	// CacheStatusStale 缓存已过期但仍被用于降级响应
	CacheStatusStale CacheStatus = "stale"
)

// HealthSummary 按健康状态汇总的服务统计
type HealthSummary struct {
	Total       int         `json:"total"`
	Healthy     int         `json:"healthy"`
	Unhealthy   int         `json:"unhealthy"`
	Unknown     int         `json:"unknown"`
	LastUpdated time.Time   `json:"last_updated"`
	CacheStatus CacheStatus `json:"cache_status"`
}

// NewHealthSummary 根据服务记录集合计算健康统计
func NewHealthSummary(records map[string]ServiceRecord, lastUpdated time.Time, cacheStatus CacheStatus) HealthSummary {
	summary := HealthSummary{
		Total:       len(records),
		LastUpdated: lastUpdated,
		CacheStatus: cacheStatus,
	}
	for _, record := range records {
		switch record.Status {
		case HealthStatusHealthy:
			summary.Healthy++
		case HealthStatusUnhealthy:
			summary.Unhealthy++
		default:
			summary.Unknown++
		}
	}
	return summary
}
