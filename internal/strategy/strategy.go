package strategy

import (
	"context"

	"github.com/hewenyu/stack-discovery/pkg/model"
)

// Strategy 定义服务发现策略接口
// 策略按固定优先级顺序执行：label > catalog > pattern
// existing是更高优先级策略已发现的记录（按服务名索引），策略必须跳过其中已识别的服务
type Strategy interface {
	// Name 返回策略名称，用于日志
	Name() string

	// Discover 执行一次发现，返回新增的服务记录
	// 容器运行时不可达时返回包装了inspector.ErrRuntimeUnavailable的错误，
	// 同时仍可返回不依赖运行时的记录（如目录虚拟条目）
	Discover(ctx context.Context, existing map[string]model.ServiceRecord) ([]model.ServiceRecord, error)
}

// alreadyDiscovered 检查服务名或容器名是否已被更高优先级策略识别
func alreadyDiscovered(existing map[string]model.ServiceRecord, serviceName, containerName string) bool {
	if _, ok := existing[serviceName]; ok {
		return true
	}
	if containerName == "" {
		return false
	}
	for _, record := range existing {
		if record.ContainerName == containerName {
			return true
		}
	}
	return false
}

// dedupeEndpoints 保证(path, method)组合在端点列表内唯一，保留首次出现的条目
func dedupeEndpoints(endpoints []model.EndpointInfo) []model.EndpointInfo {
	if len(endpoints) == 0 {
		return nil
	}

	type endpointKey struct {
		path   string
		method string
	}

	seen := make(map[endpointKey]struct{}, len(endpoints))
	result := make([]model.EndpointInfo, 0, len(endpoints))
	for _, endpoint := range endpoints {
		key := endpointKey{path: endpoint.Path, method: endpoint.Method}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, endpoint)
	}
	return result
}
