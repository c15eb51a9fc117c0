package inspector

import (
	"context"
	"strings"
	"sync"
)

// StaticInspector 是基于静态容器列表的Inspector实现，主要用于测试
type StaticInspector struct {
	mu          sync.RWMutex
	containers  []RawContainer
	unavailable bool
	calls       int
}

// NewStaticInspector 创建静态容器查询器
func NewStaticInspector(containers ...RawContainer) *StaticInspector {
	return &StaticInspector{
		containers: containers,
	}
}

// SetContainers 替换容器列表
func (s *StaticInspector) SetContainers(containers ...RawContainer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.containers = containers
}

// SetUnavailable 模拟容器运行时不可达
func (s *StaticInspector) SetUnavailable(unavailable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = unavailable
}

// Calls 返回ListContainers被调用的次数
func (s *StaticInspector) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

// ListContainers 按标签过滤返回静态容器列表
func (s *StaticInspector) ListContainers(ctx context.Context, labelFilter string) ([]RawContainer, error) {
	s.mu.Lock()
	s.calls++
	unavailable := s.unavailable
	containers := s.containers
	s.mu.Unlock()

	if unavailable {
		return nil, ErrRuntimeUnavailable
	}

	key, value, hasFilter := parseLabelFilter(labelFilter)

	result := make([]RawContainer, 0, len(containers))
	for _, c := range containers {
		if !c.Running {
			continue
		}
		if hasFilter {
			v, ok := c.Labels[key]
			if !ok || (value != "" && v != value) {
				continue
			}
		}
		result = append(result, c)
	}
	return result, nil
}

// parseLabelFilter 解析"key=value"或"key"形式的标签过滤器
func parseLabelFilter(filter string) (key, value string, ok bool) {
	if filter == "" {
		return "", "", false
	}
	parts := strings.SplitN(filter, "=", 2)
	if len(parts) == 2 {
		return parts[0], parts[1], true
	}
	return parts[0], "", true
}
