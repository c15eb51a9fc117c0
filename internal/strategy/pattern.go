package strategy

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hewenyu/stack-discovery/internal/config"
	"github.com/hewenyu/stack-discovery/internal/inspector"
	"github.com/hewenyu/stack-discovery/pkg/model"
)

// PatternStrategy 通过容器名和镜像名的子串匹配发现服务
// 这是召回率优先的兜底启发式：误报只表现为多出的条目，可被运维人员忽略
type PatternStrategy struct {
	inspector inspector.Inspector
	patterns  []string
	logger    config.Logger
}

// NewPatternStrategy 创建命名模式发现策略
func NewPatternStrategy(insp inspector.Inspector, patterns []string, logger config.Logger) *PatternStrategy {
	return &PatternStrategy{
		inspector: insp,
		patterns:  patterns,
		logger:    logger,
	}
}

// Name 返回策略名称
func (s *PatternStrategy) Name() string {
	return "pattern"
}

// Discover 扫描全部运行中容器，名称或镜像匹配任一模式即生成记录
func (s *PatternStrategy) Discover(ctx context.Context, existing map[string]model.ServiceRecord) ([]model.ServiceRecord, error) {
	if len(s.patterns) == 0 {
		return nil, nil
	}

	containers, err := s.inspector.ListContainers(ctx, "")
	if err != nil {
		return nil, err
	}

	records := make([]model.ServiceRecord, 0)
	seen := make(map[string]struct{})
	for _, c := range containers {
		if c.Name == "" {
			continue
		}
		if !s.matches(c) {
			continue
		}
		if _, ok := seen[c.Name]; ok {
			continue
		}
		if alreadyDiscovered(existing, c.Name, c.Name) {
			continue
		}
		seen[c.Name] = struct{}{}

		records = append(records, model.ServiceRecord{
			ServiceName:     c.Name,
			ContainerName:   c.Name,
			BaseURL:         c.PrimaryBaseURL(),
			Status:          model.HealthStatusUnknown,
			ContainerID:     c.ID,
			Image:           c.Image,
			Labels:          c.Labels,
			DiscoveryMethod: model.DiscoveryMethodPattern,
		})
	}

	s.logger.Debug("模式发现完成", zap.Int("count", len(records)))
	return records, nil
}

// matches 检查容器名或镜像是否包含任一配置的模式子串
func (s *PatternStrategy) matches(c inspector.RawContainer) bool {
	for _, pattern := range s.patterns {
		if pattern == "" {
			continue
		}
		if strings.Contains(c.Name, pattern) || strings.Contains(c.Image, pattern) {
			return true
		}
	}
	return false
}
