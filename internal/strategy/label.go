package strategy

import (
	"context"

	"go.uber.org/zap"

	"github.com/hewenyu/stack-discovery/internal/config"
	"github.com/hewenyu/stack-discovery/internal/inspector"
	"github.com/hewenyu/stack-discovery/pkg/model"
)

// LabelStrategy 通过容器标签发现服务
// 带有标记标签的容器被视为权威的服务声明，优先级最高
type LabelStrategy struct {
	inspector   inspector.Inspector
	markerLabel string
	nameLabel   string
	logger      config.Logger
}

// NewLabelStrategy 创建标签发现策略
// markerLabel标识可发现服务（取值须为true），nameLabel指定服务名称
func NewLabelStrategy(insp inspector.Inspector, markerLabel, nameLabel string, logger config.Logger) *LabelStrategy {
	return &LabelStrategy{
		inspector:   insp,
		markerLabel: markerLabel,
		nameLabel:   nameLabel,
		logger:      logger,
	}
}

// Name 返回策略名称
func (s *LabelStrategy) Name() string {
	return "label"
}

// Discover 列出带标记标签的容器并生成服务记录
func (s *LabelStrategy) Discover(ctx context.Context, existing map[string]model.ServiceRecord) ([]model.ServiceRecord, error) {
	containers, err := s.inspector.ListContainers(ctx, s.markerLabel+"=true")
	if err != nil {
		return nil, err
	}

	records := make([]model.ServiceRecord, 0, len(containers))
	seen := make(map[string]struct{}, len(containers))
	for _, c := range containers {
		serviceName := c.ServiceName(s.nameLabel)
		if serviceName == "" {
			continue
		}
		if _, ok := seen[serviceName]; ok {
			s.logger.Warn("标签发现遇到重名服务，保留先出现的容器",
				zap.String("service", serviceName), zap.String("container", c.Name))
			continue
		}
		if alreadyDiscovered(existing, serviceName, c.Name) {
			continue
		}
		seen[serviceName] = struct{}{}

		// 未发布端口时base_url为空，状态保持unknown，健康探测阶段会跳过
		records = append(records, model.ServiceRecord{
			ServiceName:     serviceName,
			ContainerName:   c.Name,
			BaseURL:         c.PrimaryBaseURL(),
			Status:          model.HealthStatusUnknown,
			ContainerID:     c.ID,
			Image:           c.Image,
			Labels:          c.Labels,
			DiscoveryMethod: model.DiscoveryMethodLabel,
		})
	}

	s.logger.Debug("标签发现完成", zap.Int("count", len(records)))
	return records, nil
}
