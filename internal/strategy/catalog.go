package strategy

import (
	"context"

	"go.uber.org/zap"

	"github.com/hewenyu/stack-discovery/internal/config"
	"github.com/hewenyu/stack-discovery/internal/inspector"
	"github.com/hewenyu/stack-discovery/pkg/model"
)

// CatalogStrategy 根据静态服务目录发现服务
// 目录中存在但没有运行容器的服务会生成虚拟条目，
// 运维人员因此始终能看到完整的服务清单，而不是悄无声息的缺失
type CatalogStrategy struct {
	inspector inspector.Inspector
	entries   []model.CatalogEntry
	logger    config.Logger
}

// NewCatalogStrategy 创建目录发现策略
func NewCatalogStrategy(insp inspector.Inspector, entries []model.CatalogEntry, logger config.Logger) *CatalogStrategy {
	return &CatalogStrategy{
		inspector: insp,
		entries:   entries,
		logger:    logger,
	}
}

// Name 返回策略名称
func (s *CatalogStrategy) Name() string {
	return "catalog"
}

// Discover 将目录条目与运行中的容器匹配，未匹配的条目降级为虚拟记录
// 运行时不可达时所有未发现的目录条目都成为虚拟记录，同时返回运行时错误供调用方记录
func (s *CatalogStrategy) Discover(ctx context.Context, existing map[string]model.ServiceRecord) ([]model.ServiceRecord, error) {
	containers, runtimeErr := s.inspector.ListContainers(ctx, "")
	if runtimeErr != nil {
		s.logger.Warn("目录策略无法访问容器运行时，全部条目将降级为虚拟记录", zap.Error(runtimeErr))
	}

	byName := make(map[string]inspector.RawContainer, len(containers))
	for _, c := range containers {
		byName[c.Name] = c
	}

	records := make([]model.ServiceRecord, 0, len(s.entries))
	for _, entry := range s.entries {
		if alreadyDiscovered(existing, entry.ServiceName, entry.ExpectedContainerName) {
			continue
		}

		endpoints := dedupeEndpoints(entry.KnownEndpoints)

		if c, ok := byName[entry.ExpectedContainerName]; ok {
			// 找到真实容器，用容器元数据充实目录记录
			baseURL := c.PrimaryBaseURL()
			if baseURL == "" {
				baseURL = entry.BaseURLTemplate
			}
			records = append(records, model.ServiceRecord{
				ServiceName:     entry.ServiceName,
				ContainerName:   c.Name,
				BaseURL:         baseURL,
				Status:          model.HealthStatusUnknown,
				Endpoints:       endpoints,
				ContainerID:     c.ID,
				Image:           c.Image,
				Labels:          c.Labels,
				DiscoveryMethod: model.DiscoveryMethodCatalog,
			})
			continue
		}

		// 没有运行容器的目录服务生成虚拟条目
		records = append(records, model.ServiceRecord{
			ServiceName:     entry.ServiceName,
			BaseURL:         entry.BaseURLTemplate,
			Status:          model.HealthStatusUnknown,
			Endpoints:       endpoints,
			DiscoveryMethod: model.DiscoveryMethodVirtual,
		})
	}

	s.logger.Debug("目录发现完成", zap.Int("count", len(records)))
	return records, runtimeErr
}
