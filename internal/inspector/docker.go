package inspector

import (
	"context"
	"fmt"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"
	"go.uber.org/zap"

	"github.com/hewenyu/stack-discovery/internal/config"
)

// DockerInspector 基于Docker Engine API实现Inspector接口
// 仅使用只读的列表查询，连接参数来自环境变量（如DOCKER_HOST）
type DockerInspector struct {
	client *client.Client
	retry  *RetryPolicy
	logger config.Logger
}

// NewDockerInspector 创建Docker容器查询器
func NewDockerInspector(retry *RetryPolicy, logger config.Logger) (*DockerInspector, error) {
	c, err := client.New(
		client.FromEnv,
	)
	if err != nil {
		return nil, fmt.Errorf("创建Docker客户端失败: %w", err)
	}

	if retry == nil {
		retry = DefaultRetryPolicy()
	}

	return &DockerInspector{
		client: c,
		retry:  retry,
		logger: logger,
	}, nil
}

// ListContainers 列出运行中的容器，支持单个标签过滤
func (d *DockerInspector) ListContainers(ctx context.Context, labelFilter string) ([]RawContainer, error) {
	opts := client.ContainerListOptions{}
	if labelFilter != "" {
		opts.Filters = make(client.Filters).Add("label", labelFilter)
	}

	var result client.ContainerListResult
	err := d.retry.Execute(ctx, func() error {
		var listErr error
		result, listErr = d.client.ContainerList(ctx, opts)
		if listErr != nil {
			d.logger.Warn("容器列表查询失败，准备重试", zap.Error(listErr))
		}
		return listErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuntimeUnavailable, err)
	}

	containers := make([]RawContainer, 0, len(result.Items))
	for _, item := range result.Items {
		containers = append(containers, rawFromSummary(item))
	}
	return containers, nil
}

// rawFromSummary 将Engine API的容器摘要转换为内部表示
func rawFromSummary(item container.Summary) RawContainer {
	name := ""
	if len(item.Names) > 0 {
		name = NormalizeContainerName(item.Names[0])
	}

	ports := make([]PortMapping, 0, len(item.Ports))
	for _, p := range item.Ports {
		hostIP := ""
		// 未指定或通配地址留空，由PrimaryBaseURL回退到localhost
		if p.IP.IsValid() && !p.IP.IsUnspecified() {
			hostIP = p.IP.String()
		}
		ports = append(ports, PortMapping{
			HostIP:        hostIP,
			HostPort:      p.PublicPort,
			ContainerPort: p.PrivatePort,
			Protocol:      string(p.Type),
		})
	}

	return RawContainer{
		ID:      item.ID,
		Name:    name,
		Image:   item.Image,
		Labels:  item.Labels,
		Ports:   ports,
		Running: item.State == "running",
	}
}
