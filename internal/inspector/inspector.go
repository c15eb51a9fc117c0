package inspector

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrRuntimeUnavailable 表示容器运行时不可达
// 调用方应将其视为降级信号而非致命错误：发现过程继续，仅缺少真实容器数据
var ErrRuntimeUnavailable = errors.New("容器运行时不可用")

// PortMapping 表示容器的一条端口映射
type PortMapping struct {
	HostIP        string `json:"host_ip,omitempty"`
	HostPort      uint16 `json:"host_port"`
	ContainerPort uint16 `json:"container_port"`
	Protocol      string `json:"protocol"`
}

// RawContainer 表示从容器运行时读取的原始容器信息
type RawContainer struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Image   string            `json:"image"`
	Labels  map[string]string `json:"labels"`
	Ports   []PortMapping     `json:"ports"`
	Running bool              `json:"running"`
}

// PrimaryBaseURL 根据第一个已发布端口解析服务基础地址
// 没有发布端口时返回空字符串，由调用方将状态置为unknown
func (c RawContainer) PrimaryBaseURL() string {
	for _, p := range c.Ports {
		if p.HostPort == 0 {
			continue
		}
		host := p.HostIP
		if host == "" || host == "0.0.0.0" || host == "::" {
			host = "localhost"
		}
		return fmt.Sprintf("http://%s:%d", host, p.HostPort)
	}
	return ""
}

// ServiceName 从指定标签提取服务名称，缺失时回退到容器名
func (c RawContainer) ServiceName(nameLabel string) string {
	if name, ok := c.Labels[nameLabel]; ok && name != "" {
		return name
	}
	return c.Name
}

// Inspector 定义容器运行时的只读查询接口
// 实现不得向运行时发出任何变更类调用（启动、停止、重启等）
type Inspector interface {
	// ListContainers 列出运行中的容器，labelFilter形如"key=value"，为空时不过滤
	// 运行时不可达时返回包装了ErrRuntimeUnavailable的错误
	ListContainers(ctx context.Context, labelFilter string) ([]RawContainer, error)
}

// NormalizeContainerName 去除运行时返回的容器名前导斜杠
func NormalizeContainerName(name string) string {
	return strings.TrimPrefix(name, "/")
}
