package catalog

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/hewenyu/stack-discovery/pkg/model"
)

// Load 从YAML文件加载静态服务目录
// path为空表示未配置目录，返回空列表；目录在启动时加载一次，不支持热更新
func Load(path string) ([]model.CatalogEntry, error) {
	if path == "" {
		return nil, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取服务目录文件失败: %w", err)
	}

	var entries []model.CatalogEntry
	if err := v.UnmarshalKey("services", &entries); err != nil {
		return nil, fmt.Errorf("解析服务目录失败: %w", err)
	}

	// 目录是运维人员手工维护的，配置错误应在启动时暴露
	seen := make(map[string]struct{}, len(entries))
	for i, entry := range entries {
		if entry.ServiceName == "" {
			return nil, fmt.Errorf("服务目录第%d项缺少service_name", i+1)
		}
		if _, ok := seen[entry.ServiceName]; ok {
			return nil, fmt.Errorf("服务目录中service_name重复: %s", entry.ServiceName)
		}
		seen[entry.ServiceName] = struct{}{}
	}

	return entries, nil
}
