package model

// CatalogEntry 表示服务目录中的一条静态注册信息
// 目录由运维人员维护，启动时加载一次，不支持热更新
type CatalogEntry struct {
	ServiceName           string         `json:"service_name" mapstructure:"service_name"`
	ExpectedContainerName string         `json:"expected_container_name" mapstructure:"expected_container_name"`
	BaseURLTemplate       string         `json:"base_url_template" mapstructure:"base_url_template"`
	KnownEndpoints        []EndpointInfo `json:"known_endpoints,omitempty" mapstructure:"known_endpoints"`
	HealthCheckPath       string         `json:"health_check_path,omitempty" mapstructure:"health_check_path"`
}
