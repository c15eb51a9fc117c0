package apihandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/hewenyu/stack-discovery/internal/cache"
	"github.com/hewenyu/stack-discovery/internal/config"
	"github.com/hewenyu/stack-discovery/internal/facade"
	"github.com/hewenyu/stack-discovery/internal/inspector"
	"github.com/hewenyu/stack-discovery/internal/orchestrator"
	"github.com/hewenyu/stack-discovery/internal/prober"
	"github.com/hewenyu/stack-discovery/internal/strategy"
	"github.com/hewenyu/stack-discovery/pkg/model"
)

// MockLogger 实现config.Logger接口，用于测试
type MockLogger struct{}

func (l *MockLogger) Debug(msg string, fields ...zapcore.Field) {}
func (l *MockLogger) Info(msg string, fields ...zapcore.Field)  {}
func (l *MockLogger) Warn(msg string, fields ...zapcore.Field)  {}
func (l *MockLogger) Error(msg string, fields ...zapcore.Field) {}
func (l *MockLogger) Fatal(msg string, fields ...zapcore.Field) {}

// healthyProber 将所有有地址的服务判定为健康
type healthyProber struct{}

func (p *healthyProber) Probe(ctx context.Context, baseURL string, paths []string) prober.Verdict {
	return prober.Verdict{Status: model.HealthStatusHealthy, CheckedAt: time.Now()}
}

// newTestHandler 构建带内存缓存和静态容器列表的测试用处理器
func newTestHandler(insp inspector.Inspector) *EchoHandler {
	logger := &MockLogger{}
	cfg := &config.Config{}
	cfg.API.ListenAddress = "localhost"
	cfg.API.Port = 8085

	strategies := []strategy.Strategy{
		strategy.NewLabelStrategy(insp, "service-marker", "service-name", logger),
		strategy.NewCatalogStrategy(insp, nil, logger),
		strategy.NewPatternStrategy(insp, []string{"_service"}, logger),
	}
	orch := orchestrator.New(strategies, &healthyProber{}, orchestrator.Options{}, logger)
	f := facade.New(orch, cache.NewMemoryStore(), logger)

	handler := &EchoHandler{
		server: echo.New(),
		cfg:    cfg,
		logger: logger,
		facade: f,
	}
	handler.registerRoutes()
	return handler
}

func labeledContainer(id, name string, port uint16) inspector.RawContainer {
	return inspector.RawContainer{
		ID:      id,
		Name:    name,
		Image:   name + ":latest",
		Labels:  map[string]string{"service-marker": "true"},
		Ports:   []inspector.PortMapping{{HostPort: port, ContainerPort: 8000, Protocol: "tcp"}},
		Running: true,
	}
}

func doRequest(handler *EchoHandler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	handler.server.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	handler := newTestHandler(inspector.NewStaticInspector())

	rec := doRequest(handler, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
	assert.Contains(t, response, "timestamp")
	assert.Equal(t, "stack-discovery-api", response["service"])
}

func TestListServices(t *testing.T) {
	handler := newTestHandler(inspector.NewStaticInspector(
		labeledContainer("c1", "goal-svc", 8081),
		labeledContainer("c2", "wp-svc", 8082),
	))

	rec := doRequest(handler, http.MethodGet, "/api/v1/services")
	assert.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Code int    `json:"code"`
		Data struct {
			Services    []model.ServiceRecord `json:"services"`
			Count       int                   `json:"count"`
			CacheStatus model.CacheStatus     `json:"cache_status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, 2, response.Data.Count)
	assert.Equal(t, model.CacheStatusFresh, response.Data.CacheStatus)
	require.Len(t, response.Data.Services, 2)
	assert.Equal(t, "goal-svc", response.Data.Services[0].ServiceName)
	assert.Equal(t, "http://localhost:8081", response.Data.Services[0].BaseURL)
	assert.Equal(t, model.DiscoveryMethodLabel, response.Data.Services[0].DiscoveryMethod)
}

func TestListServicesCacheParamAliases(t *testing.T) {
	insp := inspector.NewStaticInspector(labeledContainer("c1", "goal-svc", 8081))
	handler := newTestHandler(insp)

	rec := doRequest(handler, http.MethodGet, "/api/v1/services")
	assert.Equal(t, http.StatusOK, rec.Code)
	calls := insp.Calls()

	// 两种参数写法都应绕过缓存，各触发一次新的发现过程
	rec = doRequest(handler, http.MethodGet, "/api/v1/services?use_cache=false")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(handler, http.MethodGet, "/api/v1/services?useCache=false")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, calls+6, insp.Calls())

	// 缓存新鲜时默认命中缓存
	rec = doRequest(handler, http.MethodGet, "/api/v1/services")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, calls+6, insp.Calls())
}

func TestGetServiceNotFound(t *testing.T) {
	handler := newTestHandler(inspector.NewStaticInspector())

	rec := doRequest(handler, http.MethodGet, "/api/v1/services/no-such-service")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var response Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, http.StatusNotFound, response.Code)
}

func TestGetService(t *testing.T) {
	handler := newTestHandler(inspector.NewStaticInspector(
		labeledContainer("c1", "goal-svc", 8081),
	))

	rec := doRequest(handler, http.MethodGet, "/api/v1/services/goal-svc")
	assert.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Code int                 `json:"code"`
		Data model.ServiceRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "goal-svc", response.Data.ServiceName)
	assert.Equal(t, model.HealthStatusHealthy, response.Data.Status)
}

func TestHealthSummary(t *testing.T) {
	handler := newTestHandler(inspector.NewStaticInspector(
		labeledContainer("c1", "goal-svc", 8081),
	))

	rec := doRequest(handler, http.MethodGet, "/api/v1/health/summary")
	assert.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Code int                 `json:"code"`
		Data model.HealthSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Data.Total)
	assert.Equal(t, 1, response.Data.Healthy)
	assert.Equal(t, model.CacheStatusFresh, response.Data.CacheStatus)
}

func TestRefreshEndpoint(t *testing.T) {
	insp := inspector.NewStaticInspector(labeledContainer("c1", "goal-svc", 8081))
	handler := newTestHandler(insp)

	// 先填充缓存
	rec := doRequest(handler, http.MethodGet, "/api/v1/services")
	assert.Equal(t, http.StatusOK, rec.Code)

	// 缓存之后新启动的容器
	insp.SetContainers(
		labeledContainer("c1", "goal-svc", 8081),
		labeledContainer("c2", "wp-svc", 8082),
	)

	rec = doRequest(handler, http.MethodPost, "/api/v1/services/refresh")
	assert.Equal(t, http.StatusOK, rec.Code)

	// 刷新后列表应包含新容器
	rec = doRequest(handler, http.MethodGet, "/api/v1/services")
	var response struct {
		Data struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Data.Count)
}

func TestDiscoveryFailureWithoutCache(t *testing.T) {
	insp := inspector.NewStaticInspector()
	insp.SetUnavailable(true)
	handler := newTestHandler(insp)

	rec := doRequest(handler, http.MethodGet, "/api/v1/services")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var response Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, http.StatusServiceUnavailable, response.Code)
}

func TestShutdown(t *testing.T) {
	handler := newTestHandler(inspector.NewStaticInspector())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, handler.Shutdown(ctx))
}
