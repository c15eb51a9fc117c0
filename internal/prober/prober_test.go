package prober

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/hewenyu/stack-discovery/pkg/model"
)

// MockLogger 实现config.Logger接口，用于测试
type MockLogger struct{}

func (l *MockLogger) Debug(msg string, fields ...zapcore.Field) {}
func (l *MockLogger) Info(msg string, fields ...zapcore.Field)  {}
func (l *MockLogger) Warn(msg string, fields ...zapcore.Field)  {}
func (l *MockLogger) Error(msg string, fields ...zapcore.Field) {}
func (l *MockLogger) Fatal(msg string, fields ...zapcore.Field) {}

func newTestProber() *HTTPProber {
	return NewHTTPProber(500*time.Millisecond, &MockLogger{})
}

func TestProbeHealthyService(t *testing.T) {
	// /health返回200
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	verdict := newTestProber().Probe(context.Background(), server.URL, DefaultPaths)
	assert.Equal(t, model.HealthStatusHealthy, verdict.Status)
	assert.Equal(t, "/health", verdict.Path)
	assert.Equal(t, http.StatusOK, verdict.StatusCode)
}

func TestProbeNotFoundIsHealthy(t *testing.T) {
	// 所有路径都404：服务进程存活，应判定为健康
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	verdict := newTestProber().Probe(context.Background(), server.URL, []string{"/health"})
	assert.Equal(t, model.HealthStatusHealthy, verdict.Status)
	assert.Equal(t, http.StatusNotFound, verdict.StatusCode)
}

func TestProbeMethodNotAllowedIsHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer server.Close()

	verdict := newTestProber().Probe(context.Background(), server.URL, []string{"/health"})
	assert.Equal(t, model.HealthStatusHealthy, verdict.Status)
}

func TestProbeServerErrorIsUnhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	verdict := newTestProber().Probe(context.Background(), server.URL, []string{"/health"})
	assert.Equal(t, model.HealthStatusUnhealthy, verdict.Status)
}

func TestProbeConnectionRefusedIsUnhealthy(t *testing.T) {
	// 关闭的服务器拒绝连接，所有路径都失败
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	verdict := newTestProber().Probe(context.Background(), url, DefaultPaths)
	assert.Equal(t, model.HealthStatusUnhealthy, verdict.Status)
}

func TestProbeWithoutBaseURLIsUnknown(t *testing.T) {
	// 无法解析基础地址时不探测
	verdict := newTestProber().Probe(context.Background(), "", DefaultPaths)
	assert.Equal(t, model.HealthStatusUnknown, verdict.Status)
	assert.Empty(t, verdict.Path)
}

func TestProbeStopsAtFirstResponse(t *testing.T) {
	// /health返回404即停止，不再尝试后续路径
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	verdict := newTestProber().Probe(context.Background(), server.URL, DefaultPaths)
	assert.Equal(t, model.HealthStatusHealthy, verdict.Status)
	assert.Equal(t, "/health", verdict.Path)
	assert.Equal(t, []string{"/health"}, paths)
}
