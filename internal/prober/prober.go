package prober

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hewenyu/stack-discovery/internal/config"
	"github.com/hewenyu/stack-discovery/pkg/model"
)

// DefaultPaths 默认候选探测路径，按优先级排列
var DefaultPaths = []string{"/health", "/healthz", "/ping", "/"}

// Verdict 表示一次健康探测的结论
type Verdict struct {
	Status     model.HealthStatus `json:"status"`
	Path       string             `json:"path,omitempty"`        // 得到响应的路径
	StatusCode int                `json:"status_code,omitempty"` // 响应状态码
	CheckedAt  time.Time          `json:"checked_at"`
}

// Prober 定义健康探测接口
type Prober interface {
	// Probe 依次尝试候选路径，返回健康结论
	// baseURL为空时直接返回unknown
	Probe(ctx context.Context, baseURL string, paths []string) Verdict
}

// HTTPProber 基于HTTP HEAD/GET请求实现Prober接口
type HTTPProber struct {
	client      *http.Client
	pathTimeout time.Duration
	logger      config.Logger
}

// NewHTTPProber 创建HTTP健康探测器，pathTimeout限制单个路径的请求耗时
func NewHTTPProber(pathTimeout time.Duration, logger config.Logger) *HTTPProber {
	return &HTTPProber{
		client: &http.Client{
			// 超时由每个路径的上下文控制
			Timeout: 0,
		},
		pathTimeout: pathTimeout,
		logger:      logger,
	}
}

// Probe 依次尝试候选路径，在第一个返回响应的路径处停止
// 所有路径都超时或拒绝连接时判定为unhealthy
func (p *HTTPProber) Probe(ctx context.Context, baseURL string, paths []string) Verdict {
	checkedAt := time.Now()

	// 无法解析基础地址时无从探测
	if baseURL == "" {
		return Verdict{Status: model.HealthStatusUnknown, CheckedAt: checkedAt}
	}

	if len(paths) == 0 {
		paths = DefaultPaths
	}

	base := strings.TrimSuffix(baseURL, "/")
	for _, path := range paths {
		select {
		case <-ctx.Done():
			// 服务级总超时耗尽，按探测失败处理
			return Verdict{Status: model.HealthStatusUnhealthy, CheckedAt: checkedAt}
		default:
		}

		code, ok := p.request(ctx, base+path)
		if !ok {
			continue
		}

		return Verdict{
			Status:     interpretStatusCode(code),
			Path:       path,
			StatusCode: code,
			CheckedAt:  checkedAt,
		}
	}

	return Verdict{Status: model.HealthStatusUnhealthy, CheckedAt: checkedAt}
}

// request 对单个URL发起无副作用请求，优先HEAD，传输失败时回退GET
// 返回状态码以及是否得到了响应
func (p *HTTPProber) request(ctx context.Context, url string) (int, bool) {
	for _, method := range []string{http.MethodHead, http.MethodGet} {
		reqCtx, cancel := context.WithTimeout(ctx, p.pathTimeout)
		req, err := http.NewRequestWithContext(reqCtx, method, url, nil)
		if err != nil {
			cancel()
			return 0, false
		}

		resp, err := p.client.Do(req)
		if err != nil {
			cancel()
			p.logger.Debug("探测请求失败", zap.String("url", url), zap.String("method", method), zap.Error(err))
			continue
		}
		resp.Body.Close()
		cancel()
		return resp.StatusCode, true
	}
	return 0, false
}

// interpretStatusCode 将HTTP状态码解释为健康状态
// 404/405说明服务进程存活且在响应请求，仅该路径未实现，因此同样视为健康；
// 只认200会对故意不暴露探测路径的服务产生误报
func interpretStatusCode(code int) model.HealthStatus {
	switch {
	case code >= 200 && code < 400:
		return model.HealthStatusHealthy
	case code == http.StatusNotFound || code == http.StatusMethodNotAllowed:
		return model.HealthStatusHealthy
	default:
		return model.HealthStatusUnhealthy
	}
}
