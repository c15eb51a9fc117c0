package apihandler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/hewenyu/stack-discovery/internal/config"
	"github.com/hewenyu/stack-discovery/internal/facade"
)

// Response API统一响应结构
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Handler 定义API处理器接口
type Handler interface {
	// Start 启动API服务
	Start() error

	// Shutdown 优雅关闭API服务
	Shutdown(ctx context.Context) error
}

// EchoHandler 实现Handler接口
type EchoHandler struct {
	server *echo.Echo
	cfg    *config.Config
	logger config.Logger
	facade *facade.Facade
}

// NewAPIHandler 创建一个新的API处理器
func NewAPIHandler(cfg *config.Config, logger config.Logger, f *facade.Facade) Handler {
	return &EchoHandler{
		cfg:    cfg,
		logger: logger,
		facade: f,
	}
}

// Start 启动API服务
func (h *EchoHandler) Start() error {
	h.logger.Info("启动API服务",
		zap.String("address", h.cfg.API.ListenAddress),
		zap.Int("port", h.cfg.API.Port))

	// 创建Echo实例
	h.server = echo.New()
	h.server.HideBanner = true

	// 添加中间件
	h.server.Use(middleware.Recover())
	h.server.Use(middleware.Logger())

	// 添加CORS中间件
	h.server.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// 注册路由
	h.registerRoutes()

	// 启动服务（非阻塞）
	go func() {
		addr := fmt.Sprintf("%s:%d", h.cfg.API.ListenAddress, h.cfg.API.Port)
		if err := h.server.Start(addr); err != nil && err != http.ErrServerClosed {
			h.logger.Error("API服务启动失败", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown 优雅关闭API服务
func (h *EchoHandler) Shutdown(ctx context.Context) error {
	h.logger.Info("正在关闭API服务...")

	if h.server != nil {
		if err := h.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("关闭API服务失败: %w", err)
		}
	}
	return nil
}

// registerRoutes 注册全部路由
func (h *EchoHandler) registerRoutes() {
	// 自身健康检查
	h.server.GET("/health", h.handleHealth)

	// API分组，版本v1
	api := h.server.Group("/api/v1")

	services := api.Group("/services")
	services.GET("", h.handleListServices)            // 服务列表
	services.POST("/refresh", h.handleRefresh)        // 强制刷新
	services.GET("/:serviceName", h.handleGetService) // 单个服务
	api.GET("/health/summary", h.handleHealthSummary) // 健康统计
}

// handleHealth 自身健康检查处理函数
func (h *EchoHandler) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "stack-discovery-api",
	})
}

// handleListServices 返回全部已发现服务
func (h *EchoHandler) handleListServices(c echo.Context) error {
	useCache := boolQueryParam(c, true, "use_cache", "useCache")

	records, cacheStatus, err := h.facade.GetAll(c.Request().Context(), useCache)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data: map[string]any{
			"services":     records,
			"count":        len(records),
			"cache_status": cacheStatus,
		},
	})
}

// handleGetService 按名称返回单个服务
func (h *EchoHandler) handleGetService(c echo.Context) error {
	serviceName := c.Param("serviceName")
	useCache := boolQueryParam(c, true, "use_cache", "useCache")

	record, err := h.facade.GetOne(c.Request().Context(), serviceName, useCache)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    record,
	})
}

// handleHealthSummary 返回健康统计
func (h *EchoHandler) handleHealthSummary(c echo.Context) error {
	useCache := boolQueryParam(c, true, "use_cache", "useCache")
	refresh := boolQueryParam(c, false, "refresh")

	summary, err := h.facade.GetHealthSummary(c.Request().Context(), useCache, refresh)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    summary,
	})
}

// handleRefresh 强制执行一次新的发现过程
func (h *EchoHandler) handleRefresh(c echo.Context) error {
	if err := h.facade.Refresh(c.Request().Context()); err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "刷新完成",
	})
}

// errorResponse 将门面错误映射为HTTP响应
func (h *EchoHandler) errorResponse(c echo.Context, err error) error {
	switch {
	case facade.IsNotFound(err):
		return c.JSON(http.StatusNotFound, Response{
			Code:    http.StatusNotFound,
			Message: err.Error(),
		})
	case facade.IsDiscoveryFailed(err):
		return c.JSON(http.StatusServiceUnavailable, Response{
			Code:    http.StatusServiceUnavailable,
			Message: err.Error(),
		})
	default:
		h.logger.Error("请求处理失败", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, Response{
			Code:    http.StatusInternalServerError,
			Message: "内部错误: " + err.Error(),
		})
	}
}

// boolQueryParam 解析布尔查询参数，按顺序尝试多个参数名
// 没有提供或解析失败时使用默认值
func boolQueryParam(c echo.Context, defaultValue bool, names ...string) bool {
	for _, name := range names {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		if value, err := strconv.ParseBool(raw); err == nil {
			return value
		}
	}
	return defaultValue
}
