package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	// 开发模式与生产模式都应能初始化
	for _, development := range []bool{true, false} {
		logger, err := NewLogger(development)
		require.NoError(t, err, "日志初始化应成功")
		require.NotNil(t, logger, "日志器不应为nil")

		// 日志内容无法直接断言，只验证各级别方法可安全调用
		assert.NotPanics(t, func() {
			logger.Debug("调试日志", zap.String("key", "value"))
			logger.Info("信息日志", zap.String("key", "value"))
			logger.Warn("警告日志", zap.String("key", "value"))
			logger.Error("错误日志", zap.String("key", "value"))
			// Fatal会调用os.Exit，不在此测试
		}, "日志方法不应panic")
	}
}
