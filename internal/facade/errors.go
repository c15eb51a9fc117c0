package facade

import "errors"

// 定义错误代码
const (
	// ErrNotFound 请求的服务不存在
	ErrNotFound = iota + 1
	// ErrDiscoveryFailed 发现过程失败且没有可用缓存
	ErrDiscoveryFailed
)

// Error 定义查询门面可能返回的错误类型
type Error struct {
	Code    int
	Message string
}

// Error 实现error接口
func (e *Error) Error() string {
	return e.Message
}

// NewNotFoundError 创建服务不存在错误
func NewNotFoundError(message string) *Error {
	return &Error{Code: ErrNotFound, Message: message}
}

// NewDiscoveryFailedError 创建发现失败错误
func NewDiscoveryFailedError(message string) *Error {
	return &Error{Code: ErrDiscoveryFailed, Message: message}
}

// IsNotFound 检查错误是否为服务不存在
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrNotFound
}

// IsDiscoveryFailed 检查错误是否为发现失败
func IsDiscoveryFailed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrDiscoveryFailed
}
