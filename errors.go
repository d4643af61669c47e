package main

import (
	"fmt"
)

// ==================== 错误码常量 ====================

const (
	// 配置相关错误码
	ErrCodeInvalidConfig    = "INVALID_CONFIG"
	ErrCodeNoKeysConfigured = "NO_KEYS_CONFIGURED"

	// 生成流水线错误码
	ErrCodeGenerationFailed = "GENERATION_FAILED"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeUpstreamAPI      = "UPSTREAM_API_ERROR"
)

// ==================== AppError - 统一错误类型 ====================

// AppError 应用错误结构
// 提供统一的错误处理机制，包含错误码、消息和底层原因
type AppError struct {
	Code    string // 错误码（用于客户端识别错误类型）
	Message string // 人类可读的错误消息
	Cause   error  // 底层原因（可选）
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 支持 Go 1.13+ 的 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ==================== 错误构造函数 ====================

// NewAppError 创建新的应用错误
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorf 创建新的应用错误（带格式化消息）
func NewAppErrorf(code string, cause error, format string, args ...any) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// ==================== 配置错误 ====================

// ErrInvalidConfig 无效配置错误
func ErrInvalidConfig(field string, reason string) *AppError {
	return NewAppErrorf(
		ErrCodeInvalidConfig,
		nil,
		"Invalid configuration for %s: %s",
		field, reason,
	)
}

// ErrNoKeysConfigured 未配置 Groq API key 错误
func ErrNoKeysConfigured() *AppError {
	return NewAppError(
		ErrCodeNoKeysConfigured,
		"No Groq API keys configured",
		nil,
	)
}

// ==================== 生成流水线错误 ====================

// ErrGenerationFailed 代码生成失败错误
func ErrGenerationFailed(cause error) *AppError {
	return NewAppError(
		ErrCodeGenerationFailed,
		"Failed to generate animation code",
		cause,
	)
}

// ErrRenderFailed 渲染失败错误
func ErrRenderFailed(cause error) *AppError {
	return NewAppError(
		ErrCodeRenderFailed,
		"Failed to render the animation",
		cause,
	)
}

// ErrRenderTimeout 渲染超时错误
func ErrRenderTimeout(timeout string) *AppError {
	return NewAppErrorf(
		ErrCodeRenderTimeout,
		nil,
		"Rendering exceeded the %s time limit",
		timeout,
	)
}

// ErrUpstreamAPI 上游 API 错误
func ErrUpstreamAPI(status int, body string) *AppError {
	return NewAppErrorf(
		ErrCodeUpstreamAPI,
		nil,
		"Groq API returned status %d: %s",
		status, body,
	)
}
