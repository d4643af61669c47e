package main

import (
	"context"
	"time"
)

// ==================== 接口定义 ====================

// Logger 日志接口
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Fatal(format string, args ...any)
}

// Cache 定义缓存接口
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, duration time.Duration)
	Stop()
}

// StorageInterface 存储接口
type StorageInterface interface {
	SaveStats(stats *RequestStats) error
	LoadStats() (*RequestStats, error)
	Close() error
}

// KeyManager API key 池管理器接口
type KeyManager interface {
	AcquireKey(ctx context.Context) (*GroqKey, error)
	ReleaseKey(key *GroqKey)
	CooldownKey(key *GroqKey, duration time.Duration)
	GetKeyCount() int
	GetAvailableCount() int
	Close() error
}

// CodeGenerator 代码生成器接口
// 任务流水线依赖该接口而非具体实现，方便测试中替换为桩
type CodeGenerator interface {
	EnhancePrompt(ctx context.Context, prompt, model string) string
	GenerateCode(ctx context.Context, enhancedPrompt, model string) (string, error)
}

// VideoRenderer 视频渲染器接口
type VideoRenderer interface {
	Render(ctx context.Context, code, quality, outputPath string) (*RenderResult, error)
}

// MetricsCollector 定义性能指标收集接口
type MetricsCollector interface {
	// HTTP 请求指标
	RecordHTTPRequest(duration time.Duration)
	RecordHTTPError()

	// 缓存指标
	RecordCacheHit()
	RecordCacheMiss()

	// key 池指标
	RecordKeyPoolWait(duration time.Duration)
	RecordKeyPoolError()
}

// ==================== Nop 实现（用于测试和默认值） ====================

// NopLogger 空日志实现
type NopLogger struct{}

func (*NopLogger) Debug(format string, args ...any) {}
func (*NopLogger) Info(format string, args ...any)  {}
func (*NopLogger) Warn(format string, args ...any)  {}
func (*NopLogger) Error(format string, args ...any) {}
func (*NopLogger) Fatal(format string, args ...any) {}

// NopMetrics 空指标收集器实现
type NopMetrics struct{}

func (*NopMetrics) RecordHTTPRequest(duration time.Duration) {}
func (*NopMetrics) RecordHTTPError()                         {}
func (*NopMetrics) RecordCacheHit()                          {}
func (*NopMetrics) RecordCacheMiss()                         {}
func (*NopMetrics) RecordKeyPoolWait(duration time.Duration) {}
func (*NopMetrics) RecordKeyPoolError()                      {}

// ==================== 编译时接口实现验证 ====================
// 确保具体类型正确实现了接口

var (
	_ Logger           = (*AppLogger)(nil)
	_ Logger           = (*NopLogger)(nil)
	_ Cache            = (*LRUCache)(nil)
	_ StorageInterface = (*FileStorage)(nil)
	_ StorageInterface = (*RedisStorage)(nil)
	_ KeyManager       = (*PooledKeyManager)(nil)
	_ CodeGenerator    = (*GroqGenerator)(nil)
	_ VideoRenderer    = (*ManimRenderer)(nil)
	_ MetricsCollector = (*MetricsService)(nil)
	_ MetricsCollector = (*NopMetrics)(nil)
)
