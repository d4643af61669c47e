package main

import (
	"sync"
	"time"
)

// ==================== 性能指标 ====================

// PerformanceMetrics 性能指标收集器
type PerformanceMetrics struct {
	mu sync.RWMutex

	// HTTP相关指标
	httpRequests    int64
	httpErrors      int64
	avgResponseTime float64

	// 缓存相关指标
	cacheHits    int64
	cacheMisses  int64
	cacheHitRate float64

	// key 池相关指标
	keyPoolWait   int64
	keyPoolErrors int64

	// QPS 计算
	windowStartTime time.Time
	windowRequests  int64
}

// MetricsSnapshot 可序列化的指标快照
type MetricsSnapshot struct {
	HTTPRequests    int64   `json:"http_requests"`
	HTTPErrors      int64   `json:"http_errors"`
	AvgResponseTime float64 `json:"avg_response_time_ms"`
	CacheHits       int64   `json:"cache_hits"`
	CacheMisses     int64   `json:"cache_misses"`
	CacheHitRate    float64 `json:"cache_hit_rate"`
	KeyPoolWait     int64   `json:"key_pool_wait"`
	KeyPoolErrors   int64   `json:"key_pool_errors"`
	QPS             float64 `json:"qps"`
}

// MetricsService 统一的指标服务
// 只负责进程内性能指标，任务结果统计由 StatsService 持久化
type MetricsService struct {
	perfMetrics *PerformanceMetrics
}

// NewMetricsService 创建新的指标服务
func NewMetricsService() *MetricsService {
	return &MetricsService{
		perfMetrics: &PerformanceMetrics{
			windowStartTime: time.Now(),
		},
	}
}

// RecordHTTPRequest 记录HTTP请求
func (ms *MetricsService) RecordHTTPRequest(duration time.Duration) {
	ms.perfMetrics.mu.Lock()
	defer ms.perfMetrics.mu.Unlock()

	ms.perfMetrics.httpRequests++
	ms.perfMetrics.windowRequests++

	// 计算平均响应时间（指数移动平均）
	if ms.perfMetrics.avgResponseTime == 0 {
		ms.perfMetrics.avgResponseTime = float64(duration.Milliseconds())
	} else {
		ms.perfMetrics.avgResponseTime = ms.perfMetrics.avgResponseTime*0.9 + float64(duration.Milliseconds())*0.1
	}
}

// RecordHTTPError 记录HTTP错误
func (ms *MetricsService) RecordHTTPError() {
	ms.perfMetrics.mu.Lock()
	defer ms.perfMetrics.mu.Unlock()

	ms.perfMetrics.httpErrors++
}

// RecordCacheHit 记录缓存命中
func (ms *MetricsService) RecordCacheHit() {
	ms.perfMetrics.mu.Lock()
	defer ms.perfMetrics.mu.Unlock()

	ms.perfMetrics.cacheHits++
	ms.updateCacheHitRate()
}

// RecordCacheMiss 记录缓存未命中
func (ms *MetricsService) RecordCacheMiss() {
	ms.perfMetrics.mu.Lock()
	defer ms.perfMetrics.mu.Unlock()

	ms.perfMetrics.cacheMisses++
	ms.updateCacheHitRate()
}

// updateCacheHitRate 重新计算缓存命中率，调用方需持有锁
func (ms *MetricsService) updateCacheHitRate() {
	total := ms.perfMetrics.cacheHits + ms.perfMetrics.cacheMisses
	if total > 0 {
		ms.perfMetrics.cacheHitRate = float64(ms.perfMetrics.cacheHits) / float64(total)
	}
}

// RecordKeyPoolWait 记录 key 池等待
func (ms *MetricsService) RecordKeyPoolWait(duration time.Duration) {
	ms.perfMetrics.mu.Lock()
	defer ms.perfMetrics.mu.Unlock()

	ms.perfMetrics.keyPoolWait++
}

// RecordKeyPoolError 记录 key 池错误
func (ms *MetricsService) RecordKeyPoolError() {
	ms.perfMetrics.mu.Lock()
	defer ms.perfMetrics.mu.Unlock()

	ms.perfMetrics.keyPoolErrors++
}

// GetQPS 获取当前QPS
func (ms *MetricsService) GetQPS() float64 {
	ms.perfMetrics.mu.RLock()
	defer ms.perfMetrics.mu.RUnlock()

	windowDuration := time.Since(ms.perfMetrics.windowStartTime).Seconds()
	if windowDuration == 0 {
		return 0
	}

	return float64(ms.perfMetrics.windowRequests) / windowDuration
}

// Snapshot 获取当前指标快照
func (ms *MetricsService) Snapshot() MetricsSnapshot {
	ms.perfMetrics.mu.RLock()
	defer ms.perfMetrics.mu.RUnlock()

	windowDuration := time.Since(ms.perfMetrics.windowStartTime).Seconds()
	var qps float64
	if windowDuration > 0 {
		qps = float64(ms.perfMetrics.windowRequests) / windowDuration
	}

	return MetricsSnapshot{
		HTTPRequests:    ms.perfMetrics.httpRequests,
		HTTPErrors:      ms.perfMetrics.httpErrors,
		AvgResponseTime: ms.perfMetrics.avgResponseTime,
		CacheHits:       ms.perfMetrics.cacheHits,
		CacheMisses:     ms.perfMetrics.cacheMisses,
		CacheHitRate:    ms.perfMetrics.cacheHitRate,
		KeyPoolWait:     ms.perfMetrics.keyPoolWait,
		KeyPoolErrors:   ms.perfMetrics.keyPoolErrors,
		QPS:             qps,
	}
}
