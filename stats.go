package main

import (
	"sync"
	"sync/atomic"
	"time"
)

// ==================== 原子统计 ====================

// AtomicRequestStats 使用 atomic 操作的高性能统计结构
// 避免每次生成请求都获取互斥锁，渲染 worker 记录结果时不会互相阻塞
type AtomicRequestStats struct {
	totalRequests      int64
	successfulRequests int64
	failedRequests     int64
	totalRenderTime    int64

	// 分布统计更新频率低，用互斥锁即可
	distMutex    sync.RWMutex
	qualityUsage map[string]int64
	errorCounts  map[string]int64

	// 请求历史使用无锁的 channel 缓冲
	historyChannel chan RequestRecord
	historyBuffer  []RequestRecord
	historyMutex   sync.RWMutex

	lastRequestTime atomic.Value // time.Time
	stopOnce        sync.Once
	done            chan struct{}
}

// NewAtomicRequestStats 创建新的原子统计结构
func NewAtomicRequestStats() *AtomicRequestStats {
	stats := &AtomicRequestStats{
		qualityUsage:   make(map[string]int64),
		errorCounts:    make(map[string]int64),
		historyChannel: make(chan RequestRecord, HistoryBufferSize),
		historyBuffer:  make([]RequestRecord, 0, HistoryBufferSize),
		done:           make(chan struct{}),
	}

	go stats.historyWorker()

	return stats
}

// historyWorker 后台批量处理历史记录，避免阻塞渲染路径
func (s *AtomicRequestStats) historyWorker() {
	ticker := time.NewTicker(HistoryFlushInterval)
	defer ticker.Stop()

	batch := make([]RequestRecord, 0, HistoryBatchSize)

	for {
		select {
		case <-s.done:
			if len(batch) > 0 {
				s.flushHistoryBatch(batch)
			}
			return
		case record := <-s.historyChannel:
			batch = append(batch, record)
			if len(batch) >= HistoryBatchSize {
				s.flushHistoryBatch(batch)
				batch = make([]RequestRecord, 0, HistoryBatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flushHistoryBatch(batch)
				batch = make([]RequestRecord, 0, HistoryBatchSize)
			}
		}
	}
}

// flushHistoryBatch 批量刷新历史记录
func (s *AtomicRequestStats) flushHistoryBatch(batch []RequestRecord) {
	s.historyMutex.Lock()
	defer s.historyMutex.Unlock()

	for _, record := range batch {
		s.historyBuffer = append(s.historyBuffer, record)
		if len(s.historyBuffer) > HistoryBufferSize {
			s.historyBuffer = s.historyBuffer[len(s.historyBuffer)-HistoryBufferSize:]
		}
	}
}

// RecordGeneration 记录一次生成任务的结果
func (s *AtomicRequestStats) RecordGeneration(success bool, renderTimeMs int64, model, quality, category, errorType string) {
	atomic.AddInt64(&s.totalRequests, 1)
	atomic.AddInt64(&s.totalRenderTime, renderTimeMs)

	if success {
		atomic.AddInt64(&s.successfulRequests, 1)
	} else {
		atomic.AddInt64(&s.failedRequests, 1)
	}

	s.lastRequestTime.Store(time.Now())

	s.distMutex.Lock()
	s.qualityUsage[quality]++
	if !success && errorType != "" {
		s.errorCounts[errorType]++
	}
	s.distMutex.Unlock()

	record := RequestRecord{
		Timestamp:    time.Now(),
		Success:      success,
		RenderTimeMs: renderTimeMs,
		Model:        model,
		Quality:      quality,
		Category:     category,
		ErrorType:    errorType,
	}

	// 非阻塞发送，channel 满时丢弃而不是阻塞 worker
	select {
	case s.historyChannel <- record:
	default:
	}
}

// ToRequestStats 转换为可序列化的 RequestStats 结构
func (s *AtomicRequestStats) ToRequestStats() RequestStats {
	s.historyMutex.RLock()
	history := make([]RequestRecord, len(s.historyBuffer))
	copy(history, s.historyBuffer)
	s.historyMutex.RUnlock()

	s.distMutex.RLock()
	qualityUsage := make(map[string]int64, len(s.qualityUsage))
	for k, v := range s.qualityUsage {
		qualityUsage[k] = v
	}
	errorCounts := make(map[string]int64, len(s.errorCounts))
	for k, v := range s.errorCounts {
		errorCounts[k] = v
	}
	s.distMutex.RUnlock()

	var lastTime time.Time
	if t := s.lastRequestTime.Load(); t != nil {
		lastTime = t.(time.Time)
	}

	return RequestStats{
		TotalRequests:      atomic.LoadInt64(&s.totalRequests),
		SuccessfulRequests: atomic.LoadInt64(&s.successfulRequests),
		FailedRequests:     atomic.LoadInt64(&s.failedRequests),
		TotalRenderTime:    atomic.LoadInt64(&s.totalRenderTime),
		LastRequestTime:    lastTime,
		QualityUsage:       qualityUsage,
		ErrorCounts:        errorCounts,
		RequestHistory:     history,
	}
}

// LoadFrom 从持久化数据恢复统计状态
func (s *AtomicRequestStats) LoadFrom(stats *RequestStats) {
	if stats == nil {
		return
	}

	atomic.StoreInt64(&s.totalRequests, stats.TotalRequests)
	atomic.StoreInt64(&s.successfulRequests, stats.SuccessfulRequests)
	atomic.StoreInt64(&s.failedRequests, stats.FailedRequests)
	atomic.StoreInt64(&s.totalRenderTime, stats.TotalRenderTime)
	if !stats.LastRequestTime.IsZero() {
		s.lastRequestTime.Store(stats.LastRequestTime)
	}

	s.distMutex.Lock()
	for k, v := range stats.QualityUsage {
		s.qualityUsage[k] = v
	}
	for k, v := range stats.ErrorCounts {
		s.errorCounts[k] = v
	}
	s.distMutex.Unlock()

	s.historyMutex.Lock()
	for _, record := range stats.RequestHistory {
		s.historyBuffer = append(s.historyBuffer, record)
	}
	if len(s.historyBuffer) > HistoryBufferSize {
		s.historyBuffer = s.historyBuffer[len(s.historyBuffer)-HistoryBufferSize:]
	}
	s.historyMutex.Unlock()
}

// GetHistory 获取请求历史的副本
func (s *AtomicRequestStats) GetHistory() []RequestRecord {
	s.historyMutex.RLock()
	defer s.historyMutex.RUnlock()

	history := make([]RequestRecord, len(s.historyBuffer))
	copy(history, s.historyBuffer)
	return history
}

// Stop 停止后台 worker
func (s *AtomicRequestStats) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// ==================== 统计服务 ====================

// StatsService 统计服务，负责记录、查询与防抖持久化
type StatsService struct {
	stats   *AtomicRequestStats
	storage StorageInterface
	logger  Logger

	lastSaveTime int64
	pendingSave  int32
	saveChan     chan bool
	stopOnce     sync.Once
	done         chan struct{}
}

// NewStatsService 创建统计服务并从存储恢复历史数据
func NewStatsService(storage StorageInterface, logger Logger) *StatsService {
	if logger == nil {
		logger = &NopLogger{}
	}

	s := &StatsService{
		stats:    NewAtomicRequestStats(),
		storage:  storage,
		logger:   logger,
		saveChan: make(chan bool, 100),
		done:     make(chan struct{}),
	}

	if storage != nil {
		loaded, err := storage.LoadStats()
		if err != nil {
			logger.Warn("Failed to load stats: %v", err)
		} else {
			s.stats.LoadFrom(loaded)
		}
	}

	go s.saveWorker()

	return s
}

// RecordGeneration 记录生成结果并触发异步持久化
func (s *StatsService) RecordGeneration(success bool, renderTimeMs int64, model, quality, category, errorType string) {
	s.stats.RecordGeneration(success, renderTimeMs, model, quality, category, errorType)
	s.triggerAsyncSave()
}

// Snapshot 返回当前统计快照
func (s *StatsService) Snapshot() RequestStats {
	return s.stats.ToRequestStats()
}

// GetPeriodStats 计算指定时间段内的统计
func (s *StatsService) GetPeriodStats(hours int) PeriodStats {
	history := s.stats.GetHistory()

	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	var periodRequests int64
	var periodSuccessful int64
	var periodRenderTime int64

	for _, record := range history {
		if record.Timestamp.After(cutoff) {
			periodRequests++
			periodRenderTime += record.RenderTimeMs
			if record.Success {
				periodSuccessful++
			}
		}
	}

	stats := PeriodStats{
		Requests: periodRequests,
	}

	if periodRequests > 0 {
		stats.SuccessRate = float64(periodSuccessful) / float64(periodRequests) * 100
		stats.AvgRenderTimeMs = periodRenderTime / periodRequests
	}

	return stats
}

// saveWorker 异步保存协程，带防抖
func (s *StatsService) saveWorker() {
	for {
		select {
		case <-s.done:
			return
		case <-s.saveChan:
			now := time.Now().Unix()
			lastSave := atomic.LoadInt64(&s.lastSaveTime)

			if now-lastSave < int64(MinSaveInterval.Seconds()) {
				select {
				case <-time.After(MinSaveInterval - time.Duration(now-lastSave)*time.Second):
				case <-s.done:
					return
				}
			}

			s.save()
			atomic.StoreInt64(&s.lastSaveTime, time.Now().Unix())
			atomic.StoreInt32(&s.pendingSave, 0)
		}
	}
}

func (s *StatsService) save() {
	if s.storage == nil {
		return
	}
	snapshot := s.stats.ToRequestStats()
	if err := s.storage.SaveStats(&snapshot); err != nil {
		s.logger.Error("Failed to save stats: %v", err)
	}
}

// triggerAsyncSave 触发异步保存（非阻塞）
func (s *StatsService) triggerAsyncSave() {
	if atomic.CompareAndSwapInt32(&s.pendingSave, 0, 1) {
		select {
		case s.saveChan <- true:
		default:
			atomic.StoreInt32(&s.pendingSave, 0)
		}
	}
}

// Stop 停止后台协程并做最后一次持久化
func (s *StatsService) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.stats.Stop()
		s.save()
	})
}
