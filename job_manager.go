package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ==================== 任务管理器 ====================

// JobManager 管理生成任务的注册表与渲染 worker 池
// 提交后任务进入队列，由固定数量的 worker 依次执行
// enhance -> generate -> render 流水线，进度通过 SSE Hub 广播
type JobManager struct {
	jobs map[string]*Job
	mu   sync.RWMutex

	queue     chan string
	generator CodeGenerator
	renderer  VideoRenderer
	hub       *SSEHub
	stats     *StatsService
	logger    Logger

	mediaDir string
	workers  int

	wg       sync.WaitGroup
	done     chan struct{}
	stopOnce sync.Once
}

// JobManagerConfig 任务管理器配置
type JobManagerConfig struct {
	Generator CodeGenerator
	Renderer  VideoRenderer
	Hub       *SSEHub
	Stats     *StatsService
	Logger    Logger
	MediaDir  string
	Workers   int
}

// NewJobManager 创建任务管理器并启动 worker 池
func NewJobManager(config JobManagerConfig) *JobManager {
	logger := config.Logger
	if logger == nil {
		logger = &NopLogger{}
	}
	workers := config.Workers
	if workers <= 0 {
		workers = DefaultMaxConcurrentRenders
	}
	mediaDir := config.MediaDir
	if mediaDir == "" {
		mediaDir = DefaultMediaDir
	}

	m := &JobManager{
		jobs:      make(map[string]*Job),
		queue:     make(chan string, JobQueueCapacity),
		generator: config.Generator,
		renderer:  config.Renderer,
		hub:       config.Hub,
		stats:     config.Stats,
		logger:    logger,
		mediaDir:  mediaDir,
		workers:   workers,
		done:      make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}

	m.wg.Add(1)
	go m.sweeper()

	return m
}

// Submit 校验请求并把新任务放入队列
func (m *JobManager) Submit(req *GenerationRequest) (*Job, error) {
	prompt := strings.TrimSpace(req.Prompt)
	// 长度按字符数算，多字节文字的提示词不能按字节截断
	promptLen := utf8.RuneCountInString(prompt)
	if promptLen < MinPromptLength {
		return nil, ErrInvalidConfig("prompt", fmt.Sprintf("must be at least %d characters", MinPromptLength))
	}
	if promptLen > MaxPromptLength {
		return nil, ErrInvalidConfig("prompt", fmt.Sprintf("exceeds maximum length of %d characters", MaxPromptLength))
	}

	quality := req.Quality
	if quality == "" {
		quality = QualityMedium
	}
	if !IsValidQuality(quality) {
		return nil, ErrInvalidConfig("quality", fmt.Sprintf("unknown quality %q", quality))
	}

	model := resolveModel(req.Model)

	job := &Job{
		ID:        uuid.New().String(),
		Status:    JobStatusQueued,
		Prompt:    prompt,
		Model:     model,
		Quality:   quality,
		Category:  DetectCategory(prompt),
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	select {
	case m.queue <- job.ID:
	default:
		m.mu.Lock()
		delete(m.jobs, job.ID)
		m.mu.Unlock()
		return nil, ErrGenerationFailed(fmt.Errorf("job queue is full, try again later"))
	}

	m.logger.Info("Job %s queued (category=%s quality=%s)", job.ID, job.Category, quality)
	return m.snapshot(job.ID), nil
}

// GetJob 返回任务状态的副本
func (m *JobManager) GetJob(id string) (*Job, bool) {
	job := m.snapshot(id)
	if job == nil {
		return nil, false
	}
	return job, true
}

// VideoPath 返回已完成任务的视频路径
func (m *JobManager) VideoPath(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok || job.Status != JobStatusSucceeded || job.VideoPath == "" {
		return "", false
	}
	return job.VideoPath, true
}

// QueueDepth 当前排队中的任务数
func (m *JobManager) QueueDepth() int {
	return len(m.queue)
}

// JobCount 注册表中的任务总数
func (m *JobManager) JobCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.jobs)
}

// snapshot 在锁内复制任务，外部拿到的永远是副本
func (m *JobManager) snapshot(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

// worker 渲染 worker，串行处理队列中的任务
func (m *JobManager) worker(id int) {
	defer m.wg.Done()

	m.logger.Debug("Render worker %d started", id)

	for {
		select {
		case <-m.done:
			return
		case jobID := <-m.queue:
			m.process(jobID)
		}
	}
}

// process 执行单个任务的完整流水线
func (m *JobManager) process(jobID string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-m.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	m.update(jobID, func(j *Job) {
		j.StartedAt = time.Now()
	})

	job := m.snapshot(jobID)
	if job == nil {
		return
	}

	// 第 1 步: 提示词增强
	m.transition(jobID, JobStatusEnhancing, 1, "Enhancing prompt")
	enhanced := m.generator.EnhancePrompt(ctx, job.Prompt, job.Model)
	m.update(jobID, func(j *Job) {
		j.EnhancedPrompt = enhanced
	})

	// 第 2 步: 代码生成
	m.transition(jobID, JobStatusGenerating, 2, "Generating animation code")
	code, err := m.generator.GenerateCode(ctx, enhanced, job.Model)
	if err != nil {
		m.fail(jobID, ErrorTypeAPI, err.Error())
		return
	}
	m.update(jobID, func(j *Job) {
		j.Code = code
	})

	// 第 3 步: 渲染
	m.transition(jobID, JobStatusRendering, 3, "Rendering video")
	outputPath := filepath.Join(m.mediaDir, jobID+VideoExtension)
	result, err := m.renderer.Render(ctx, code, job.Quality, outputPath)
	if err != nil {
		detail := err.Error()
		if result != nil && result.Stderr != "" {
			detail = result.Stderr
		}
		m.fail(jobID, "", detail)
		return
	}

	renderMs := result.Duration.Milliseconds()
	m.update(jobID, func(j *Job) {
		j.Status = JobStatusSucceeded
		j.VideoPath = result.VideoPath
		j.VideoURL = "/v1/generations/" + jobID + "/video"
		j.RenderTimeMs = renderMs
		j.FinishedAt = time.Now()
	})
	m.publishEvent(jobID, JobStatusSucceeded, 4, "Video ready")

	if m.stats != nil {
		m.stats.RecordGeneration(true, renderMs, job.Model, job.Quality, job.Category, "")
	}
	m.logger.Info("Job %s succeeded in %dms", jobID, renderMs)
}

// transition 更新任务状态并广播进度事件
func (m *JobManager) transition(jobID, status string, step int, message string) {
	m.update(jobID, func(j *Job) {
		j.Status = status
	})
	m.publishEvent(jobID, status, step, message)
}

// fail 把任务标记为失败并记录分类后的错误报告
func (m *JobManager) fail(jobID, errorType, detail string) {
	report := BuildErrorReport(errorType, detail)

	m.update(jobID, func(j *Job) {
		j.Status = JobStatusFailed
		j.Error = report
		j.FinishedAt = time.Now()
	})
	m.publishEvent(jobID, JobStatusFailed, 4, report.Message)

	job := m.snapshot(jobID)
	if m.stats != nil && job != nil {
		m.stats.RecordGeneration(false, 0, job.Model, job.Quality, job.Category, report.Type)
	}
	m.logger.Warn("Job %s failed: %s (%s)", jobID, report.Message, report.Type)
}

// update 在锁内修改任务
func (m *JobManager) update(jobID string, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, ok := m.jobs[jobID]; ok {
		fn(job)
	}
}

// publishEvent 向 SSE Hub 广播任务事件
func (m *JobManager) publishEvent(jobID, status string, step int, message string) {
	if m.hub == nil {
		return
	}

	event := JobEvent{
		JobID:   jobID,
		Status:  status,
		Step:    step,
		Steps:   4,
		Message: message,
	}
	data, err := marshalJSON(event)
	if err != nil {
		m.logger.Error("Failed to marshal job event: %v", err)
		return
	}
	m.hub.Publish(jobID, data)
}

// sweeper 定期清理过期的已完成任务及其视频文件
func (m *JobManager) sweeper() {
	defer m.wg.Done()

	ticker := time.NewTicker(JobSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep(time.Now().Add(-JobRetention))
		}
	}
}

// sweep 删除在 cutoff 之前完成的任务
func (m *JobManager) sweep(cutoff time.Time) {
	var videoPaths []string

	m.mu.Lock()
	for id, job := range m.jobs {
		finished := job.Status == JobStatusSucceeded || job.Status == JobStatusFailed
		if finished && !job.FinishedAt.IsZero() && job.FinishedAt.Before(cutoff) {
			if job.VideoPath != "" {
				videoPaths = append(videoPaths, job.VideoPath)
			}
			delete(m.jobs, id)
		}
	}
	m.mu.Unlock()

	for _, path := range videoPaths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("Failed to remove expired video %s: %v", path, err)
		}
	}

	if len(videoPaths) > 0 {
		m.logger.Info("Swept %d expired jobs", len(videoPaths))
	}
}

// Stop 停止 worker 池，等待进行中的任务退出
func (m *JobManager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
}
