package main

import "time"

// ==================== 任务状态常量 ====================

const (
	JobStatusQueued     = "queued"
	JobStatusEnhancing  = "enhancing"
	JobStatusGenerating = "generating"
	JobStatusRendering  = "rendering"
	JobStatusSucceeded  = "succeeded"
	JobStatusFailed     = "failed"
)

// ==================== 生成任务类型 ====================

// GenerationRequest 视频生成请求
type GenerationRequest struct {
	Prompt  string `json:"prompt" binding:"required"`
	Model   string `json:"model,omitempty"`
	Quality string `json:"quality,omitempty"`
}

// Job 一次视频生成任务的完整状态
// 状态机: queued -> enhancing -> generating -> rendering -> succeeded|failed
type Job struct {
	ID             string       `json:"id"`
	Status         string       `json:"status"`
	Prompt         string       `json:"prompt"`
	EnhancedPrompt string       `json:"enhanced_prompt,omitempty"`
	Code           string       `json:"code,omitempty"`
	Model          string       `json:"model"`
	Quality        string       `json:"quality"`
	Category       string       `json:"category,omitempty"`
	VideoPath      string       `json:"-"`
	VideoURL       string       `json:"video_url,omitempty"`
	Error          *ErrorReport `json:"error,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	StartedAt      time.Time    `json:"started_at,omitempty"`
	FinishedAt     time.Time    `json:"finished_at,omitempty"`
	RenderTimeMs   int64        `json:"render_time_ms,omitempty"`
}

// JobEvent SSE 推送的任务进度事件
type JobEvent struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Step    int    `json:"step"`
	Steps   int    `json:"steps"`
	Message string `json:"message"`
}

// ==================== 错误报告类型 ====================

// ErrorReport 面向用户的错误报告
// 包含分类后的错误类型、可读消息和修复建议
type ErrorReport struct {
	Type        string   `json:"type"`
	Message     string   `json:"message"`
	Detail      string   `json:"detail,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Severity    string   `json:"severity"`
	Recoverable bool     `json:"recoverable"`
}

// ==================== Groq API 类型（OpenAI 兼容） ====================

// ChatMessage 聊天消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest chat completions 请求体
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

// ChatCompletionChoice 单个补全结果
type ChatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatCompletionResponse chat completions 响应体
type ChatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   *Usage                 `json:"usage,omitempty"`
}

// Usage token 用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GroqAPIError Groq 错误响应中的 error 字段
type GroqAPIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// GroqErrorResponse Groq 错误响应体
type GroqErrorResponse struct {
	Error GroqAPIError `json:"error"`
}

// ==================== 模型列表类型 ====================

// ModelInfo 模型信息（OpenAI /v1/models 格式）
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
	Name    string `json:"name,omitempty"`
}

// ModelList 模型列表响应
type ModelList struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}

// ModelsData 模型数据容器
type ModelsData struct {
	Data []ModelInfo
}

// ==================== API key 池类型 ====================

// GroqKey Groq API key 及其运行时状态
type GroqKey struct {
	APIKey        string
	CooldownUntil time.Time // 被限流后冷却到该时间点
	RequestCount  int64
	LastUsed      time.Time
}

// ==================== 统计类型 ====================

// RequestStats 可序列化的统计数据
type RequestStats struct {
	TotalRequests      int64            `json:"total_requests"`
	SuccessfulRequests int64            `json:"successful_requests"`
	FailedRequests     int64            `json:"failed_requests"`
	TotalRenderTime    int64            `json:"total_render_time"`
	LastRequestTime    time.Time        `json:"last_request_time"`
	QualityUsage       map[string]int64 `json:"quality_usage,omitempty"`
	ErrorCounts        map[string]int64 `json:"error_counts,omitempty"`
	RequestHistory     []RequestRecord  `json:"request_history"`
}

// RequestRecord 单次生成任务的统计记录
type RequestRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Success      bool      `json:"success"`
	RenderTimeMs int64     `json:"render_time_ms"`
	Model        string    `json:"model"`
	Quality      string    `json:"quality"`
	Category     string    `json:"category,omitempty"`
	ErrorType    string    `json:"error_type,omitempty"`
}

// PeriodStats 时间段统计
type PeriodStats struct {
	Requests        int64   `json:"requests"`
	SuccessRate     float64 `json:"successRate"`
	AvgRenderTimeMs int64   `json:"avgRenderTimeMs"`
}
