package main

import "time"

// ==================== 超时和时间相关常量 ====================

const (
	// DefaultRenderTimeout 默认渲染超时时间
	DefaultRenderTimeout = 5 * time.Minute

	// MinRenderTimeout 最小渲染超时时间
	// 配置校验用，低于该值时 manim 基本不可能完成渲染
	MinRenderTimeout = 60 * time.Second

	// LLMRequestTimeout 上游 LLM 请求超时时间
	LLMRequestTimeout = 2 * time.Minute

	// KeyCooldownDuration API key 被限流后的冷却时间
	KeyCooldownDuration = 30 * time.Second
)

// ==================== HTTP客户端配置常量 ====================

const (
	// HTTPMaxIdleConns HTTP客户端最大空闲连接数
	HTTPMaxIdleConns = 100

	// HTTPMaxIdleConnsPerHost 每个主机最大空闲连接数
	HTTPMaxIdleConnsPerHost = 20

	// HTTPMaxConnsPerHost 每个主机最大连接数
	HTTPMaxConnsPerHost = 50

	// HTTPIdleConnTimeout 空闲连接超时时间
	HTTPIdleConnTimeout = 600 * time.Second // 10分钟

	// HTTPTLSHandshakeTimeout TLS握手超时时间
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPResponseHeaderTimeout 响应头超时时间
	HTTPResponseHeaderTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout Expect: 100-continue 超时时间
	HTTPExpectContinueTimeout = 5 * time.Second
)

// ==================== 缓存配置常量 ====================

const (
	// CacheDefaultCapacity 默认缓存容量
	CacheDefaultCapacity = 1000

	// CacheCleanupInterval 缓存清理间隔
	CacheCleanupInterval = 5 * time.Minute

	// EnhancementCacheTTL 提示词增强结果缓存TTL
	EnhancementCacheTTL = 30 * time.Minute

	// ValidationCacheTTL 代码验证结果缓存TTL
	ValidationCacheTTL = 30 * time.Minute

	// CacheKeyVersion 缓存键版本号
	// 当缓存数据格式发生变化时，增加此版本号以避免使用旧格式的缓存数据
	CacheKeyVersion = "v1"
)

// ==================== 统计和性能监控常量 ====================

const (
	// StatsFilePath 统计数据文件路径
	StatsFilePath = "stats.json"

	// MinSaveInterval 最小保存间隔（防抖）
	MinSaveInterval = 5 * time.Second

	// HistoryBufferSize 生成历史记录缓冲区大小
	HistoryBufferSize = 1000

	// HistoryBatchSize 历史记录批处理大小
	HistoryBatchSize = 100

	// HistoryFlushInterval 历史记录刷新间隔
	HistoryFlushInterval = 100 * time.Millisecond
)

// ==================== LLM 生成常量 ====================

const (
	// MaxGenerationAttempts 代码生成最大尝试次数
	// 每次验证失败后换更简单的提示词重试
	MaxGenerationAttempts = 3

	// EnhanceTemperature 提示词增强温度
	EnhanceTemperature = 0.7

	// EnhanceMaxTokens 提示词增强最大 token 数
	EnhanceMaxTokens = 500

	// CodeGenTemperature 代码生成温度
	// 低温度保证生成代码的确定性和语法正确性
	CodeGenTemperature = 0.1

	// CodeGenMaxTokens 代码生成最大 token 数
	CodeGenMaxTokens = 800

	// MaxPromptLength 用户提示词最大长度
	MaxPromptLength = 1000

	// MinPromptLength 用户提示词最小长度
	MinPromptLength = 10

	// MinGeneratedCodeLength 生成代码最小长度
	// 短于该值的"代码"不可能是完整的 Scene 定义
	MinGeneratedCodeLength = 100
)

// ==================== API key 池常量 ====================

const (
	// KeyAcquireMaxRetries 获取 API key 最大重试次数
	KeyAcquireMaxRetries = 3

	// KeyAcquireTimeout 获取 API key 超时时间
	KeyAcquireTimeout = 60 * time.Second
)

// ==================== 渲染相关常量 ====================

const (
	// SceneFileName 生成代码写入的文件名
	SceneFileName = "scene.py"

	// SceneClassName 生成代码必须包含的 Scene 类名
	SceneClassName = "GeneratedScene"

	// OutputFileName manim 输出文件名（不含扩展名）
	OutputFileName = "output_video"

	// VideoExtension 输出视频扩展名
	VideoExtension = ".mp4"

	// TempDirPrefix 渲染临时目录前缀
	TempDirPrefix = "manimate_"

	// DefaultMediaDir 默认视频产物目录
	DefaultMediaDir = "media"

	// DefaultManimBin 默认 manim 可执行文件名
	DefaultManimBin = "manim"

	// DefaultMaxConcurrentRenders 默认最大并发渲染数
	// manim 渲染是 CPU 密集型操作，并发过高会拖垮所有任务
	DefaultMaxConcurrentRenders = 2

	// MaxWaitSeconds self.wait 最大允许秒数（超出会被钳制）
	MaxWaitSeconds = 3

	// MaxRunTimeSeconds 动画 run_time 最大允许秒数（超出会被钳制）
	MaxRunTimeSeconds = 5
)

// ==================== 视频产物验证常量 ====================

const (
	// MaxVideoSizeBytes 最大视频文件大小（100MB）
	MaxVideoSizeBytes = 100 * 1024 * 1024

	// MinVideoSizeBytes 最小视频文件大小
	// 小于该值的 mp4 基本是空容器
	MinVideoSizeBytes = 1024
)

// ==================== 任务管理常量 ====================

const (
	// JobQueueCapacity 任务队列容量
	JobQueueCapacity = 64

	// JobRetention 任务完成后的保留时间（含视频文件）
	JobRetention = 1 * time.Hour

	// JobSweepInterval 过期任务清理间隔
	JobSweepInterval = 5 * time.Minute
)

// ==================== 日志配置常量 ====================

const (
	// MaxDebugFilePathLength 调试日志文件路径最大长度
	MaxDebugFilePathLength = 260
)

// ==================== 文件权限常量 ====================

const (
	// FilePermissionReadWrite 文件读写权限 (0644)
	FilePermissionReadWrite = 0644

	// DirPermissionDefault 目录默认权限 (0755)
	DirPermissionDefault = 0755
)

// ==================== 时间格式常量 ====================

const (
	// TimeFormatDateTime 日期时间格式 (YYYY-MM-DD HH:MM:SS)
	TimeFormatDateTime = "2006-01-02 15:04:05"
)

// ==================== 默认配置常量 ====================

const (
	// DefaultPort 默认服务端口
	DefaultPort = "7860"

	// DefaultGinMode 默认Gin运行模式
	DefaultGinMode = "release"

	// GinModeDebug Gin调试模式
	GinModeDebug = "debug"

	// CORSMaxAge CORS预检请求缓存时间（秒）
	CORSMaxAge = "86400"

	// StaticIndexPath 前端页面路径
	StaticIndexPath = "./static/index.html"
)

// ==================== API相关常量 ====================

const (
	// OpenAI兼容对象类型
	ModelObjectType     = "model"
	ModelOwner          = "groq"
	ModelListObjectType = "list"

	// SSE 流式输出
	StreamChunkPrefix      = "data: "
	StreamChunkDoneMessage = "[DONE]"

	// HTTP Content-Type
	ContentTypeEventStream = "text/event-stream"
	ContentTypeJSON        = "application/json"
	ContentTypeMP4         = "video/mp4"

	// HTTP Cache-Control
	CacheControlNoCache = "no-cache"

	// HTTP Connection
	ConnectionKeepAlive = "keep-alive"

	// HTTP Headers
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderAccept        = "Accept"
	HeaderCacheControl  = "Cache-Control"
	HeaderConnection    = "Connection"
	HeaderXAPIKey       = "x-api-key"

	// Auth prefix
	AuthBearerPrefix = "Bearer "
)

// ==================== Groq API 端点常量 ====================

const (
	// GroqAPIBaseURL Groq OpenAI 兼容 API 基础地址
	GroqAPIBaseURL = "https://api.groq.com/openai/v1"

	// GroqChatCompletionsPath chat completions 路径
	GroqChatCompletionsPath = "/chat/completions"
)

// ==================== 模型常量 ====================

const (
	// DefaultModel 默认 Groq 模型
	DefaultModel = "llama-3.3-70b-versatile"
)

// SupportedModels 可用的 Groq 模型及展示名
var SupportedModels = map[string]string{
	"llama-3.3-70b-versatile": "Llama 3.3 70B",
	"llama3-8b-8192":          "Llama 3 8B",
	"mixtral-8x7b-32768":      "Mixtral 8x7B",
	"gemma2-9b-it":            "Gemma 2 9B",
}
