package main

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// Server 应用服务器
// 封装所有组件状态，依赖通过构造函数注入
type Server struct {
	// 配置
	port    string
	ginMode string

	// 核心组件（依赖注入）
	keyManager KeyManager
	groqClient *GroqClient
	generator  CodeGenerator
	renderer   VideoRenderer
	jobManager *JobManager
	hub        *SSEHub
	checker    *SystemChecker
	router     *gin.Engine

	// 缓存与统计
	cacheService *CacheService
	statsService *StatsService
	metrics      *MetricsService

	// 认证和模型
	validClientKeys map[string]bool
	modelsData      ModelsData

	// 优雅关闭
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// NewServer 创建新的服务器实例
func NewServer(config ServerConfig) (*Server, error) {
	if err := validateServerConfig(&config); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = defaultLogger
	}

	Info("Initializing server with %d Groq API keys", len(config.GroqAPIKeys))

	metrics := NewMetricsService()
	cacheService := NewCacheService()

	keyManager, err := NewPooledKeyManager(KeyManagerConfig{
		APIKeys: config.GroqAPIKeys,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return nil, err
	}

	httpClient := createOptimizedHTTPClient(config.HTTPClientSettings)
	groqClient := NewGroqClient(GroqClientConfig{
		BaseURL:    config.GroqBaseURL,
		HTTPClient: httpClient,
		KeyManager: keyManager,
		Logger:     logger,
	})

	validator := NewCodeValidator(cacheService, metrics)
	generator := NewGroqGenerator(GeneratorConfig{
		Client:    groqClient,
		Validator: validator,
		Cache:     cacheService,
		Logger:    logger,
		Metrics:   metrics,
	})

	renderer := NewManimRenderer(RendererConfig{
		ManimBin:       config.ManimBin,
		Timeout:        config.RenderTimeout,
		KeepFailedTemp: config.KeepRenderTemp,
		Logger:         logger,
	})

	hub := NewSSEHub()
	go hub.Run()

	statsService := NewStatsService(config.Storage, logger)

	jobManager := NewJobManager(JobManagerConfig{
		Generator: generator,
		Renderer:  renderer,
		Hub:       hub,
		Stats:     statsService,
		Logger:    logger,
		MediaDir:  config.MediaDir,
		Workers:   config.MaxConcurrentRenders,
	})

	checker := NewSystemChecker(config.ManimBin, config.MediaDir, logger)

	// 准备客户端 API keys
	validClientKeys := make(map[string]bool)
	for _, key := range config.ClientAPIKeys {
		validClientKeys[key] = true
	}
	if len(validClientKeys) == 0 {
		Warn("No client API keys configured, API is open")
	} else {
		Info("Loaded %d client API keys", len(validClientKeys))
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	server := &Server{
		port:            config.Port,
		ginMode:         config.GinMode,
		keyManager:      keyManager,
		groqClient:      groqClient,
		generator:       generator,
		renderer:        renderer,
		jobManager:      jobManager,
		hub:             hub,
		checker:         checker,
		cacheService:    cacheService,
		statsService:    statsService,
		metrics:         metrics,
		validClientKeys: validClientKeys,
		modelsData:      buildModelsData(),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
	}

	server.setupRoutes()

	return server, nil
}

// buildModelsData 构建 /v1/models 响应数据
func buildModelsData() ModelsData {
	now := time.Now().Unix()

	ids := make([]string, 0, len(SupportedModels))
	for id := range SupportedModels {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var data ModelsData
	for _, id := range ids {
		data.Data = append(data.Data, ModelInfo{
			ID:      id,
			Object:  ModelObjectType,
			Created: now,
			OwnedBy: ModelOwner,
			Name:    SupportedModels[id],
		})
	}
	return data
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	gin.SetMode(s.ginMode)
	s.router = gin.New()

	// 添加中间件
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(s.corsMiddleware())
	s.router.Use(s.metricsMiddleware())

	// 公共路由（无需认证）
	s.router.GET("/", showIndexPage)
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/api/stats", s.getStatsData)

	// API 路由（需要认证）
	api := s.router.Group("/v1")
	api.Use(s.authenticateClient)
	{
		api.POST("/generations", s.createGeneration)
		api.GET("/generations/:id", s.getGeneration)
		api.GET("/generations/:id/video", s.getGenerationVideo)
		api.GET("/generations/:id/events", s.streamGenerationEvents)
		api.GET("/models", s.listModels)
		api.GET("/qualities", s.listQualities)
		api.GET("/examples", s.listExamples)
	}
}

// Run 运行服务器
func (s *Server) Run() error {
	s.setupGracefulShutdown()

	// 启动时检查外部依赖
	status := s.checker.Check(s.shutdownCtx)
	for _, dep := range status.Dependencies {
		if dep.Available {
			Info("Dependency %s available: %s", dep.Name, dep.Version)
		} else {
			Warn("Dependency %s unavailable: %s", dep.Name, dep.Error)
		}
	}

	Info("Starting Manimate server on port %s", s.port)
	return s.router.Run(":" + s.port)
}

// setupGracefulShutdown 设置优雅关闭
func (s *Server) setupGracefulShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		Info("Shutdown signal received, cleaning up resources...")

		// 取消 context，通知进行中的任务退出
		s.shutdownCancel()

		// 停止 worker 池，等待进行中的渲染收尾
		s.jobManager.Stop()

		// 停止统计服务并做最后一次持久化
		s.statsService.Stop()

		// 停止缓存后台 goroutine
		s.cacheService.Stop()

		// 停止 SSE Hub
		s.hub.Stop()

		// 关闭 key 管理器
		if err := s.keyManager.Close(); err != nil {
			Error("Failed to close key manager: %v", err)
		}

		// 关闭日志
		CloseLogger()

		Info("Graceful shutdown completed")
		os.Exit(0)
	}()
}
