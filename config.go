package main

import (
	"net/http"
	"time"
)

// ==================== 配置结构定义 ====================

// ServerConfig 服务器配置
type ServerConfig struct {
	Port                 string
	GinMode              string
	ClientAPIKeys        []string // 客户端认证 key，为空时 API 对外开放
	GroqAPIKeys          []string // Groq API key 池
	GroqBaseURL          string
	ManimBin             string
	MediaDir             string
	RenderTimeout        time.Duration
	KeepRenderTemp       bool // 渲染失败时保留临时目录
	MaxConcurrentRenders int
	HTTPClientSettings   HTTPClientSettings
	Storage              StorageInterface // 存储实例（依赖注入）
	Logger               Logger           // 日志实例（依赖注入）
}

// HTTPClientSettings HTTP客户端配置
type HTTPClientSettings struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
	RequestTimeout      time.Duration
}

// DefaultHTTPClientSettings 默认HTTP客户端配置
func DefaultHTTPClientSettings() HTTPClientSettings {
	return HTTPClientSettings{
		MaxIdleConns:        HTTPMaxIdleConns,
		MaxIdleConnsPerHost: HTTPMaxIdleConnsPerHost,
		MaxConnsPerHost:     HTTPMaxConnsPerHost,
		IdleConnTimeout:     HTTPIdleConnTimeout,
		TLSHandshakeTimeout: HTTPTLSHandshakeTimeout,
		RequestTimeout:      LLMRequestTimeout,
	}
}

// createOptimizedHTTPClient 创建复用连接的 HTTP 客户端
// 上游只有 Groq 一个 host，连接池参数按单 host 高复用调优
func createOptimizedHTTPClient(settings HTTPClientSettings) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:          settings.MaxIdleConns,
		MaxIdleConnsPerHost:   settings.MaxIdleConnsPerHost,
		MaxConnsPerHost:       settings.MaxConnsPerHost,
		IdleConnTimeout:       settings.IdleConnTimeout,
		TLSHandshakeTimeout:   settings.TLSHandshakeTimeout,
		ExpectContinueTimeout: HTTPExpectContinueTimeout,
		DisableKeepAlives:     false,
		ForceAttemptHTTP2:     true,
		ResponseHeaderTimeout: HTTPResponseHeaderTimeout,
		DisableCompression:    false,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   settings.RequestTimeout,
	}
}

// ==================== 配置校验 ====================

// validateServerConfig 启动前校验配置
func validateServerConfig(config *ServerConfig) error {
	if config.Port == "" {
		config.Port = DefaultPort
	}
	if config.GinMode == "" {
		config.GinMode = DefaultGinMode
	}
	if config.GroqBaseURL == "" {
		config.GroqBaseURL = GroqAPIBaseURL
	}
	if config.ManimBin == "" {
		config.ManimBin = DefaultManimBin
	}
	if config.MediaDir == "" {
		config.MediaDir = DefaultMediaDir
	}
	if config.RenderTimeout < MinRenderTimeout {
		config.RenderTimeout = DefaultRenderTimeout
	}
	if config.MaxConcurrentRenders <= 0 {
		config.MaxConcurrentRenders = DefaultMaxConcurrentRenders
	}

	if len(config.GroqAPIKeys) == 0 {
		return ErrNoKeysConfigured()
	}

	return nil
}
