package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// ============================================================================
// HTTP 中间件
// ============================================================================

// corsMiddleware CORS中间件
// 允许跨域请求，支持常见的 HTTP 方法和头部
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, x-api-key")
		c.Header("Access-Control-Max-Age", CORSMaxAge)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// metricsMiddleware 记录 HTTP 请求耗时与错误
func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.metrics.RecordHTTPRequest(time.Since(start))
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.metrics.RecordHTTPError()
		}
	}
}

// authenticateClient 客户端认证中间件
// 支持两种认证方式：
// 1. Authorization: Bearer <token>
// 2. x-api-key: <token>
// 未配置任何客户端 key 时跳过认证，服务以开放模式运行
func (s *Server) authenticateClient(c *gin.Context) {
	if len(s.validClientKeys) == 0 {
		return
	}

	authHeader := c.GetHeader(HeaderAuthorization)
	apiKey := c.GetHeader(HeaderXAPIKey)

	// Check x-api-key first
	if apiKey != "" {
		if s.validClientKeys[apiKey] {
			return
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid client API key (x-api-key)"})
		c.Abort()
		return
	}

	// Check Authorization header
	if authHeader != "" {
		token := strings.TrimPrefix(authHeader, AuthBearerPrefix)
		if s.validClientKeys[token] {
			return
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid client API key (Bearer token)"})
		c.Abort()
		return
	}

	c.JSON(http.StatusUnauthorized, gin.H{"error": "API key required in Authorization header (Bearer) or x-api-key header"})
	c.Abort()
}
