package main

import (
	"crypto/sha1"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
)

// ============================================================================
// 环境和配置工具
// ============================================================================

// IsDebug 返回应用是否运行在调试模式
func IsDebug() bool {
	return gin.Mode() == gin.DebugMode
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseEnvList 解析逗号分隔的环境变量为去空格的切片
func parseEnvList(envVar string) []string {
	if envVar == "" {
		return nil
	}
	parts := strings.Split(envVar, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseEnvBool 解析布尔环境变量，非法值回退到默认值
func parseEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(strings.ToLower(value))
	if err != nil {
		Warn("Invalid boolean value for %s: %q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// parseEnvInt 解析整型环境变量，非法值回退到默认值
func parseEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		Warn("Invalid integer value for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// parseEnvDuration 解析时长环境变量（如 "300s"、"5m"），非法值回退到默认值
func parseEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		// 兼容纯数字（按秒解释）
		if seconds, serr := strconv.Atoi(value); serr == nil {
			return time.Duration(seconds) * time.Second
		}
		Warn("Invalid duration value for %s: %q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// ============================================================================
// JSON 工具
// ============================================================================

// marshalJSON 统一的 JSON 序列化入口（sonic）
func marshalJSON(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

// unmarshalJSON 统一的 JSON 反序列化入口（sonic）
func unmarshalJSON(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

// ============================================================================
// 缓存键工具
// ============================================================================

// generateCacheKey 基于前缀和内容生成稳定的缓存键
func generateCacheKey(prefix string, parts ...string) string {
	h := sha1.New()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return CacheKeyVersion + ":" + prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// ============================================================================
// 字符串工具
// ============================================================================

// truncateString 截断字符串并在中间添加替换文本
func truncateString(s string, prefixLen, suffixLen int, replacement string) string {
	if len(s) > prefixLen+suffixLen {
		return s[:prefixLen] + replacement + s[len(s)-suffixLen:]
	}
	return s
}

// getKeyDisplayName 获取 API key 的显示名称（用于日志，避免泄露完整 key）
func getKeyDisplayName(key *GroqKey) string {
	if key == nil || key.APIKey == "" {
		return "Key Unknown"
	}
	return truncateString(key.APIKey, 0, 6, "Key ...")
}
