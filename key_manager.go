package main

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// PooledKeyManager 基于池的 Groq API key 管理器
// 负责 key 的获取、释放和限流冷却
type PooledKeyManager struct {
	keys []GroqKey
	pool chan *GroqKey
	mu   sync.RWMutex

	// 依赖注入
	logger  Logger
	metrics MetricsCollector
}

// KeyManagerConfig key 管理器配置
type KeyManagerConfig struct {
	APIKeys []string
	Logger  Logger
	Metrics MetricsCollector
}

// NewPooledKeyManager 创建新的 key 管理器
func NewPooledKeyManager(config KeyManagerConfig) (*PooledKeyManager, error) {
	if len(config.APIKeys) == 0 {
		return nil, ErrNoKeysConfigured()
	}

	logger := config.Logger
	if logger == nil {
		logger = &NopLogger{}
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = &NopMetrics{}
	}

	km := &PooledKeyManager{
		keys:    make([]GroqKey, len(config.APIKeys)),
		pool:    make(chan *GroqKey, len(config.APIKeys)),
		logger:  logger,
		metrics: metrics,
	}

	for i, apiKey := range config.APIKeys {
		km.keys[i] = GroqKey{APIKey: apiKey}
	}

	// 初始化 key 池
	for i := range km.keys {
		km.pool <- &km.keys[i]
	}

	km.logger.Info("Key manager initialized with %d Groq API keys", len(config.APIKeys))
	return km, nil
}

// AcquireKey 获取一个可用的 API key
// 支持 context 取消和超时；冷却中的 key 会被跳过并重试
func (km *PooledKeyManager) AcquireKey(ctx context.Context) (*GroqKey, error) {
	waitStart := time.Now()

	for attempt := 0; attempt < KeyAcquireMaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			km.metrics.RecordKeyPoolError()
			return nil, fmt.Errorf("request cancelled while waiting for API key: %w", ctx.Err())

		case key := <-km.pool:
			if attempt == 0 {
				waitDuration := time.Since(waitStart)
				if waitDuration > 100*time.Millisecond {
					km.metrics.RecordKeyPoolWait(waitDuration)
				}
			}

			// 冷却中的 key 放回池尾，等待冷却结束
			if remaining := time.Until(key.CooldownUntil); remaining > 0 {
				km.logger.Warn("Key %s cooling down for %v (attempt %d/%d)",
					getKeyDisplayName(key), remaining.Round(time.Second), attempt+1, KeyAcquireMaxRetries)
				km.ReleaseKey(key)

				// 只有一个 key 时等冷却结束再用，否则直接试下一个
				if km.GetKeyCount() == 1 {
					select {
					case <-ctx.Done():
						km.metrics.RecordKeyPoolError()
						return nil, fmt.Errorf("request cancelled during key cooldown: %w", ctx.Err())
					case <-time.After(remaining):
					}
				}
				continue
			}

			km.mu.Lock()
			key.RequestCount++
			key.LastUsed = time.Now()
			km.mu.Unlock()

			return key, nil

		case <-time.After(KeyAcquireTimeout):
			km.metrics.RecordKeyPoolError()
			return nil, fmt.Errorf("timed out waiting for an available Groq API key")
		}
	}

	km.metrics.RecordKeyPoolError()
	return nil, fmt.Errorf("failed to acquire API key after %d attempts: all keys cooling down", KeyAcquireMaxRetries)
}

// ReleaseKey 释放 key 回池
// 非阻塞设计，如果池满则警告
func (km *PooledKeyManager) ReleaseKey(key *GroqKey) {
	if key == nil {
		return
	}

	select {
	case km.pool <- key:
		// 成功归还
	default:
		// 池满了（不应该发生）
		km.logger.Warn("key pool is full, could not return key %s", getKeyDisplayName(key))
	}
}

// CooldownKey 将 key 置为冷却状态（上游返回 429/401 时调用）
func (km *PooledKeyManager) CooldownKey(key *GroqKey, duration time.Duration) {
	if key == nil {
		return
	}

	km.mu.Lock()
	key.CooldownUntil = time.Now().Add(duration)
	km.mu.Unlock()

	km.logger.Warn("Key %s placed in cooldown for %v", getKeyDisplayName(key), duration)
}

// GetKeyCount 获取 key 总数
func (km *PooledKeyManager) GetKeyCount() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.keys)
}

// GetAvailableCount 获取当前可用（非冷却）的 key 数
func (km *PooledKeyManager) GetAvailableCount() int {
	km.mu.RLock()
	defer km.mu.RUnlock()

	now := time.Now()
	available := 0
	for i := range km.keys {
		if now.After(km.keys[i].CooldownUntil) {
			available++
		}
	}
	return available
}

// Close 关闭 key 管理器
func (km *PooledKeyManager) Close() error {
	return nil
}
