package main

import (
	"context"
	"sync"
	"time"
)

// LRUCache is a thread-safe LRU cache with expiration
type LRUCache struct {
	capacity int
	items    map[string]*CacheItem
	mu       sync.RWMutex
	head     *CacheItem
	tail     *CacheItem
	// 优雅关闭支持
	ctx    context.Context
	cancel context.CancelFunc
}

// CacheItem represents an item in the cache with LRU links
type CacheItem struct {
	Value      any
	Expiration int64
	key        string
	prev       *CacheItem
	next       *CacheItem
}

// NewCache creates a new LRU Cache with default capacity.
func NewCache() *LRUCache {
	ctx, cancel := context.WithCancel(context.Background())
	cache := &LRUCache{
		capacity: CacheDefaultCapacity,
		items:    make(map[string]*CacheItem),
		ctx:      ctx,
		cancel:   cancel,
	}

	// Initialize sentinel nodes
	cache.head = &CacheItem{}
	cache.tail = &CacheItem{}
	cache.head.next = cache.tail
	cache.tail.prev = cache.head

	// 启动后台清理 goroutine，支持优雅关闭
	go cache.startCleanupWorker()
	return cache
}

// startCleanupWorker 后台清理过期缓存项，支持优雅关闭
func (c *LRUCache) startCleanupWorker() {
	ticker := time.NewTicker(CacheCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpired()
		case <-c.ctx.Done():
			// 收到关闭信号，优雅退出
			return
		}
	}
}

// Stop 停止后台清理 goroutine
func (c *LRUCache) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Set adds an item to the cache, replacing any existing item.
func (c *LRUCache) Set(key string, value any, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// If item exists, update it and move to front
	if item, exists := c.items[key]; exists {
		item.Value = value
		item.Expiration = time.Now().Add(duration).UnixNano()
		c.moveToFront(item)
		return
	}

	// Create new item
	item := &CacheItem{
		Value:      value,
		Expiration: time.Now().Add(duration).UnixNano(),
		key:        key,
	}

	// Add to front
	c.addToFront(item)
	c.items[key] = item

	// Evict if over capacity
	if len(c.items) > c.capacity {
		c.evict()
	}
}

// Get gets an item from the cache. It returns the item or nil, and a bool indicating whether the key was found.
func (c *LRUCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return nil, false
	}

	// 检查是否过期
	if time.Now().UnixNano() > item.Expiration {
		// 立即删除过期项，避免缓存污染
		c.remove(item)
		delete(c.items, key)
		return nil, false
	}

	// Move to front for LRU
	c.moveToFront(item)
	return item.Value, true
}

// Len 返回缓存中的项数（含未清理的过期项）
func (c *LRUCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// LRU cache helper methods
func (c *LRUCache) addToFront(item *CacheItem) {
	item.next = c.head.next
	item.prev = c.head
	c.head.next.prev = item
	c.head.next = item
}

func (c *LRUCache) moveToFront(item *CacheItem) {
	c.remove(item)
	c.addToFront(item)
}

func (c *LRUCache) remove(item *CacheItem) {
	item.prev.next = item.next
	item.next.prev = item.prev
}

func (c *LRUCache) evict() {
	if c.tail.prev == c.head {
		return
	}

	item := c.tail.prev
	c.remove(item)
	delete(c.items, item.key)
}

func (c *LRUCache) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for key, item := range c.items {
		if now > item.Expiration {
			c.remove(item)
			delete(c.items, key)
		}
	}
}

// ==================== CacheService ====================

// CacheService 统一缓存服务
// 按用途拆分缓存实例，避免不同类型的键互相挤占容量
type CacheService struct {
	enhancements *LRUCache // 提示词增强结果缓存
	validations  *LRUCache // 代码验证结果缓存
}

// NewCacheService 创建新的缓存服务
func NewCacheService() *CacheService {
	return &CacheService{
		enhancements: NewCache(),
		validations:  NewCache(),
	}
}

// GetEnhancement 获取提示词增强缓存
func (cs *CacheService) GetEnhancement(key string) (string, bool) {
	cached, found := cs.enhancements.Get(key)
	if !found {
		return "", false
	}
	enhanced, ok := cached.(string)
	return enhanced, ok
}

// SetEnhancement 设置提示词增强缓存
func (cs *CacheService) SetEnhancement(key, value string) {
	cs.enhancements.Set(key, value, EnhancementCacheTTL)
}

// GetValidation 获取代码验证结果缓存
func (cs *CacheService) GetValidation(key string) (ValidationResult, bool) {
	cached, found := cs.validations.Get(key)
	if !found {
		return ValidationResult{}, false
	}
	result, ok := cached.(ValidationResult)
	return result, ok
}

// SetValidation 设置代码验证结果缓存
func (cs *CacheService) SetValidation(key string, result ValidationResult) {
	cs.validations.Set(key, result, ValidationCacheTTL)
}

// Stop 停止所有缓存的后台 goroutine
func (cs *CacheService) Stop() {
	cs.enhancements.Stop()
	cs.validations.Stop()
}
