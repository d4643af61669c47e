package main

import (
	"context"
	"os"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const (
	statsRedisKey = "manimate:stats"
)

// FileStorage implements persistence using JSON files
type FileStorage struct {
	filePath string
}

// NewFileStorage 创建新的文件存储
func NewFileStorage(filePath string) *FileStorage {
	if filePath == "" {
		filePath = StatsFilePath
	}
	return &FileStorage{
		filePath: filePath,
	}
}

func (fs *FileStorage) SaveStats(stats *RequestStats) error {
	data, err := sonic.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(fs.filePath, data, FilePermissionReadWrite)
}

func (fs *FileStorage) LoadStats() (*RequestStats, error) {
	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty stats if file doesn't exist
			return &RequestStats{
				RequestHistory: []RequestRecord{},
			}, nil
		}
		return nil, err
	}

	var stats RequestStats
	if err := sonic.Unmarshal(data, &stats); err != nil {
		return nil, err
	}

	// Ensure history is not nil
	if stats.RequestHistory == nil {
		stats.RequestHistory = []RequestRecord{}
	}

	return &stats, nil
}

func (fs *FileStorage) Close() error {
	return nil // File storage doesn't need cleanup
}

// RedisStorage implements persistence using Redis
type RedisStorage struct {
	client *redis.Client
	ctx    context.Context
	key    string
}

// RedisStorageConfig Redis 存储配置
type RedisStorageConfig struct {
	URL string
	Key string
}

func NewRedisStorage(config RedisStorageConfig) (*RedisStorage, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx := context.Background()

	// Test connection
	_, err = client.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}

	key := config.Key
	if key == "" {
		key = statsRedisKey
	}

	Info("Successfully connected to Redis")
	return &RedisStorage{
		client: client,
		ctx:    ctx,
		key:    key,
	}, nil
}

func (rs *RedisStorage) SaveStats(stats *RequestStats) error {
	data, err := marshalJSON(stats)
	if err != nil {
		return err
	}

	return rs.client.Set(rs.ctx, rs.key, data, 0).Err()
}

func (rs *RedisStorage) LoadStats() (*RequestStats, error) {
	val, err := rs.client.Get(rs.ctx, rs.key).Result()
	if err != nil {
		if err == redis.Nil {
			// Key 不存在，返回空统计
			return &RequestStats{
				RequestHistory: []RequestRecord{},
			}, nil
		}
		return nil, err
	}

	var stats RequestStats
	if err := unmarshalJSON([]byte(val), &stats); err != nil {
		return nil, err
	}

	if stats.RequestHistory == nil {
		stats.RequestHistory = []RequestRecord{}
	}

	return &stats, nil
}

func (rs *RedisStorage) Close() error {
	return rs.client.Close()
}

// ==================== 存储选择 ====================

// createStorage 根据配置选择存储后端
// 配置了 REDIS_URL 时使用 Redis，否则回退到本地 JSON 文件
func createStorage(redisURL, statsFile string) StorageInterface {
	if redisURL != "" {
		storage, err := NewRedisStorage(RedisStorageConfig{URL: redisURL})
		if err != nil {
			Warn("Failed to connect to Redis (%v), falling back to file storage", err)
			return NewFileStorage(statsFile)
		}
		return storage
	}
	return NewFileStorage(statsFile)
}
