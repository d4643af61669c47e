package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestKeyManager(t *testing.T, keys ...string) *PooledKeyManager {
	t.Helper()
	km, err := NewPooledKeyManager(KeyManagerConfig{
		APIKeys: keys,
		Logger:  &NopLogger{},
		Metrics: &NopMetrics{},
	})
	if err != nil {
		t.Fatalf("创建 key 管理器失败: %v", err)
	}
	t.Cleanup(func() { km.Close() })
	return km
}

func TestNewPooledKeyManager_NoKeys(t *testing.T) {
	_, err := NewPooledKeyManager(KeyManagerConfig{})
	if err == nil {
		t.Fatal("empty key list should return an error")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != ErrCodeNoKeysConfigured {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPooledKeyManager_AcquireRelease(t *testing.T) {
	km := newTestKeyManager(t, "gsk_key_one", "gsk_key_two")

	if km.GetKeyCount() != 2 {
		t.Errorf("GetKeyCount = %d, want 2", km.GetKeyCount())
	}

	key, err := km.AcquireKey(context.Background())
	if err != nil {
		t.Fatalf("AcquireKey 失败: %v", err)
	}
	if key.RequestCount != 1 {
		t.Errorf("RequestCount = %d, want 1", key.RequestCount)
	}
	if key.LastUsed.IsZero() {
		t.Error("LastUsed should be set")
	}

	km.ReleaseKey(key)

	// 归还后应当可以再次获取
	key2, err := km.AcquireKey(context.Background())
	if err != nil {
		t.Fatalf("second AcquireKey 失败: %v", err)
	}
	km.ReleaseKey(key2)
}

func TestPooledKeyManager_SkipsCooledKey(t *testing.T) {
	km := newTestKeyManager(t, "gsk_key_one", "gsk_key_two")

	first, err := km.AcquireKey(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	km.CooldownKey(first, time.Minute)
	km.ReleaseKey(first)

	// 冷却中的 key 应当被跳过，拿到另一个
	got, err := km.AcquireKey(context.Background())
	if err != nil {
		t.Fatalf("AcquireKey 失败: %v", err)
	}
	if got.APIKey == first.APIKey {
		t.Errorf("acquired the cooled key %s", getKeyDisplayName(got))
	}
	km.ReleaseKey(got)

	if km.GetAvailableCount() != 1 {
		t.Errorf("GetAvailableCount = %d, want 1", km.GetAvailableCount())
	}
}

func TestPooledKeyManager_SingleKeyWaitsForCooldown(t *testing.T) {
	km := newTestKeyManager(t, "gsk_only_key")

	key, err := km.AcquireKey(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	km.CooldownKey(key, 50*time.Millisecond)
	km.ReleaseKey(key)

	start := time.Now()
	got, err := km.AcquireKey(context.Background())
	if err != nil {
		t.Fatalf("AcquireKey 失败: %v", err)
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Error("single key should wait out the cooldown")
	}
	km.ReleaseKey(got)
}

func TestPooledKeyManager_AcquireContextCancelled(t *testing.T) {
	km := newTestKeyManager(t, "gsk_only_key")

	// 占住唯一的 key，让下一次获取阻塞
	key, err := km.AcquireKey(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer km.ReleaseKey(key)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := km.AcquireKey(ctx); err == nil {
		t.Error("cancelled context should abort AcquireKey")
	}
}
