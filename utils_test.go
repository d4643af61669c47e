package main

import (
	"strings"
	"testing"
	"time"
)

func TestParseEnvList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ", []string{"a", "b"}},
		{"a,,b,", []string{"a", "b"}},
		{"single", []string{"single"}},
	}

	for _, tt := range tests {
		got := parseEnvList(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("parseEnvList(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseEnvList(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestParseEnvInt(t *testing.T) {
	t.Setenv("TEST_INT_VALID", "42")
	t.Setenv("TEST_INT_INVALID", "not a number")

	if got := parseEnvInt("TEST_INT_VALID", 1); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
	if got := parseEnvInt("TEST_INT_INVALID", 7); got != 7 {
		t.Errorf("invalid value should use default, got %d", got)
	}
	if got := parseEnvInt("TEST_INT_MISSING", 3); got != 3 {
		t.Errorf("missing value should use default, got %d", got)
	}
}

func TestParseEnvDuration(t *testing.T) {
	t.Setenv("TEST_DUR_GO", "5m")
	t.Setenv("TEST_DUR_SECONDS", "300")
	t.Setenv("TEST_DUR_INVALID", "later")

	if got := parseEnvDuration("TEST_DUR_GO", time.Second); got != 5*time.Minute {
		t.Errorf("got %v, want 5m", got)
	}
	// 纯数字按秒解释
	if got := parseEnvDuration("TEST_DUR_SECONDS", time.Second); got != 300*time.Second {
		t.Errorf("got %v, want 300s", got)
	}
	if got := parseEnvDuration("TEST_DUR_INVALID", time.Minute); got != time.Minute {
		t.Errorf("invalid value should use default, got %v", got)
	}
}

func TestParseEnvBool(t *testing.T) {
	t.Setenv("TEST_BOOL_TRUE", "true")
	t.Setenv("TEST_BOOL_INVALID", "maybe")

	if !parseEnvBool("TEST_BOOL_TRUE", false) {
		t.Error("got false, want true")
	}
	if parseEnvBool("TEST_BOOL_INVALID", false) {
		t.Error("invalid value should use default false")
	}
	if !parseEnvBool("TEST_BOOL_MISSING", true) {
		t.Error("missing value should use default true")
	}
}

func TestGenerateCacheKey(t *testing.T) {
	key1 := generateCacheKey("enhance", "model-a", "prompt")
	key2 := generateCacheKey("enhance", "model-a", "prompt")
	key3 := generateCacheKey("enhance", "model-b", "prompt")

	if key1 != key2 {
		t.Error("same inputs should produce the same key")
	}
	if key1 == key3 {
		t.Error("different inputs should produce different keys")
	}
	if !strings.HasPrefix(key1, CacheKeyVersion+":enhance:") {
		t.Errorf("unexpected key format: %s", key1)
	}

	// 分隔符防止拼接歧义
	if generateCacheKey("p", "ab", "c") == generateCacheKey("p", "a", "bc") {
		t.Error("part boundaries should affect the key")
	}
}

func TestTruncateString(t *testing.T) {
	long := strings.Repeat("x", 100)
	got := truncateString(long, 10, 10, "...")
	if len(got) != 23 {
		t.Errorf("len = %d, want 23", len(got))
	}
	if !strings.HasPrefix(got, "xxxxxxxxxx...") {
		t.Errorf("unexpected result: %s", got)
	}

	short := "short"
	if truncateString(short, 10, 10, "...") != short {
		t.Error("short strings should pass through unchanged")
	}
}

func TestGetKeyDisplayName(t *testing.T) {
	key := &GroqKey{APIKey: "gsk_1234567890abcdef"}
	got := getKeyDisplayName(key)

	if strings.Contains(got, "gsk_1234567890") {
		t.Errorf("display name leaks the key: %s", got)
	}
	if !strings.HasSuffix(got, "abcdef") {
		t.Errorf("display name should keep the key suffix: %s", got)
	}

	if getKeyDisplayName(nil) != "Key Unknown" {
		t.Error("nil key should return Key Unknown")
	}
	if getKeyDisplayName(&GroqKey{}) != "Key Unknown" {
		t.Error("empty key should return Key Unknown")
	}
}
