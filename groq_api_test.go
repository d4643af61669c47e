package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newChatTestClient 搭建假 Groq 服务端和指向它的客户端
func newChatTestClient(t *testing.T, handler http.HandlerFunc) (*GroqClient, *PooledKeyManager) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	km := newTestKeyManager(t, "gsk_test_key")
	client := NewGroqClient(GroqClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		KeyManager: km,
		Logger:     &NopLogger{},
	})
	return client, km
}

func chatRequest() *ChatCompletionRequest {
	return &ChatCompletionRequest{
		Model: DefaultModel,
		Messages: []ChatMessage{
			{Role: "user", Content: "draw a circle"},
		},
		Temperature: CodeGenTemperature,
		MaxTokens:   CodeGenMaxTokens,
	}
}

func TestChatCompletion_Success(t *testing.T) {
	var gotAuth, gotContentType, gotAccept string
	client, _ := newChatTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get(HeaderAuthorization)
		gotContentType = r.Header.Get(HeaderContentType)
		gotAccept = r.Header.Get(HeaderAccept)

		if r.URL.Path != GroqChatCompletionsPath {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req ChatCompletionRequest
		if err := unmarshalJSON(mustReadAll(r.Body), &req); err != nil {
			t.Errorf("request body did not parse: %v", err)
		}
		if req.Model != DefaultModel {
			t.Errorf("model = %s, want %s", req.Model, DefaultModel)
		}

		w.Header().Set(HeaderContentType, ContentTypeJSON)
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"from manim import *"}}]}`))
	})

	content, err := client.ChatCompletion(context.Background(), chatRequest())
	if err != nil {
		t.Fatalf("ChatCompletion 失败: %v", err)
	}
	if content != "from manim import *" {
		t.Errorf("content = %q", content)
	}
	if gotAuth != AuthBearerPrefix+"gsk_test_key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotContentType != ContentTypeJSON {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotAccept != ContentTypeJSON {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestChatCompletion_RateLimitCoolsKey(t *testing.T) {
	client, km := newChatTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "15")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit exceeded"}}`))
	})

	_, err := client.ChatCompletion(context.Background(), chatRequest())
	if err == nil {
		t.Fatal("429 should return an error")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != ErrCodeUpstreamAPI {
		t.Errorf("unexpected error: %v", err)
	}

	// key 应当带 Retry-After 冷却
	if km.GetAvailableCount() != 0 {
		t.Error("rate limited key should be cooling down")
	}
	remaining := time.Until(km.keys[0].CooldownUntil)
	if remaining < 10*time.Second || remaining > 15*time.Second {
		t.Errorf("cooldown remaining = %v, want about 15s", remaining)
	}
}

func TestChatCompletion_UnauthorizedCoolsKeyLong(t *testing.T) {
	client, km := newChatTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	})

	if _, err := client.ChatCompletion(context.Background(), chatRequest()); err == nil {
		t.Fatal("401 should return an error")
	}

	remaining := time.Until(km.keys[0].CooldownUntil)
	if remaining < 23*time.Hour {
		t.Errorf("invalid key cooldown = %v, want about 24h", remaining)
	}
}

func TestChatCompletion_ServerError(t *testing.T) {
	client, km := newChatTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal error"))
	})

	_, err := client.ChatCompletion(context.Background(), chatRequest())
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != ErrCodeUpstreamAPI {
		t.Errorf("unexpected error: %v", err)
	}

	// 500 不触发冷却
	if km.GetAvailableCount() != 1 {
		t.Error("5xx should not cool the key down")
	}
}

func TestChatCompletion_EmptyChoices(t *testing.T) {
	client, _ := newChatTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderContentType, ContentTypeJSON)
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.ChatCompletion(context.Background(), chatRequest())
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != ErrCodeGenerationFailed {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestChatCompletion_KeyReleasedAfterRequest(t *testing.T) {
	client, km := newChatTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderContentType, ContentTypeJSON)
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	})

	for i := 0; i < 3; i++ {
		if _, err := client.ChatCompletion(context.Background(), chatRequest()); err != nil {
			t.Fatalf("request %d 失败: %v", i, err)
		}
	}

	// 单 key 连续请求成功说明 key 每次都被归还
	if km.keys[0].RequestCount != 3 {
		t.Errorf("RequestCount = %d, want 3", km.keys[0].RequestCount)
	}
}
