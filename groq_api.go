package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// GroqClient Groq chat completions 客户端
// 封装上游请求构建、key 池调度和错误处理
type GroqClient struct {
	baseURL    string
	httpClient *http.Client
	keyManager KeyManager
	logger     Logger
}

// GroqClientConfig Groq 客户端配置
type GroqClientConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	KeyManager KeyManager
	Logger     Logger
}

// NewGroqClient 创建 Groq 客户端
func NewGroqClient(config GroqClientConfig) *GroqClient {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = GroqAPIBaseURL
	}

	logger := config.Logger
	if logger == nil {
		logger = &NopLogger{}
	}

	return &GroqClient{
		baseURL:    baseURL,
		httpClient: config.HTTPClient,
		keyManager: config.KeyManager,
		logger:     logger,
	}
}

// createGroqRequest 创建 Groq API HTTP 请求，设置标准头部
func createGroqRequest(ctx context.Context, method, url string, payload any, apiKey string) (*http.Request, error) {
	var body io.Reader

	if payload != nil {
		payloadBytes, err := marshalJSON(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewBuffer(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set(HeaderContentType, ContentTypeJSON)
	req.Header.Set(HeaderAccept, ContentTypeJSON)
	if apiKey != "" {
		req.Header.Set(HeaderAuthorization, AuthBearerPrefix+apiKey)
	}

	return req, nil
}

// ChatCompletion 发送 chat completions 请求并返回首个补全文本
// 自动从 key 池获取 key，限流时冷却 key 并返回错误由上层重试
func (gc *GroqClient) ChatCompletion(ctx context.Context, request *ChatCompletionRequest) (string, error) {
	key, err := gc.keyManager.AcquireKey(ctx)
	if err != nil {
		return "", ErrGenerationFailed(err)
	}
	defer gc.keyManager.ReleaseKey(key)

	url := gc.baseURL + GroqChatCompletionsPath
	req, err := createGroqRequest(ctx, http.MethodPost, url, request, key.APIKey)
	if err != nil {
		return "", ErrGenerationFailed(err)
	}

	resp, err := gc.httpClient.Do(req)
	if err != nil {
		return "", ErrGenerationFailed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		gc.handleErrorStatus(resp, key)
		gc.logger.Error("Groq API error: status %d, body: %s", resp.StatusCode, truncateString(string(body), 200, 0, "..."))
		return "", ErrUpstreamAPI(resp.StatusCode, string(body))
	}

	var completion ChatCompletionResponse
	if err := unmarshalJSON(mustReadAll(resp.Body), &completion); err != nil {
		return "", ErrGenerationFailed(err)
	}

	if len(completion.Choices) == 0 {
		return "", ErrGenerationFailed(fmt.Errorf("empty choices in Groq response"))
	}

	return completion.Choices[0].Message.Content, nil
}

// handleErrorStatus 根据错误状态码处理 key 状态
// 429 表示限流，按 Retry-After 冷却；401 表示 key 失效，长时间冷却
func (gc *GroqClient) handleErrorStatus(resp *http.Response, key *GroqKey) {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		cooldown := KeyCooldownDuration
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
				cooldown = time.Duration(seconds) * time.Second
			}
		}
		gc.keyManager.CooldownKey(key, cooldown)
	case http.StatusUnauthorized, http.StatusForbidden:
		// key 失效，避免后续请求继续撞墙
		gc.keyManager.CooldownKey(key, 24*time.Hour)
	}
}

// mustReadAll 读取完整 body，失败时返回空切片交给上层解析报错
func mustReadAll(r io.Reader) []byte {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil
	}
	return data
}
