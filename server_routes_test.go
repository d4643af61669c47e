package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	statsFile := filepath.Join(t.TempDir(), "stats.json")
	storage := NewFileStorage(statsFile)

	config := ServerConfig{
		Port:          "0",
		GinMode:       "test",
		ClientAPIKeys: []string{"test-key"},
		GroqAPIKeys:   []string{"gsk_test_dummy"},
		GroqBaseURL:   "http://127.0.0.1:0",
		ManimBin:      "manim-not-installed",
		MediaDir:      t.TempDir(),
		RenderTimeout: time.Minute,
		HTTPClientSettings: HTTPClientSettings{
			MaxIdleConns:        1,
			MaxIdleConnsPerHost: 1,
			MaxConnsPerHost:     1,
			IdleConnTimeout:     time.Second,
			TLSHandshakeTimeout: time.Second,
			RequestTimeout:      time.Second,
		},
		Storage: storage,
		Logger:  &NopLogger{},
	}

	server, err := NewServer(config)
	if err != nil {
		t.Fatalf("创建测试 Server 失败: %v", err)
	}

	t.Cleanup(func() {
		server.jobManager.Stop()
		server.statsService.Stop()
		server.cacheService.Stop()
		server.hub.Stop()
	})

	return server
}

func TestHealthCheck_NoAuth(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("health should return 200 without auth, got %d", w.Code)
	}
}

func TestStatsEndpoint_NoAuth(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("stats should return 200 without auth, got %d", w.Code)
	}
}

func TestListModels_RequiresAuth(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing auth should return 401, got %d", w.Code)
	}
}

func TestListModels_ValidAuth(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("Authorization", "Bearer test-key")
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("valid auth should return 200, got %d", w.Code)
	}
}

func TestListModels_XAPIKey(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("x-api-key", "test-key")
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("x-api-key auth should return 200, got %d", w.Code)
	}
}

func TestListModels_InvalidKey(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("invalid key should return 403, got %d", w.Code)
	}
}

func TestListQualities(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/qualities", nil)
	req.Header.Set("Authorization", "Bearer test-key")
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("qualities should return 200, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/generations", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("OPTIONS preflight should return 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("preflight response missing CORS origin header")
	}
}

func TestOpenMode_NoClientKeys(t *testing.T) {
	statsFile := filepath.Join(t.TempDir(), "stats.json")

	config := ServerConfig{
		Port:          "0",
		GinMode:       "test",
		GroqAPIKeys:   []string{"gsk_test_dummy"},
		MediaDir:      t.TempDir(),
		RenderTimeout: time.Minute,
		Storage:       NewFileStorage(statsFile),
		Logger:        &NopLogger{},
	}

	server, err := NewServer(config)
	if err != nil {
		t.Fatalf("创建测试 Server 失败: %v", err)
	}
	defer func() {
		server.jobManager.Stop()
		server.statsService.Stop()
		server.cacheService.Stop()
		server.hub.Stop()
	}()

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("open mode should not require auth, got %d", w.Code)
	}
}

func TestNewServer_NoGroqKeys(t *testing.T) {
	config := ServerConfig{
		Port:    "0",
		GinMode: "test",
		Logger:  &NopLogger{},
	}

	if _, err := NewServer(config); err == nil {
		t.Fatal("NewServer should fail without Groq API keys")
	}
}

// ==================== 生成端点测试 ====================

// newStubbedServer 用 stub 流水线替换真实生成与渲染，HTTP 层走完整路由
func newStubbedServer(t *testing.T, gen CodeGenerator, ren VideoRenderer) *Server {
	t.Helper()

	server := newTestServer(t)
	m := NewJobManager(JobManagerConfig{
		Generator: gen,
		Renderer:  ren,
		Hub:       server.hub,
		Stats:     server.statsService,
		Logger:    &NopLogger{},
		MediaDir:  t.TempDir(),
		Workers:   1,
	})
	t.Cleanup(m.Stop)
	server.jobManager = m
	return server
}

func doAuthedRequest(server *Server, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer test-key")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	return w
}

// waitForJobOverHTTP 轮询状态端点直到任务到达终态
func waitForJobOverHTTP(t *testing.T, server *Server, id string) Job {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		w := doAuthedRequest(server, http.MethodGet, "/v1/generations/"+id, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status query returned %d: %s", w.Code, w.Body.String())
		}
		var job Job
		if err := unmarshalJSON(w.Body.Bytes(), &job); err != nil {
			t.Fatalf("unmarshal job: %v", err)
		}
		if job.Status == JobStatusSucceeded || job.Status == JobStatusFailed {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish in time", id)
	return Job{}
}

func TestCreateGeneration_Accepted(t *testing.T) {
	server := newStubbedServer(t, &stubGenerator{code: validScene}, &stubRenderer{})

	body := strings.NewReader(`{"prompt":"draw a circle moving right"}`)
	w := doAuthedRequest(server, http.MethodPost, "/v1/generations", body)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	var job Job
	if err := unmarshalJSON(w.Body.Bytes(), &job); err != nil {
		t.Fatalf("unmarshal job: %v", err)
	}
	if job.ID == "" {
		t.Error("job ID should not be empty")
	}
	if job.Status != JobStatusQueued {
		t.Errorf("expected status queued, got %q", job.Status)
	}

	final := waitForJobOverHTTP(t, server, job.ID)
	if final.Status != JobStatusSucceeded {
		t.Fatalf("expected succeeded, got %q", final.Status)
	}
	if final.VideoURL == "" {
		t.Error("succeeded job should carry video_url")
	}
}

func TestCreateGeneration_InvalidBody(t *testing.T) {
	server := newStubbedServer(t, &stubGenerator{code: validScene}, &stubRenderer{})

	w := doAuthedRequest(server, http.MethodPost, "/v1/generations", strings.NewReader(`{"model":"x"}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing prompt should return 400, got %d", w.Code)
	}
}

func TestCreateGeneration_ShortPrompt(t *testing.T) {
	server := newStubbedServer(t, &stubGenerator{code: validScene}, &stubRenderer{})

	w := doAuthedRequest(server, http.MethodPost, "/v1/generations", strings.NewReader(`{"prompt":"short one"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("short prompt should return 400, got %d", w.Code)
	}

	var resp map[string]string
	if err := unmarshalJSON(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	if resp["code"] != ErrCodeInvalidConfig {
		t.Errorf("expected code %s, got %q", ErrCodeInvalidConfig, resp["code"])
	}
}

// 提示词长度按字符数而不是字节数校验，多字节文字不应被误判超长
func TestCreateGeneration_MultibytePrompt(t *testing.T) {
	server := newStubbedServer(t, &stubGenerator{code: validScene}, &stubRenderer{})

	prompt := strings.Repeat("画", 400)
	payload, err := marshalJSON(map[string]string{"prompt": prompt})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	w := doAuthedRequest(server, http.MethodPost, "/v1/generations", bytes.NewReader(payload))
	if w.Code != http.StatusAccepted {
		t.Fatalf("400-character prompt should be accepted, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetGeneration_NotFound(t *testing.T) {
	server := newTestServer(t)

	w := doAuthedRequest(server, http.MethodGet, "/v1/generations/no-such-id", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown id should return 404, got %d", w.Code)
	}
}

func TestGetGenerationVideo_Lifecycle(t *testing.T) {
	gate := make(chan struct{})
	server := newStubbedServer(t, &stubGenerator{code: validScene, gate: gate}, &stubRenderer{})

	w := doAuthedRequest(server, http.MethodPost, "/v1/generations", strings.NewReader(`{"prompt":"draw a circle moving right"}`))
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	var job Job
	if err := unmarshalJSON(w.Body.Bytes(), &job); err != nil {
		t.Fatalf("unmarshal job: %v", err)
	}

	// 任务还卡在 enhance 阶段，视频未就绪
	w = doAuthedRequest(server, http.MethodGet, "/v1/generations/"+job.ID+"/video", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("video before completion should return 409, got %d", w.Code)
	}
	var notReady map[string]string
	if err := unmarshalJSON(w.Body.Bytes(), &notReady); err != nil {
		t.Fatalf("unmarshal not-ready body: %v", err)
	}
	if notReady["status"] == "" {
		t.Error("not-ready response should carry current job status")
	}

	close(gate)
	waitForJobOverHTTP(t, server, job.ID)

	w = doAuthedRequest(server, http.MethodGet, "/v1/generations/"+job.ID+"/video", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("video after completion should return 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "video" {
		t.Errorf("unexpected video body %q", w.Body.String())
	}
}

func TestGetGenerationVideo_NotFound(t *testing.T) {
	server := newTestServer(t)

	w := doAuthedRequest(server, http.MethodGet, "/v1/generations/no-such-id/video", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown id should return 404, got %d", w.Code)
	}
}

// 任务已经结束后再连 events 端点，终态要从注册表补发而不是死等广播
func TestStreamEvents_FinishedJob(t *testing.T) {
	server := newStubbedServer(t, &stubGenerator{code: validScene}, &stubRenderer{})

	w := doAuthedRequest(server, http.MethodPost, "/v1/generations", strings.NewReader(`{"prompt":"draw a circle moving right"}`))
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	var job Job
	if err := unmarshalJSON(w.Body.Bytes(), &job); err != nil {
		t.Fatalf("unmarshal job: %v", err)
	}
	waitForJobOverHTTP(t, server, job.ID)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- doAuthedRequest(server, http.MethodGet, "/v1/generations/"+job.ID+"/events", nil)
	}()

	select {
	case rec := <-done:
		body := rec.Body.String()
		if !strings.Contains(body, `"status":"`+JobStatusSucceeded+`"`) {
			t.Errorf("event stream should contain terminal status, got %q", body)
		}
		if !strings.Contains(body, StreamChunkDoneMessage) {
			t.Errorf("event stream should end with %s sentinel, got %q", StreamChunkDoneMessage, body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events endpoint did not return for a finished job")
	}
}

func TestStreamEvents_NotFound(t *testing.T) {
	server := newTestServer(t)

	w := doAuthedRequest(server, http.MethodGet, "/v1/generations/no-such-id/events", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown id should return 404, got %d", w.Code)
	}
}
