package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStorage_SaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	fs := NewFileStorage(path)
	defer fs.Close()

	stats := &RequestStats{
		TotalRequests:      10,
		SuccessfulRequests: 8,
		FailedRequests:     2,
		TotalRenderTime:    45000,
		LastRequestTime:    time.Now(),
		QualityUsage:       map[string]int64{QualityMedium: 7, QualityHigh: 3},
		ErrorCounts:        map[string]int64{ErrorTypeTimeout: 2},
		RequestHistory: []RequestRecord{
			{Timestamp: time.Now(), Success: true, RenderTimeMs: 4500, Model: DefaultModel, Quality: QualityMedium, Category: "geometry"},
		},
	}

	if err := fs.SaveStats(stats); err != nil {
		t.Fatalf("SaveStats 失败: %v", err)
	}

	loaded, err := fs.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats 失败: %v", err)
	}

	if loaded.TotalRequests != 10 || loaded.SuccessfulRequests != 8 || loaded.FailedRequests != 2 {
		t.Errorf("counters mismatch: %+v", loaded)
	}
	if loaded.QualityUsage[QualityMedium] != 7 {
		t.Errorf("QualityUsage[%s] = %d, want 7", QualityMedium, loaded.QualityUsage[QualityMedium])
	}
	if loaded.ErrorCounts[ErrorTypeTimeout] != 2 {
		t.Errorf("ErrorCounts[%s] = %d, want 2", ErrorTypeTimeout, loaded.ErrorCounts[ErrorTypeTimeout])
	}
	if len(loaded.RequestHistory) != 1 || loaded.RequestHistory[0].Category != "geometry" {
		t.Errorf("history mismatch: %+v", loaded.RequestHistory)
	}
}

func TestFileStorage_LoadMissingFile(t *testing.T) {
	fs := NewFileStorage(filepath.Join(t.TempDir(), "does-not-exist.json"))

	loaded, err := fs.LoadStats()
	if err != nil {
		t.Fatalf("missing file should yield empty stats, got error: %v", err)
	}
	if loaded.TotalRequests != 0 {
		t.Errorf("TotalRequests = %d, want 0", loaded.TotalRequests)
	}
	if loaded.RequestHistory == nil {
		t.Error("RequestHistory should be initialized")
	}
}

func TestFileStorage_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	if err := os.WriteFile(path, []byte("{not json"), FilePermissionReadWrite); err != nil {
		t.Fatal(err)
	}

	fs := NewFileStorage(path)
	if _, err := fs.LoadStats(); err == nil {
		t.Error("corrupt file should return an error")
	}
}

func TestCreateStorage_FallsBackToFile(t *testing.T) {
	// 无效的 Redis URL 应当回退到文件存储
	storage := createStorage("redis://127.0.0.1:1/0?dial_timeout=100ms", filepath.Join(t.TempDir(), "stats.json"))
	if _, ok := storage.(*FileStorage); !ok {
		t.Errorf("expected fall back to *FileStorage, got %T", storage)
	}

	storage = createStorage("", filepath.Join(t.TempDir(), "stats.json"))
	if _, ok := storage.(*FileStorage); !ok {
		t.Errorf("empty URL should select *FileStorage, got %T", storage)
	}
}
