package main

import (
	"path/filepath"
	"testing"
	"time"
)

func waitForHistory(t *testing.T, stats *AtomicRequestStats, want int) []RequestRecord {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		history := stats.GetHistory()
		if len(history) >= want {
			return history
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("history did not reach %d records in time", want)
	return nil
}

func TestAtomicRequestStats_RecordGeneration(t *testing.T) {
	stats := NewAtomicRequestStats()
	defer stats.Stop()

	stats.RecordGeneration(true, 4000, DefaultModel, QualityMedium, "geometry", "")
	stats.RecordGeneration(true, 6000, DefaultModel, QualityHigh, "calculus", "")
	stats.RecordGeneration(false, 0, DefaultModel, QualityMedium, "algebra", ErrorTypeRendering)

	snapshot := stats.ToRequestStats()
	if snapshot.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", snapshot.TotalRequests)
	}
	if snapshot.SuccessfulRequests != 2 || snapshot.FailedRequests != 1 {
		t.Errorf("success/failed = %d/%d, want 2/1", snapshot.SuccessfulRequests, snapshot.FailedRequests)
	}
	if snapshot.TotalRenderTime != 10000 {
		t.Errorf("TotalRenderTime = %d, want 10000", snapshot.TotalRenderTime)
	}
	if snapshot.QualityUsage[QualityMedium] != 2 || snapshot.QualityUsage[QualityHigh] != 1 {
		t.Errorf("QualityUsage = %v", snapshot.QualityUsage)
	}
	if snapshot.ErrorCounts[ErrorTypeRendering] != 1 {
		t.Errorf("ErrorCounts = %v", snapshot.ErrorCounts)
	}
	if snapshot.LastRequestTime.IsZero() {
		t.Error("LastRequestTime should be set")
	}

	// 历史记录由后台 worker 批量刷新
	history := waitForHistory(t, stats, 3)
	if history[0].Category != "geometry" {
		t.Errorf("history[0].Category = %s", history[0].Category)
	}
}

func TestAtomicRequestStats_LoadFrom(t *testing.T) {
	stats := NewAtomicRequestStats()
	defer stats.Stop()

	stats.LoadFrom(&RequestStats{
		TotalRequests:      5,
		SuccessfulRequests: 4,
		FailedRequests:     1,
		TotalRenderTime:    20000,
		QualityUsage:       map[string]int64{QualityLow: 5},
		RequestHistory:     []RequestRecord{{Success: true, RenderTimeMs: 4000}},
	})

	snapshot := stats.ToRequestStats()
	if snapshot.TotalRequests != 5 || snapshot.QualityUsage[QualityLow] != 5 {
		t.Errorf("loaded snapshot mismatch: %+v", snapshot)
	}
	if len(snapshot.RequestHistory) != 1 {
		t.Errorf("history length = %d, want 1", len(snapshot.RequestHistory))
	}

	// nil 输入应当被忽略
	stats.LoadFrom(nil)
}

func TestStatsService_PersistAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	storage := NewFileStorage(path)

	svc := NewStatsService(storage, &NopLogger{})
	svc.RecordGeneration(true, 5000, DefaultModel, QualityMedium, "algebra", "")
	svc.Stop() // Stop 做最后一次保存

	restored := NewStatsService(NewFileStorage(path), &NopLogger{})
	defer restored.Stop()

	snapshot := restored.Snapshot()
	if snapshot.TotalRequests != 1 || snapshot.SuccessfulRequests != 1 {
		t.Errorf("restored snapshot mismatch: %+v", snapshot)
	}
}

func TestStatsService_GetPeriodStats(t *testing.T) {
	svc := NewStatsService(nil, &NopLogger{})
	defer svc.Stop()

	svc.RecordGeneration(true, 4000, DefaultModel, QualityMedium, "algebra", "")
	svc.RecordGeneration(true, 6000, DefaultModel, QualityMedium, "algebra", "")
	svc.RecordGeneration(false, 0, DefaultModel, QualityMedium, "algebra", ErrorTypeAPI)

	waitForHistory(t, svc.stats, 3)

	period := svc.GetPeriodStats(24)
	if period.Requests != 3 {
		t.Errorf("Requests = %d, want 3", period.Requests)
	}
	wantRate := float64(2) / 3 * 100
	if period.SuccessRate < wantRate-0.01 || period.SuccessRate > wantRate+0.01 {
		t.Errorf("SuccessRate = %f, want %f", period.SuccessRate, wantRate)
	}
	if period.AvgRenderTimeMs != 10000/3 {
		t.Errorf("AvgRenderTimeMs = %d, want %d", period.AvgRenderTimeMs, 10000/3)
	}
}

func TestStatsService_GetPeriodStats_Empty(t *testing.T) {
	svc := NewStatsService(nil, &NopLogger{})
	defer svc.Stop()

	period := svc.GetPeriodStats(24)
	if period.Requests != 0 || period.SuccessRate != 0 || period.AvgRenderTimeMs != 0 {
		t.Errorf("empty period should be zero: %+v", period)
	}
}
