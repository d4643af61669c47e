package main

import (
	"strings"
	"testing"
)

func TestGetQualityPreset(t *testing.T) {
	preset := GetQualityPreset(QualityLow)
	if preset.Flag != "-ql" {
		t.Errorf("low quality flag = %s, want -ql", preset.Flag)
	}

	preset = GetQualityPreset("nonsense")
	if preset.Name != DefaultQuality {
		t.Errorf("unknown quality should fall back to default, got %s", preset.Name)
	}
}

func TestIsValidQuality(t *testing.T) {
	for _, q := range []string{QualityLow, QualityMedium, QualityHigh} {
		if !IsValidQuality(q) {
			t.Errorf("%s should be valid", q)
		}
	}
	if IsValidQuality("4k") {
		t.Error("unknown quality reported as valid")
	}
}

func TestListQualityPresets_StableOrder(t *testing.T) {
	presets := ListQualityPresets()
	if len(presets) != 3 {
		t.Fatalf("preset count = %d, want 3", len(presets))
	}
	if presets[0].Name != QualityLow || presets[2].Name != QualityHigh {
		t.Errorf("presets out of order: %s ... %s", presets[0].Name, presets[2].Name)
	}
}

func TestAnalyzeCodeComplexity(t *testing.T) {
	cases := []struct {
		name string
		code string
		want string
	}{
		{"plain text scene", `Text("hi"); Write(t)`, ComplexitySimple},
		{"transforms", `self.play(Transform(a, b)); FadeIn(c)`, ComplexityMedium},
		{"axes and plots", `axes = Axes(); axes.plot(lambda x: x)`, ComplexityComplex},
		{"3d scene", `class S(ThreeDScene): rotate`, ComplexityVeryComplex},
		{"empty", ``, ComplexitySimple},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AnalyzeCodeComplexity(tc.code); got != tc.want {
				t.Errorf("complexity = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestEstimateRenderSecs(t *testing.T) {
	base := GetQualityPreset(QualityMedium).EstRenderSecs

	if got := EstimateRenderSecs(QualityMedium, ComplexityMedium); got != base {
		t.Errorf("medium/medium estimate = %d, want %d", got, base)
	}
	if got := EstimateRenderSecs(QualityMedium, ComplexitySimple); got != base/2 {
		t.Errorf("simple estimate = %d, want %d", got, base/2)
	}
	if got := EstimateRenderSecs(QualityMedium, ComplexityVeryComplex); got != base*3 {
		t.Errorf("very complex estimate = %d, want %d", got, base*3)
	}
}

func TestOptimizeCodeForPerformance_ClampsWaits(t *testing.T) {
	code := "self.wait(30)\nself.wait(1)\nself.play(Create(c), run_time=20)\n"
	optimized := OptimizeCodeForPerformance(code)

	if strings.Contains(optimized, "self.wait(30)") {
		t.Error("long wait was not clamped")
	}
	if !strings.Contains(optimized, "self.wait(3)") {
		t.Error("clamped wait should use the maximum value")
	}
	if !strings.Contains(optimized, "self.wait(1)") {
		t.Error("short wait should be untouched")
	}
	if strings.Contains(optimized, "run_time=20") {
		t.Error("long run_time was not clamped")
	}
	if !strings.Contains(optimized, "run_time=5") {
		t.Error("clamped run_time should use the maximum value")
	}
}
