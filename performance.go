package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ==================== 质量档位 ====================

// QualityPreset 渲染质量档位
type QualityPreset struct {
	Name          string `json:"name"`
	Flag          string `json:"-"`
	Description   string `json:"description"`
	Resolution    string `json:"resolution"`
	FPS           int    `json:"fps"`
	EstRenderSecs int    `json:"estimated_render_secs"`
}

const (
	QualityLow    = "low_quality"
	QualityMedium = "medium_quality"
	QualityHigh   = "high_quality"

	// DefaultQuality 默认质量档位
	DefaultQuality = QualityMedium
)

// qualityPresets 可用的质量档位
// flag 直接传给 manim CLI
var qualityPresets = map[string]QualityPreset{
	QualityLow: {
		Name:          QualityLow,
		Flag:          "-ql",
		Description:   "Low Quality (Fast)",
		Resolution:    "480p",
		FPS:           30,
		EstRenderSecs: 60,
	},
	QualityMedium: {
		Name:          QualityMedium,
		Flag:          "-qm",
		Description:   "Medium Quality (Balanced)",
		Resolution:    "720p",
		FPS:           30,
		EstRenderSecs: 180,
	},
	QualityHigh: {
		Name:          QualityHigh,
		Flag:          "-qh",
		Description:   "High Quality (Slow)",
		Resolution:    "1080p",
		FPS:           60,
		EstRenderSecs: 300,
	},
}

// GetQualityPreset 获取质量档位，未知档位回退到默认
func GetQualityPreset(name string) QualityPreset {
	if preset, ok := qualityPresets[name]; ok {
		return preset
	}
	return qualityPresets[DefaultQuality]
}

// IsValidQuality 判断质量档位是否有效
func IsValidQuality(name string) bool {
	_, ok := qualityPresets[name]
	return ok
}

// ListQualityPresets 列出所有质量档位（稳定顺序）
func ListQualityPresets() []QualityPreset {
	order := []string{QualityLow, QualityMedium, QualityHigh}
	presets := make([]QualityPreset, 0, len(order))
	for _, name := range order {
		presets = append(presets, qualityPresets[name])
	}
	return presets
}

// ==================== 复杂度分析 ====================

const (
	ComplexitySimple      = "simple"
	ComplexityMedium      = "medium"
	ComplexityComplex     = "complex"
	ComplexityVeryComplex = "very_complex"
)

// complexityIndicators 代码复杂度指示词
var complexityIndicators = map[string][]string{
	ComplexitySimple:      {"Text", "Write", "Create"},
	ComplexityMedium:      {"Transform", "FadeIn", "FadeOut", "MoveTo"},
	ComplexityComplex:     {"Axes", "plot", "FunctionGraph", "BarChart"},
	ComplexityVeryComplex: {"ThreeDScene", "rotate", "integral"},
}

// AnalyzeCodeComplexity 分析代码复杂度等级（用于渲染时间预估）
func AnalyzeCodeComplexity(code string) string {
	codeLower := strings.ToLower(code)

	scores := map[string]int{
		ComplexitySimple:      0,
		ComplexityMedium:      0,
		ComplexityComplex:     0,
		ComplexityVeryComplex: 0,
	}

	for complexity, indicators := range complexityIndicators {
		for _, indicator := range indicators {
			scores[complexity] += strings.Count(codeLower, strings.ToLower(indicator))
		}
	}

	// 从最复杂到最简单取第一个命中的等级
	for _, level := range []string{ComplexityVeryComplex, ComplexityComplex, ComplexityMedium, ComplexitySimple} {
		if scores[level] > 0 {
			return level
		}
	}
	return ComplexitySimple
}

// complexityMultipliers 复杂度对预估时间的放大系数
var complexityMultipliers = map[string]float64{
	ComplexitySimple:      0.5,
	ComplexityMedium:      1.0,
	ComplexityComplex:     2.0,
	ComplexityVeryComplex: 3.0,
}

// EstimateRenderSecs 预估渲染时间（秒）
func EstimateRenderSecs(quality, complexity string) int {
	base := GetQualityPreset(quality).EstRenderSecs

	multiplier, ok := complexityMultipliers[complexity]
	if !ok {
		multiplier = 1.0
	}

	return int(float64(base) * multiplier)
}

// ==================== 代码性能优化 ====================

var (
	reWaitCall = regexp.MustCompile(`self\.wait\((\d+)\)`)
	reRunTime  = regexp.MustCompile(`run_time=(\d+)`)
)

// OptimizeCodeForPerformance 钳制过长的 wait 和 run_time
// LLM 偶尔生成 self.wait(30) 这类会把渲染拖到超时的调用
func OptimizeCodeForPerformance(code string) string {
	code = reWaitCall.ReplaceAllStringFunc(code, func(match string) string {
		return clampNumericArg(match, reWaitCall, "self.wait(%d)", MaxWaitSeconds)
	})

	code = reRunTime.ReplaceAllStringFunc(code, func(match string) string {
		return clampNumericArg(match, reRunTime, "run_time=%d", MaxRunTimeSeconds)
	})

	return code
}

// clampNumericArg 钳制正则捕获的数字参数
func clampNumericArg(match string, re *regexp.Regexp, format string, maxValue int) string {
	sub := re.FindStringSubmatch(match)
	if len(sub) != 2 {
		return match
	}
	value, err := strconv.Atoi(sub[1])
	if err != nil || value <= maxValue {
		return match
	}
	return fmt.Sprintf(format, maxValue)
}
