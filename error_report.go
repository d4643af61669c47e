package main

import (
	"regexp"
	"strings"
)

// ==================== 错误分类常量 ====================

const (
	ErrorTypeImport     = "ImportError"
	ErrorTypeSyntax     = "SyntaxError"
	ErrorTypeAttribute  = "AttributeError"
	ErrorTypeTimeout    = "TimeoutError"
	ErrorTypeFFmpeg     = "FFmpegError"
	ErrorTypeLatex      = "LatexError"
	ErrorTypeNotFound   = "FileNotFoundError"
	ErrorTypeMemory     = "MemoryError"
	ErrorTypePermission = "PermissionError"
	ErrorTypeAPI        = "APIError"
	ErrorTypeValidation = "ValidationError"
	ErrorTypeRendering  = "RenderingError"
	ErrorTypeUnknown    = "UnknownError"
)

// 错误严重程度
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// errorPattern 渲染输出中的错误识别模式
type errorPattern struct {
	re        *regexp.Regexp
	errorType string
}

// errorPatterns 按优先级排列：越靠前的模式越具体
var errorPatterns = []errorPattern{
	{regexp.MustCompile(`(?i)no module named '?\w+'?`), ErrorTypeImport},
	{regexp.MustCompile(`(?i)invalid syntax|syntaxerror`), ErrorTypeSyntax},
	{regexp.MustCompile(`(?i)'\w+' object has no attribute '\w+'`), ErrorTypeAttribute},
	{regexp.MustCompile(`(?i)timed? ?out`), ErrorTypeTimeout},
	{regexp.MustCompile(`(?i)ffmpeg.*not found|ffmpeg error`), ErrorTypeFFmpeg},
	{regexp.MustCompile(`(?i)latex|dvisvgm|tex error`), ErrorTypeLatex},
	{regexp.MustCompile(`(?i)no such file or directory`), ErrorTypeNotFound},
	{regexp.MustCompile(`(?i)memoryerror|out of memory`), ErrorTypeMemory},
	{regexp.MustCompile(`(?i)permission denied`), ErrorTypePermission},
}

// userMessages 错误类型到用户可读消息的映射
var userMessages = map[string]string{
	ErrorTypeImport:     "The rendering environment is missing required packages.",
	ErrorTypeSyntax:     "The generated code has syntax errors.",
	ErrorTypeAttribute:  "The generated code used an invalid Manim object or method.",
	ErrorTypeTimeout:    "Rendering took too long and was cancelled.",
	ErrorTypeFFmpeg:     "Video encoding failed.",
	ErrorTypeLatex:      "Mathematical text rendering failed (LaTeX toolchain).",
	ErrorTypeNotFound:   "A required system command or file was not found.",
	ErrorTypeMemory:     "Insufficient memory to complete rendering.",
	ErrorTypePermission: "Insufficient permissions to write output files.",
	ErrorTypeAPI:        "Error communicating with the AI service. Please try again.",
	ErrorTypeValidation: "The generated code has validation errors. Please try again.",
	ErrorTypeRendering:  "Failed to render the animation. Please try again with a simpler scene or lower quality.",
	ErrorTypeUnknown:    "An unexpected error occurred. Please try again.",
}

// fixSuggestions 错误类型到修复建议的映射
var fixSuggestions = map[string][]string{
	ErrorTypeSyntax: {
		"Try regenerating with a more specific prompt",
		"Try a different model",
	},
	ErrorTypeAttribute: {
		"The AI may have used outdated Manim syntax, try a different model",
		"Simplify your animation description",
	},
	ErrorTypeTimeout: {
		"Use a lower quality setting",
		"Simplify your prompt",
		"Break complex animations into smaller parts",
	},
	ErrorTypeFFmpeg: {
		"Check that FFmpeg is installed and on PATH",
	},
	ErrorTypeLatex: {
		"Avoid MathTex-heavy scenes, or install a LaTeX distribution",
		"Rephrase the prompt to use plain Text instead of formulas",
	},
	ErrorTypeMemory: {
		"Use a lower quality setting",
		"Restart the service",
	},
	ErrorTypeAPI: {
		"Check the configured API key",
		"Try again in a few minutes",
	},
	ErrorTypeValidation: {
		"Try a simpler animation",
		"Try a different model",
		"Make your prompt more specific",
	},
	ErrorTypeRendering: {
		"Reduce the complexity of your animation",
		"Lower the video quality setting",
		"Check that Manim is properly installed",
	},
}

// severityMap 错误类型到严重程度的映射
var severityMap = map[string]string{
	ErrorTypeImport:     SeverityHigh,
	ErrorTypeFFmpeg:     SeverityHigh,
	ErrorTypeMemory:     SeverityHigh,
	ErrorTypeSyntax:     SeverityMedium,
	ErrorTypeAttribute:  SeverityMedium,
	ErrorTypeTimeout:    SeverityMedium,
	ErrorTypeLatex:      SeverityMedium,
	ErrorTypeNotFound:   SeverityLow,
	ErrorTypePermission: SeverityLow,
}

// recoverableTypes 用户调整后可恢复的错误类型
var recoverableTypes = map[string]bool{
	ErrorTypeSyntax:     true,
	ErrorTypeAttribute:  true,
	ErrorTypeTimeout:    true,
	ErrorTypeValidation: true,
	ErrorTypeRendering:  true,
	ErrorTypeAPI:        true,
	ErrorTypeLatex:      true,
}

// ==================== 错误分类函数 ====================

// ClassifyError 根据渲染/生成输出分类错误类型
func ClassifyError(output string) string {
	for _, p := range errorPatterns {
		if p.re.MatchString(output) {
			return p.errorType
		}
	}
	return ErrorTypeUnknown
}

// BuildErrorReport 构建面向用户的错误报告
// errorType 为空时根据 detail 自动分类
func BuildErrorReport(errorType, detail string) *ErrorReport {
	if errorType == "" {
		errorType = ClassifyError(detail)
	}

	message, ok := userMessages[errorType]
	if !ok {
		message = userMessages[ErrorTypeUnknown]
	}

	suggestions := fixSuggestions[errorType]
	if len(suggestions) == 0 {
		suggestions = []string{
			"Try again with different settings",
			"Simplify your animation",
		}
	}

	severity, ok := severityMap[errorType]
	if !ok {
		severity = SeverityMedium
	}

	return &ErrorReport{
		Type:        errorType,
		Message:     message,
		Detail:      truncateDetail(detail),
		Suggestions: suggestions,
		Severity:    severity,
		Recoverable: recoverableTypes[errorType],
	}
}

// truncateDetail 截断过长的错误细节，保留尾部
// manim 的关键错误信息通常在 stderr 末尾
func truncateDetail(detail string) string {
	const maxDetailLength = 2000
	detail = strings.TrimSpace(detail)
	if len(detail) > maxDetailLength {
		return "..." + detail[len(detail)-maxDetailLength:]
	}
	return detail
}
