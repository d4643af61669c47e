package main

import (
	"regexp"
	"strings"
)

// ==================== 验证结果类型 ====================

// ValidationResult 代码验证结果
type ValidationResult struct {
	Valid  bool
	Reason string
}

// ==================== 正则模式 ====================

var (
	// markdown 代码块围栏
	reFencePython = regexp.MustCompile("```python\n?")
	reFence       = regexp.MustCompile("```\n?")

	// Text(...) 裸字符串参数补引号
	reTextBare     = regexp.MustCompile(`Text\(([^"'()\[\]]*?)\)`)
	reTextFontSize = regexp.MustCompile(`Text\(([^"']*?), font_size`)

	// 必需结构
	reManimImport    = regexp.MustCompile(`from manim import \*`)
	reSceneClass     = regexp.MustCompile(`class \w+\(Scene\)`)
	reConstructDef   = regexp.MustCompile(`def construct\(self\)`)
	reSelfPlay       = regexp.MustCompile(`self\.play\(`)
	reSelfWait       = regexp.MustCompile(`self\.wait\(`)
	reGeneratedScene = regexp.MustCompile(`class GeneratedScene\(Scene\)`)

	// 生成代码中常见的坏模式（LLM 幻觉产物）
	problematicPatterns = []*regexp.Regexp{
		regexp.MustCompile(`for\s+\*`),
		regexp.MustCompile(`(?m)^\s*\*\s*=`),
		regexp.MustCompile(`(?m)^\s*\*`),
		regexp.MustCompile(`(?m)^\s*import\s+\*`),
	}

	// 通配符 import（manim 之外的都不允许）
	reWildcardImport = regexp.MustCompile(`(?m)^from\s+(\S+)\s+import\s+\*`)

	// 解释性文字行前缀（LLM 经常在代码前后加说明）
	prosePrefixes = []string{"Here", "This code", "The animation", "Note:", "Example:"}
)

// ==================== 代码清理 ====================

// CleanGeneratedCode 清理 LLM 生成的代码
// 去除 markdown 围栏和解释性文字，修复字符串字面量，补全 import
func CleanGeneratedCode(code string) string {
	code = reFencePython.ReplaceAllString(code, "")
	code = reFence.ReplaceAllString(code, "")
	code = strings.ReplaceAll(code, "```", "")
	code = strings.ReplaceAll(code, "`", "")

	code = dropProseLines(code)
	code = fixStringLiterals(code)

	if !reManimImport.MatchString(code) {
		code = "from manim import *\n\n" + code
	}

	return strings.TrimSpace(code)
}

// dropProseLines 去掉代码前的说明文字，只保留从 import/class 开始的内容
func dropProseLines(code string) string {
	lines := strings.Split(code, "\n")
	codeLines := make([]string, 0, len(lines))
	foundStart := false

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if !foundStart {
			if strings.HasPrefix(stripped, "from manim") ||
				strings.HasPrefix(stripped, "import manim") ||
				strings.HasPrefix(stripped, "class GeneratedScene") {
				foundStart = true
				codeLines = append(codeLines, line)
			}
			continue
		}

		if isProseLine(stripped) {
			continue
		}

		codeLines = append(codeLines, line)
	}

	// 完全没找到起始行时保留原文，让后续验证报错
	if !foundStart {
		return code
	}

	return strings.Join(codeLines, "\n")
}

// isProseLine 判断一行是否是 LLM 的解释性文字
func isProseLine(stripped string) bool {
	for _, prefix := range prosePrefixes {
		if strings.HasPrefix(stripped, prefix) {
			return true
		}
	}
	return false
}

// fixStringLiterals 修复 Text(...) 的字符串字面量问题
// LLM 经常生成 Text(hello) 或引号不配对的代码
func fixStringLiterals(code string) string {
	lines := strings.Split(code, "\n")
	fixed := make([]string, 0, len(lines))

	for _, line := range lines {
		line = reTextBare.ReplaceAllString(line, `Text("$1")`)
		line = reTextFontSize.ReplaceAllString(line, `Text("$1", font_size`)

		// 双引号不配对时，把单引号统一替换为双引号再检查
		if strings.Contains(line, "Text(") && strings.Count(line, "'")%2 != 0 {
			line = strings.ReplaceAll(line, "'", `"`)
		}

		fixed = append(fixed, line)
	}

	return strings.Join(fixed, "\n")
}

// ==================== 结构验证 ====================

// ValidateCodeStructure 验证代码是否包含渲染所需的全部结构
// 返回第一个失败项的原因
func ValidateCodeStructure(code string) ValidationResult {
	if len(strings.TrimSpace(code)) < MinGeneratedCodeLength {
		return ValidationResult{Valid: false, Reason: "generated code is too short to be a complete scene"}
	}

	required := []struct {
		re     *regexp.Regexp
		reason string
	}{
		{reManimImport, "missing 'from manim import *'"},
		{reGeneratedScene, "missing 'class GeneratedScene(Scene)'"},
		{reConstructDef, "missing 'def construct(self)'"},
		{reSelfPlay, "missing at least one 'self.play(' animation"},
		{reSelfWait, "missing at least one 'self.wait(' call"},
	}

	for _, check := range required {
		if !check.re.MatchString(code) {
			return ValidationResult{Valid: false, Reason: check.reason}
		}
	}

	for _, pattern := range problematicPatterns {
		if pattern.MatchString(code) {
			return ValidationResult{Valid: false, Reason: "code contains problematic pattern: " + pattern.String()}
		}
	}

	for _, match := range reWildcardImport.FindAllStringSubmatch(code, -1) {
		if match[1] != "manim" {
			return ValidationResult{Valid: false, Reason: "wildcard import from " + match[1] + " is not allowed"}
		}
	}

	return ValidationResult{Valid: true}
}

// HasSceneClass 检查代码是否包含继承 Scene 的类
func HasSceneClass(code string) bool {
	return reSceneClass.MatchString(code)
}

// HasConstructMethod 检查代码是否包含 construct 方法
func HasConstructMethod(code string) bool {
	return reConstructDef.MatchString(code)
}

// HasAnimations 检查代码是否至少包含一个动画和等待
func HasAnimations(code string) bool {
	return reSelfPlay.MatchString(code) && reSelfWait.MatchString(code)
}

// ==================== 带缓存的验证入口 ====================

// CodeValidator 带缓存的代码验证器
type CodeValidator struct {
	cache   *CacheService
	metrics MetricsCollector
}

// NewCodeValidator 创建代码验证器
func NewCodeValidator(cache *CacheService, metrics MetricsCollector) *CodeValidator {
	if metrics == nil {
		metrics = &NopMetrics{}
	}
	return &CodeValidator{
		cache:   cache,
		metrics: metrics,
	}
}

// CleanAndValidate 清理并验证生成代码
// 验证结果按代码内容缓存，相同代码不会重复验证
func (v *CodeValidator) CleanAndValidate(raw string) (string, ValidationResult) {
	cleaned := CleanGeneratedCode(raw)

	if v.cache != nil {
		cacheKey := generateCacheKey("validation", cleaned)
		if result, found := v.cache.GetValidation(cacheKey); found {
			v.metrics.RecordCacheHit()
			return cleaned, result
		}
		v.metrics.RecordCacheMiss()

		result := ValidateCodeStructure(cleaned)
		v.cache.SetValidation(cacheKey, result)
		return cleaned, result
	}

	return cleaned, ValidateCodeStructure(cleaned)
}
