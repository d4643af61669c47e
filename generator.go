package main

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// ==================== 生成提示词模板 ====================

const enhanceSystemTemplate = `You are an expert at creating detailed prompts for Manim (Mathematical Animation Engine) video generation.

User's original prompt: "%s"

Context: %s

Please enhance this prompt by:
1. Adding specific mathematical or visual details
2. Suggesting appropriate Manim objects and animations
3. Specifying colors, positioning, and timing
4. Including educational context if applicable
5. Making it clear and comprehensive for code generation

Enhanced prompt should be detailed but concise, focusing on visual elements that can be animated with Manim.

Return only the enhanced prompt, nothing else.`

const codeGenSystemMessage = `You are a Manim expert. Generate clean, working Python code for mathematical animations.

STRICT REQUIREMENTS:
1. Start with: from manim import *
2. Use: class GeneratedScene(Scene):
3. Use: def construct(self):
4. Include self.play() and self.wait()
5. Use simple objects: Circle, Square, Text, Line, Arrow, Dot
6. Use basic colors: BLUE, RED, GREEN, WHITE, YELLOW
7. Keep animations simple and working
8. NO complex loops or advanced features
9. Return ONLY the Python code
10. NO markdown formatting or code blocks
11. All strings must be properly quoted
12. No syntax errors allowed`

const codeGenUserTemplate = `Create a simple Manim animation for: %s

Use this exact template structure:

from manim import *

class GeneratedScene(Scene):
    def construct(self):
        # Create simple objects
        obj = Circle(color=BLUE)

        # Simple animations
        self.play(Create(obj))
        self.wait(1)

        # One more animation
        self.play(obj.animate.shift(RIGHT))
        self.wait(1)

Replace the Circle with appropriate objects for: %s
Keep it simple and working. Available objects: Circle, Square, Rectangle, Text, MathTex, Line, Arrow, Dot
Available animations: Create, Write, FadeIn, FadeOut, GrowFromCenter
Available colors: BLUE, RED, GREEN, WHITE, YELLOW, BLACK, GRAY

IMPORTANT: Make sure all Text objects use double quotes like Text("hello")
Return only the complete working Python code.`

const simplerPromptTemplate = `Generate the simplest possible Manim code for: %s

Use exactly this structure:

from manim import *

class GeneratedScene(Scene):
    def construct(self):
        shape = Circle(color=BLUE)
        self.play(Create(shape))
        self.wait(2)

Change only the shape and color to match the request.
Available: Circle, Square, Rectangle, Text("hello")
Colors: BLUE, RED, GREEN, WHITE, YELLOW
Keep it extremely simple. Return only the code.`

// ==================== GroqGenerator ====================

// GroqGenerator 基于 Groq API 的 Manim 代码生成器
// 流程: 提示词增强 -> 代码生成（多次尝试+验证） -> 应急兜底场景
type GroqGenerator struct {
	client    *GroqClient
	validator *CodeValidator
	cache     *CacheService
	logger    Logger
	metrics   MetricsCollector
}

// GeneratorConfig 生成器配置
type GeneratorConfig struct {
	Client    *GroqClient
	Validator *CodeValidator
	Cache     *CacheService
	Logger    Logger
	Metrics   MetricsCollector
}

// NewGroqGenerator 创建代码生成器
func NewGroqGenerator(config GeneratorConfig) *GroqGenerator {
	logger := config.Logger
	if logger == nil {
		logger = &NopLogger{}
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = &NopMetrics{}
	}

	return &GroqGenerator{
		client:    config.Client,
		validator: config.Validator,
		cache:     config.Cache,
		logger:    logger,
		metrics:   metrics,
	}
}

// resolveModel 校验模型可用性，未知模型回退到默认
func resolveModel(model string) string {
	if model == "" {
		return DefaultModel
	}
	if _, ok := SupportedModels[model]; !ok {
		Warn("Model %s not available, using default", model)
		return DefaultModel
	}
	return model
}

// EnhancePrompt 用 LLM 增强用户提示词
// 失败时回退到原始提示词，增强属于锦上添花而非关键路径
func (g *GroqGenerator) EnhancePrompt(ctx context.Context, prompt, model string) string {
	model = resolveModel(model)

	if g.cache != nil {
		cacheKey := generateCacheKey("enhance", model, prompt)
		if enhanced, found := g.cache.GetEnhancement(cacheKey); found {
			g.metrics.RecordCacheHit()
			return enhanced
		}
		g.metrics.RecordCacheMiss()
	}

	categoryContext := GetEnhancementContext(prompt)
	enhancementPrompt := fmt.Sprintf(enhanceSystemTemplate, prompt, categoryContext)

	request := &ChatCompletionRequest{
		Model:       model,
		Messages:    []ChatMessage{{Role: "user", Content: enhancementPrompt}},
		Temperature: EnhanceTemperature,
		MaxTokens:   EnhanceMaxTokens,
	}

	enhanced, err := g.client.ChatCompletion(ctx, request)
	if err != nil {
		g.logger.Error("Error enhancing prompt: %v", err)
		return prompt
	}

	enhanced = strings.TrimSpace(enhanced)
	if enhanced == "" {
		return prompt
	}

	if g.cache != nil {
		g.cache.SetEnhancement(generateCacheKey("enhance", model, prompt), enhanced)
	}

	return enhanced
}

// GenerateCode 生成并验证 Manim 代码
// 最多尝试 MaxGenerationAttempts 次，验证失败后换更简单的提示词；
// 全部失败时返回应急兜底场景，保证用户总能得到一个视频
func (g *GroqGenerator) GenerateCode(ctx context.Context, enhancedPrompt, model string) (string, error) {
	model = resolveModel(model)

	userPrompt := fmt.Sprintf(codeGenUserTemplate, enhancedPrompt, enhancedPrompt)

	for attempt := 1; attempt <= MaxGenerationAttempts; attempt++ {
		if ctx.Err() != nil {
			return "", ErrGenerationFailed(ctx.Err())
		}

		g.logger.Info("Generating Manim code (attempt %d/%d)...", attempt, MaxGenerationAttempts)

		request := &ChatCompletionRequest{
			Model: model,
			Messages: []ChatMessage{
				{Role: "system", Content: codeGenSystemMessage},
				{Role: "user", Content: userPrompt},
			},
			Temperature: CodeGenTemperature,
			MaxTokens:   CodeGenMaxTokens,
			Stop:        []string{"```", "Note:", "Example:"},
		}

		raw, err := g.client.ChatCompletion(ctx, request)
		if err != nil {
			g.logger.Error("Error generating Manim code on attempt %d: %v", attempt, err)
			continue
		}

		cleaned, result := g.validator.CleanAndValidate(raw)
		if result.Valid {
			g.logger.Info("Generated valid code (%d bytes)", len(cleaned))
			return cleaned, nil
		}

		g.logger.Warn("Generated code failed validation on attempt %d: %s", attempt, result.Reason)
		if attempt < MaxGenerationAttempts {
			userPrompt = fmt.Sprintf(simplerPromptTemplate, enhancedPrompt)
		}
	}

	g.logger.Warn("All generation attempts failed, using emergency fallback")
	return GenerateEmergencyFallback(enhancedPrompt), nil
}

// ==================== 应急兜底场景 ====================

var reUnsafeChars = regexp.MustCompile(`[^\w\s]`)

// fallbackShapes 按提示词关键词选择的兜底图形
var fallbackShapes = []struct {
	keywords []string
	shape    string
}{
	{[]string{"circle", "round", "ball", "sphere"}, "Circle(color=BLUE, radius=1.5)"},
	{[]string{"square", "box", "cube"}, "Square(color=RED, side_length=2)"},
	{[]string{"triangle"}, "Triangle(color=GREEN)"},
	{[]string{"text", "word", "letter"}, `Text("Animation", color=WHITE)`},
}

// GenerateEmergencyFallback 生成确定性的兜底场景代码
// LLM 完全不可用时仍能渲染出一个简单动画
func GenerateEmergencyFallback(prompt string) string {
	promptLower := strings.ToLower(prompt)

	shape := "Circle(color=BLUE, radius=1.5)"
	for _, candidate := range fallbackShapes {
		matched := false
		for _, keyword := range candidate.keywords {
			if strings.Contains(promptLower, keyword) {
				matched = true
				break
			}
		}
		if matched {
			shape = candidate.shape
			break
		}
	}

	safePrompt := reUnsafeChars.ReplaceAllString(prompt, "")
	if len(safePrompt) > 50 {
		safePrompt = safePrompt[:50]
	}

	return fmt.Sprintf(`from manim import *

class GeneratedScene(Scene):
    def construct(self):
        # Animation for: %s
        title = Text("Animation", color=WHITE, font_size=36)
        title.to_edge(UP)

        main_object = %s
        main_object.move_to(ORIGIN)

        # Create animations
        self.play(Write(title))
        self.wait(0.5)

        self.play(Create(main_object))
        self.wait(1)

        # Simple movement
        self.play(main_object.animate.shift(RIGHT * 2))
        self.wait(0.5)

        self.play(main_object.animate.shift(LEFT * 4))
        self.wait(0.5)

        self.play(main_object.animate.shift(RIGHT * 2))
        self.wait(1)

        # Fade out
        self.play(FadeOut(main_object), FadeOut(title))
        self.wait(0.5)
`, safePrompt, shape)
}
