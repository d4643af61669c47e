package main

import "strings"

// ==================== 分类模板定义 ====================

// PromptTemplate 某一类数学动画的提示词模板
type PromptTemplate struct {
	Enhancement    string   // 增强提示词上下文
	Keywords       []string // 分类关键词
	ExampleObjects []string // 建议使用的 Manim 对象
	Colors         []string // 建议使用的颜色
}

// promptTemplates 分类模板表
// 按用户提示词中的关键词命中数选择类别
var promptTemplates = map[string]PromptTemplate{
	"algebra": {
		Enhancement:    "Focus on algebraic concepts like equations, functions, and graphing. Include coordinate systems, variable animations, and step-by-step solving processes with clear mathematical notation.",
		Keywords:       []string{"equation", "function", "graph", "variable", "solve", "polynomial", "quadratic", "linear"},
		ExampleObjects: []string{"Axes", "NumberLine", "MathTex", "DecimalNumber"},
		Colors:         []string{"BLUE", "RED", "GREEN", "YELLOW"},
	},
	"geometry": {
		Enhancement:    "Emphasize geometric shapes, transformations, and proofs. Include angles, lines, circles, and spatial relationships with clear visual representations and construction animations.",
		Keywords:       []string{"triangle", "circle", "angle", "polygon", "proof", "geometry", "shape", "construction"},
		ExampleObjects: []string{"Circle", "Square", "Triangle", "Line", "Arc", "Polygon"},
		Colors:         []string{"PURPLE", "ORANGE", "PINK", "TEAL"},
	},
	"calculus": {
		Enhancement:    "Highlight calculus concepts like derivatives, integrals, and limits. Show function behavior, area under curves, and rate of change visualizations with smooth transformations.",
		Keywords:       []string{"derivative", "integral", "limit", "calculus", "rate", "slope", "area"},
		ExampleObjects: []string{"Axes", "FunctionGraph", "Area", "Dot", "Vector"},
		Colors:         []string{"MAROON", "DARK_BLUE", "GOLD", "LIGHT_BROWN"},
	},
	"statistics": {
		Enhancement:    "Focus on data visualization, probability distributions, and statistical concepts. Include charts, graphs, histograms, and probability animations with clear data representation.",
		Keywords:       []string{"probability", "distribution", "data", "statistics", "chart", "histogram", "mean"},
		ExampleObjects: []string{"BarChart", "Axes", "Rectangle", "Text", "NumberLine"},
		Colors:         []string{"LIGHT_GREY", "DARK_GREY", "BLUE_E", "RED_E"},
	},
	"physics": {
		Enhancement:    "Emphasize physics concepts with mathematical foundations. Include motion, forces, waves, and physical phenomena with proper mathematical representations and vector animations.",
		Keywords:       []string{"motion", "force", "wave", "physics", "velocity", "acceleration", "field"},
		ExampleObjects: []string{"Vector", "Dot", "Circle", "Line", "FunctionGraph"},
		Colors:         []string{"LIGHT_PINK", "LIGHT_BLUE", "WHITE", "GREY"},
	},
	"number_theory": {
		Enhancement:    "Focus on number properties, sequences, patterns, and mathematical relationships. Include prime numbers, Fibonacci sequences, and number patterns with clear visual progression.",
		Keywords:       []string{"prime", "fibonacci", "sequence", "pattern", "divisor", "factor", "modular"},
		ExampleObjects: []string{"NumberLine", "Text", "Circle", "Rectangle", "MathTex"},
		Colors:         []string{"GOLD", "SILVER", "BRONZE", "COPPER"},
	},
	"trigonometry": {
		Enhancement:    "Emphasize trigonometric functions, unit circles, and wave patterns. Include sine, cosine, tangent functions with circular representations and periodic behavior.",
		Keywords:       []string{"sine", "cosine", "tangent", "radian", "periodic", "unit circle"},
		ExampleObjects: []string{"Circle", "Axes", "FunctionGraph", "Arc", "Line"},
		Colors:         []string{"BLUE_A", "BLUE_B", "BLUE_C", "BLUE_D"},
	},
	"linear_algebra": {
		Enhancement:    "Focus on vectors, matrices, transformations, and linear systems. Include vector spaces, eigenvalues, and geometric interpretations of linear operations.",
		Keywords:       []string{"vector", "matrix", "transformation", "eigenvalue", "basis", "determinant"},
		ExampleObjects: []string{"Vector", "Matrix", "Axes", "Arrow", "Rectangle"},
		Colors:         []string{"RED_A", "RED_B", "RED_C", "RED_D"},
	},
	"complex_analysis": {
		Enhancement:    "Emphasize complex numbers, complex plane, and complex functions. Include Argand diagrams, complex transformations, and visualizations of complex operations.",
		Keywords:       []string{"complex", "imaginary", "argand", "magnitude", "phase", "euler"},
		ExampleObjects: []string{"ComplexPlane", "Axes", "Vector", "Circle", "FunctionGraph"},
		Colors:         []string{"PURPLE_A", "PURPLE_B", "PURPLE_C", "PURPLE_D"},
	},
}

// DefaultCategory 无关键词命中时的默认类别
const DefaultCategory = "algebra"

// categoryOrder 类别的固定遍历顺序，命中数相同时排前面的胜出
var categoryOrder = []string{
	"algebra", "geometry", "calculus", "statistics", "physics",
	"number_theory", "trigonometry", "linear_algebra", "complex_analysis",
}

// ==================== 分类函数 ====================

// DetectCategory 根据关键词命中数检测提示词类别
func DetectCategory(prompt string) string {
	promptLower := strings.ToLower(prompt)

	best := DefaultCategory
	bestScore := 0
	for _, category := range categoryOrder {
		score := 0
		for _, keyword := range promptTemplates[category].Keywords {
			if strings.Contains(promptLower, keyword) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = category
		}
	}

	return best
}

// GetEnhancementContext 获取类别对应的增强上下文
func GetEnhancementContext(prompt string) string {
	category := DetectCategory(prompt)
	return promptTemplates[category].Enhancement
}

// GetSuggestedObjects 获取类别建议的 Manim 对象
func GetSuggestedObjects(prompt string) []string {
	category := DetectCategory(prompt)
	return promptTemplates[category].ExampleObjects
}

// GetSuggestedColors 获取类别建议的颜色
func GetSuggestedColors(prompt string) []string {
	category := DetectCategory(prompt)
	return promptTemplates[category].Colors
}

// GetAllCategories 获取所有类别名
func GetAllCategories() []string {
	categories := make([]string, len(categoryOrder))
	copy(categories, categoryOrder)
	return categories
}

// ==================== 示例提示词 ====================

// ExamplePrompts 按类别给出的示例提示词（前端展示用）
var ExamplePrompts = map[string][]string{
	"algebra": {
		"Visualize solving x² + 3x - 4 = 0 using the quadratic formula",
		"Show function transformations with f(x) = x² shifting and scaling",
	},
	"geometry": {
		"Demonstrate the Pythagorean theorem with squares on triangle sides",
		"Animate the construction of a regular pentagon using compass and straightedge",
	},
	"calculus": {
		"Show the concept of limits with a function approaching a value",
		"Visualize area under curve using Riemann sums with rectangles",
	},
	"statistics": {
		"Animate the Central Limit Theorem with multiple distributions",
		"Show correlation vs causation with scatter plot examples",
	},
}
