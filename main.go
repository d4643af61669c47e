package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		println("No .env file found, using system environment variables")
	}

	// 初始化日志系统（必须最先调用）
	InitializeLogger()
	Info("Logger initialized")

	// 初始化存储（Redis 优先，失败回退到文件）
	storage := createStorage(os.Getenv("REDIS_URL"), getEnvWithDefault("STATS_FILE", StatsFilePath))

	// 从环境变量加载服务器配置
	config, err := loadServerConfigFromEnv()
	if err != nil {
		Fatal("Failed to load server configuration: %v", err)
	}
	config.Storage = storage
	config.Logger = defaultLogger

	// 创建服务器实例
	server, err := NewServer(config)
	if err != nil {
		Fatal("Failed to create server: %v", err)
	}

	// 运行服务器（包含优雅关闭）
	Info("Starting server on port %s", config.Port)
	if err := server.Run(); err != nil {
		Fatal("Server error: %v", err)
	}
}

// loadServerConfigFromEnv 从环境变量加载服务器配置
func loadServerConfigFromEnv() (ServerConfig, error) {
	// 加载 Groq API key 池
	groqAPIKeys := parseEnvList(os.Getenv("GROQ_API_KEYS"))
	if len(groqAPIKeys) == 0 {
		// 兼容单 key 配置
		if key := os.Getenv("GROQ_API_KEY"); key != "" {
			groqAPIKeys = []string{key}
		}
	}
	if len(groqAPIKeys) == 0 {
		Warn("No Groq API keys configured")
	} else {
		Info("Loaded %d Groq API keys", len(groqAPIKeys))
	}

	// 加载客户端 API keys，为空时 API 对外开放
	clientAPIKeys := parseEnvList(os.Getenv("CLIENT_API_KEYS"))
	if len(clientAPIKeys) == 0 {
		Warn("CLIENT_API_KEYS environment variable is empty, API is open")
	} else {
		Info("Loaded %d client API keys", len(clientAPIKeys))
	}

	config := ServerConfig{
		Port:                 getEnvWithDefault("PORT", DefaultPort),
		GinMode:              getEnvWithDefault("GIN_MODE", DefaultGinMode),
		ClientAPIKeys:        clientAPIKeys,
		GroqAPIKeys:          groqAPIKeys,
		GroqBaseURL:          getEnvWithDefault("GROQ_BASE_URL", GroqAPIBaseURL),
		ManimBin:             getEnvWithDefault("MANIM_BIN", DefaultManimBin),
		MediaDir:             getEnvWithDefault("MEDIA_DIR", DefaultMediaDir),
		RenderTimeout:        parseEnvDuration("RENDER_TIMEOUT", DefaultRenderTimeout),
		KeepRenderTemp:       parseEnvBool("KEEP_RENDER_TEMP", false),
		MaxConcurrentRenders: parseEnvInt("MAX_CONCURRENT_RENDERS", DefaultMaxConcurrentRenders),
		HTTPClientSettings:   DefaultHTTPClientSettings(),
	}

	return config, nil
}
