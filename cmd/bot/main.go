package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/meilian-ai/advisor/internal/advisor"
	"github.com/meilian-ai/advisor/internal/core"
	"github.com/meilian-ai/advisor/internal/embed"
	"github.com/meilian-ai/advisor/internal/llm"
	"github.com/meilian-ai/advisor/internal/logger"
	"github.com/meilian-ai/advisor/internal/rag"
	"github.com/meilian-ai/advisor/internal/telegram"
)

// Config represents the application configuration.
type Config struct {
	TelegramToken    string
	QianfanAPIKey    string
	QianfanBaseURL   string
	EmbeddingModel   string
	ChatModel        string
	EmbeddingDim     int
	MilvusHost       string
	MilvusPort       string
	MilvusCollection string
}

// loadConfig loads configuration from environment variables.
func loadConfig() *Config {
	dim := 384
	if v := os.Getenv("EMBEDDING_DIM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			dim = parsed
		}
	}

	return &Config{
		TelegramToken:    os.Getenv("TG_BOT_TOKEN"),
		QianfanAPIKey:    os.Getenv("QIANFAN_API_KEY"),
		QianfanBaseURL:   getEnvWithDefault("QIANFAN_BASE_URL", "https://qianfan.baidubce.com/v2"),
		EmbeddingModel:   getEnvWithDefault("EMBEDDING_MODEL", "embedding-v1"),
		ChatModel:        getEnvWithDefault("CHAT_MODEL", "deepseek-v3"),
		EmbeddingDim:     dim,
		MilvusHost:       getEnvWithDefault("MILVUS_HOST", "localhost"),
		MilvusPort:       getEnvWithDefault("MILVUS_PORT", "19530"),
		MilvusCollection: getEnvWithDefault("MILVUS_COLLECTION", rag.DefaultCollection),
	}
}

// getEnvWithDefault gets an environment variable or returns a default value.
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	mock := flag.Bool("mock", false, "Use an in-memory vector store instead of Milvus")
	flag.Parse()

	logger.Init(*debug)
	logger.Info("Starting advisor bot...")

	if err := godotenv.Load(); err != nil {
		logger.Info("Warning: No .env file found or error loading it")
	}

	config := loadConfig()
	if config.TelegramToken == "" {
		logger.Error("TG_BOT_TOKEN environment variable is required")
		os.Exit(1)
	}
	if config.QianfanAPIKey == "" {
		logger.Error("QIANFAN_API_KEY environment variable is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	embedService, err := embed.NewClient(embed.Config{
		APIKey:    config.QianfanAPIKey,
		BaseURL:   config.QianfanBaseURL,
		Model:     config.EmbeddingModel,
		Dimension: config.EmbeddingDim,
	})
	if err != nil {
		logger.Error("Failed to initialize embedding service: %v", err)
		os.Exit(1)
	}

	chatService, err := llm.NewClient(llm.Config{
		APIKey:  config.QianfanAPIKey,
		BaseURL: config.QianfanBaseURL,
		Model:   config.ChatModel,
	})
	if err != nil {
		logger.Error("Failed to initialize chat service: %v", err)
		os.Exit(1)
	}

	var store core.VectorStore
	if *mock {
		logger.Info("Using in-memory vector store")
		store = rag.NewMemoryStore()
	} else {
		milvusStore, err := rag.NewMilvusStore(ctx, config.MilvusHost+":"+config.MilvusPort, config.MilvusCollection, config.EmbeddingDim)
		if err != nil {
			logger.Error("Failed to initialize Milvus store: %v", err)
			os.Exit(1)
		}
		defer milvusStore.Close(context.Background())
		store = milvusStore
	}

	kb := rag.NewKnowledgeBase(store, embedService)
	orchestrator := advisor.NewOrchestrator(chatService, kb)

	bot, err := telegram.NewBot(config.TelegramToken, orchestrator)
	if err != nil {
		logger.Error("Failed to initialize Telegram bot: %v", err)
		os.Exit(1)
	}

	go bot.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down advisor bot...")
	cancel()
}
