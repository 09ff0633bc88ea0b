package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/meilian-ai/advisor/internal/advisor"
	"github.com/meilian-ai/advisor/internal/catalog"
	"github.com/meilian-ai/advisor/internal/core"
	"github.com/meilian-ai/advisor/internal/embed"
	"github.com/meilian-ai/advisor/internal/httpapi"
	"github.com/meilian-ai/advisor/internal/llm"
	"github.com/meilian-ai/advisor/internal/logger"
	"github.com/meilian-ai/advisor/internal/rag"
)

// Config represents the application configuration.
type Config struct {
	QianfanAPIKey    string
	QianfanBaseURL   string
	EmbeddingModel   string
	ChatModel        string
	EmbeddingDim     int
	MilvusHost       string
	MilvusPort       string
	MilvusCollection string
	HTTPAddr         string
	ProductsFile     string
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
		QianfanAPIKey:    os.Getenv("QIANFAN_API_KEY"),
		QianfanBaseURL:   getEnvWithDefault("QIANFAN_BASE_URL", "https://qianfan.baidubce.com/v2"),
		EmbeddingModel:   getEnvWithDefault("EMBEDDING_MODEL", "embedding-v1"),
		ChatModel:        getEnvWithDefault("CHAT_MODEL", "deepseek-v3"),
		EmbeddingDim:     dim,
		MilvusHost:       getEnvWithDefault("MILVUS_HOST", "localhost"),
		MilvusPort:       getEnvWithDefault("MILVUS_PORT", "19530"),
		MilvusCollection: getEnvWithDefault("MILVUS_COLLECTION", rag.DefaultCollection),
		HTTPAddr:         getEnvWithDefault("HTTP_ADDR", ":8000"),
		ProductsFile:     getEnvWithDefault("PRODUCTS_FILE", "products.json"),
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
	mock := flag.Bool("mock", false, "Use an in-memory store seeded from the product catalog instead of Milvus")
	addr := flag.String("addr", "", "HTTP listen address, overrides HTTP_ADDR")
	flag.Parse()

	logger.Init(*debug)
	logger.Info("Starting advisor API...")

	if err := godotenv.Load(); err != nil {
		logger.Info("Warning: No .env file found or error loading it")
	}

	config := loadConfig()
	if *addr != "" {
		config.HTTPAddr = *addr
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

	// In-memory stores start empty, so seed them from the catalog.
	if *mock {
		if err := seedFromCatalog(ctx, kb, config.ProductsFile); err != nil {
			logger.Error("Failed to seed product catalog: %v", err)
			os.Exit(1)
		}
	}

	orchestrator := advisor.NewOrchestrator(chatService, kb)
	server := httpapi.NewServer(config.HTTPAddr, orchestrator)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down advisor API...")
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed: %v", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error: %v", err)
	}
	logger.Info("Advisor API stopped")
}

// seedFromCatalog ingests the product catalog into the knowledge base.
func seedFromCatalog(ctx context.Context, kb *rag.KnowledgeBase, path string) error {
	products, err := catalog.Load(path)
	if err != nil {
		return err
	}

	docs := catalog.BuildDocuments(products)
	ids := make([]string, len(docs))
	texts := make([]string, len(docs))
	metadatas := make([]map[string]any, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
		texts[i] = d.Text
		metadatas[i] = d.Metadata
	}
	return kb.IngestTexts(ctx, ids, texts, metadatas)
}
