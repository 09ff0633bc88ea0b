// Command initkb bootstraps the product knowledge base: it recreates
// the Milvus collection, ingests the product catalog and optionally a
// PDF or DOCX document.
package main

import (
	"context"
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/meilian-ai/advisor/internal/catalog"
	"github.com/meilian-ai/advisor/internal/embed"
	"github.com/meilian-ai/advisor/internal/logger"
	"github.com/meilian-ai/advisor/internal/rag"
)

// Config represents the application configuration.
type Config struct {
	QianfanAPIKey    string
	QianfanBaseURL   string
	EmbeddingModel   string
	EmbeddingDim     int
	MilvusHost       string
	MilvusPort       string
	MilvusCollection string
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
		EmbeddingDim:     dim,
		MilvusHost:       getEnvWithDefault("MILVUS_HOST", "localhost"),
		MilvusPort:       getEnvWithDefault("MILVUS_PORT", "19530"),
		MilvusCollection: getEnvWithDefault("MILVUS_COLLECTION", rag.DefaultCollection),
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
	reset := flag.Bool("reset", false, "Drop and recreate the collection before ingesting")
	file := flag.String("file", "", "PDF or DOCX document to ingest in addition to the catalog")
	flag.Parse()

	logger.Init(*debug)
	logger.Info("Initializing knowledge base...")

	if err := godotenv.Load(); err != nil {
		logger.Info("Warning: No .env file found or error loading it")
	}

	config := loadConfig()
	if config.QianfanAPIKey == "" {
		logger.Error("QIANFAN_API_KEY environment variable is required")
		os.Exit(1)
	}

	ctx := context.Background()

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

	store, err := rag.NewMilvusStore(ctx, config.MilvusHost+":"+config.MilvusPort, config.MilvusCollection, config.EmbeddingDim)
	if err != nil {
		logger.Error("Failed to initialize Milvus store: %v", err)
		os.Exit(1)
	}
	defer store.Close(context.Background())

	if *reset {
		logger.Info("Resetting collection %s", config.MilvusCollection)
		if err := store.Reset(ctx); err != nil {
			logger.Error("Failed to reset collection: %v", err)
			os.Exit(1)
		}
	}

	kb := rag.NewKnowledgeBase(store, embedService)

	products, err := catalog.Load(config.ProductsFile)
	if err != nil {
		logger.Error("Failed to load product catalog: %v", err)
		os.Exit(1)
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

	if err := kb.IngestTexts(ctx, ids, texts, metadatas); err != nil {
		logger.Error("Failed to ingest product catalog: %v", err)
		os.Exit(1)
	}
	logger.Info("Ingested %d products from %s", len(products), config.ProductsFile)

	if *file != "" {
		if err := kb.IngestFile(ctx, *file); err != nil {
			logger.Error("Failed to ingest %s: %v", *file, err)
			os.Exit(1)
		}
		logger.Info("Ingested document %s", *file)
	}

	logger.Info("Knowledge base ready")
}
