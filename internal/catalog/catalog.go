// Package catalog loads the structured product list and flattens each
// product into a retrieval document.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Product is one entry of the product catalog file.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Area        []string `json:"area"`
	Keywords    []string `json:"keywords"`
	Description string   `json:"description"`
}

// Document is a product flattened for ingestion.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Load reads and decodes a product catalog file.
func Load(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("catalog: %s contains no products", path)
	}
	for i, p := range products {
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("catalog: product %d missing id or name", i)
		}
	}
	return products, nil
}

// BuildDocuments flattens products into ingestion documents. The text
// shape mirrors what the recommendation prompt expects to read back
// out of retrieval.
func BuildDocuments(products []Product) []Document {
	docs := make([]Document, len(products))
	for i, p := range products {
		docs[i] = Document{
			ID:   p.ID,
			Text: flatten(p),
			Metadata: map[string]any{
				"source":     "products.json",
				"product_id": p.ID,
				"name":       p.Name,
				"price":      p.Price,
			},
		}
	}
	return docs
}

func flatten(p Product) string {
	return fmt.Sprintf("产品名称: %s。\n价格: %g元。\n适用部位: %s。\n主要功效或关键词: %s。\n详细描述: %s",
		p.Name, p.Price, strings.Join(p.Area, ", "), strings.Join(p.Keywords, "、"), p.Description)
}
