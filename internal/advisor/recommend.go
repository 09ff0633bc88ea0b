package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/meilian-ai/advisor/internal/core"
	"github.com/meilian-ai/advisor/internal/logger"
)

// ErrNoMatch is returned when retrieval finds nothing for the user's
// needs.
var ErrNoMatch = errors.New("advisor: no matching product")

// DefaultTopK is how many knowledge chunks feed the recommendation
// prompt.
const DefaultTopK = 2

// Generator produces one grounded product recommendation from a
// complete slot record.
type Generator struct {
	kb   core.Knowledge
	chat core.ChatService
	topK int
}

// NewGenerator returns a generator over the given knowledge base and
// chat service.
func NewGenerator(kb core.Knowledge, chat core.ChatService) *Generator {
	return &Generator{kb: kb, chat: chat, topK: DefaultTopK}
}

// Generate retrieves context for the record and asks the model for a
// single recommendation. It returns ErrNoMatch when retrieval comes
// back empty; any other failure is a generation error.
func (g *Generator) Generate(ctx context.Context, record core.SlotRecord) (core.Recommendation, error) {
	query := fmt.Sprintf("需求是%s，部位是%s", strings.Join(record.Keywords, ","), record.Area)
	logger.Debug("Retrieval query: %s", query)

	results, err := g.kb.Search(ctx, query, g.topK)
	if err != nil {
		return core.Recommendation{}, fmt.Errorf("advisor: knowledge search: %w", err)
	}
	if len(results) == 0 {
		return core.Recommendation{}, ErrNoMatch
	}

	contexts := make([]string, len(results))
	for i, r := range results {
		contexts[i] = r.Content
	}

	userInfo, err := json.Marshal(record)
	if err != nil {
		return core.Recommendation{}, fmt.Errorf("advisor: marshal user info: %w", err)
	}

	prompt := fmt.Sprintf(recommendationPrompt, userInfo, strings.Join(contexts, "\n---\n"))
	raw, err := g.chat.ChatCompletion(ctx, []core.Message{
		{Role: core.RoleUser, Content: prompt},
	})
	if err != nil {
		return core.Recommendation{}, fmt.Errorf("advisor: recommendation completion: %w", err)
	}

	var rec core.Recommendation
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &rec); err != nil {
		logger.Warn("Unparseable recommendation answer: %q", raw)
		return core.Recommendation{}, fmt.Errorf("advisor: decode recommendation answer: %w", err)
	}
	if !rec.IsError() && rec.Name == "" {
		return core.Recommendation{}, fmt.Errorf("advisor: recommendation answer missing product name")
	}
	return rec, nil
}
