package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meilian-ai/advisor/internal/core"
	"github.com/meilian-ai/advisor/internal/logger"
)

// Extractor derives the user's slot record from the full conversation
// on every turn. It never merges with earlier extractions: later
// statements win because the model re-reads the whole transcript.
type Extractor struct {
	chat core.ChatService
}

// NewExtractor returns an extractor over the given chat service.
func NewExtractor(chat core.ChatService) *Extractor {
	return &Extractor{chat: chat}
}

// slotPayload mirrors the model's JSON answer. Pointer fields let null
// and absence both mean "not mentioned".
type slotPayload struct {
	Age      *int     `json:"age"`
	Budget   *string  `json:"budget"`
	Area     *string  `json:"area"`
	Keywords []string `json:"keywords"`
}

// Extract asks the model for the four slots and decodes its answer.
// A malformed answer is an error; the caller decides how to degrade.
func (e *Extractor) Extract(ctx context.Context, history []core.Message) (core.SlotRecord, error) {
	prompt := fmt.Sprintf(infoExtractionPrompt, formatTranscript(history))

	raw, err := e.chat.ChatCompletion(ctx, []core.Message{
		{Role: core.RoleUser, Content: prompt},
	})
	if err != nil {
		return core.SlotRecord{}, fmt.Errorf("advisor: slot extraction: %w", err)
	}

	cleaned := stripCodeFence(raw)

	var payload slotPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		logger.Warn("Unparseable slot extraction answer: %q", raw)
		return core.SlotRecord{}, fmt.Errorf("advisor: decode slot extraction answer: %w", err)
	}

	var record core.SlotRecord
	if payload.Age != nil {
		record.Age = *payload.Age
	}
	if payload.Budget != nil {
		record.Budget = strings.TrimSpace(*payload.Budget)
	}
	if payload.Area != nil {
		record.Area = strings.TrimSpace(*payload.Area)
	}
	for _, kw := range payload.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			record.Keywords = append(record.Keywords, kw)
		}
	}
	return record, nil
}

// formatTranscript renders the conversation one "role: content" line
// per message, the shape the extraction prompt expects.
func formatTranscript(history []core.Message) string {
	var b strings.Builder
	for _, m := range history {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// stripCodeFence removes a surrounding markdown code fence, with or
// without the json language tag. Models add these despite the prompt
// saying not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
