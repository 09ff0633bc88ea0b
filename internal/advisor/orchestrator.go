package advisor

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/meilian-ai/advisor/internal/core"
	"github.com/meilian-ai/advisor/internal/logger"
)

// Orchestrator drives one conversation turn. On every turn it
// re-derives the slot record from the full history; once all four
// slots are filled it switches from eliciting small talk to a grounded
// recommendation.
//
// All degradation lives here. The extractor, generator and chat
// service report plain errors and the orchestrator decides what the
// user sees instead.
type Orchestrator struct {
	chat      core.ChatService
	extractor *Extractor
	generator *Generator
}

// NewOrchestrator wires an orchestrator over the given chat service
// and knowledge base.
func NewOrchestrator(chat core.ChatService, kb core.Knowledge) *Orchestrator {
	return &Orchestrator{
		chat:      chat,
		extractor: NewExtractor(chat),
		generator: NewGenerator(kb, chat),
	}
}

// Turn produces the assistant's reply to the conversation so far. The
// history must end with the user's latest message.
func (o *Orchestrator) Turn(ctx context.Context, history []core.Message) core.TurnResult {
	record, err := o.extractor.Extract(ctx, history)
	if err != nil {
		// Failed extraction means we know nothing new; keep the
		// conversation going instead of surfacing the failure.
		logger.Warn("Slot extraction failed, staying in elicitation: %v", err)
		record = core.SlotRecord{}
	}

	if record.IsComplete() {
		logger.Info("Slots complete (age=%d budget=%s area=%s), generating recommendation",
			record.Age, record.Budget, record.Area)
		return o.recommend(ctx, record)
	}
	return o.elicit(ctx, history)
}

// recommend runs the generator and wraps its outcome into the turn
// payload. A recommendation turn always has is_recommendation set,
// even when it carries an error object.
func (o *Orchestrator) recommend(ctx context.Context, record core.SlotRecord) core.TurnResult {
	rec, err := o.generator.Generate(ctx, record)
	switch {
	case errors.Is(err, ErrNoMatch):
		rec = core.Recommendation{Err: msgNoProduct}
	case err != nil:
		logger.Error("Recommendation generation failed: %v", err)
		rec = core.Recommendation{Err: msgGenerationFailure}
	}

	text, err := json.Marshal(rec)
	if err != nil {
		logger.Error("Marshal recommendation payload: %v", err)
		return core.TurnResult{Text: msgGenerationFailure, IsRecommendation: true, Data: &core.Recommendation{Err: msgGenerationFailure}}
	}
	return core.TurnResult{Text: string(text), IsRecommendation: true, Data: &rec}
}

// elicit continues the information-gathering small talk.
func (o *Orchestrator) elicit(ctx context.Context, history []core.Message) core.TurnResult {
	messages := make([]core.Message, 0, len(history)+1)
	messages = append(messages, core.Message{Role: core.RoleSystem, Content: elicitSystemPrompt})
	messages = append(messages, history...)

	reply, err := o.chat.ChatCompletion(ctx, messages)
	if err != nil {
		logger.Error("Eliciting completion failed: %v", err)
		return core.TurnResult{Text: msgChatFallback}
	}
	return core.TurnResult{Text: reply}
}
