package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meilian-ai/advisor/internal/core"
)

func TestFormatRecommendation(t *testing.T) {
	rec := &core.Recommendation{Name: "瘦脸针", Price: 2800, Reason: "符合瘦脸需求且在预算内"}
	text := formatRecommendation(rec)
	assert.Contains(t, text, "瘦脸针")
	assert.Contains(t, text, "2800元")
	assert.Contains(t, text, "符合瘦脸需求且在预算内")
}

func TestFormatRecommendationError(t *testing.T) {
	rec := &core.Recommendation{Err: "抱歉，根据您的需求，暂时没有找到合适的产品。"}
	assert.Equal(t, "抱歉，根据您的需求，暂时没有找到合适的产品。", formatRecommendation(rec))
}

func TestSessionLifecycle(t *testing.T) {
	b := &Bot{sessions: make(map[int64][]core.Message)}

	b.sessions[42] = []core.Message{
		{Role: core.RoleUser, Content: "你好"},
		{Role: core.RoleAssistant, Content: "您好！"},
	}

	b.resetSession(42)
	assert.Empty(t, b.sessions[42])
}
