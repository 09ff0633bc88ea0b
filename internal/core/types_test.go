package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotRecordIsComplete(t *testing.T) {
	complete := SlotRecord{Age: 26, Budget: "3000左右", Area: "面部", Keywords: []string{"瘦脸"}}
	assert.True(t, complete.IsComplete())

	tests := []struct {
		name   string
		record SlotRecord
	}{
		{"empty", SlotRecord{}},
		{"zero age", SlotRecord{Budget: "3000", Area: "面部", Keywords: []string{"瘦脸"}}},
		{"negative age", SlotRecord{Age: -1, Budget: "3000", Area: "面部", Keywords: []string{"瘦脸"}}},
		{"missing budget", SlotRecord{Age: 26, Area: "面部", Keywords: []string{"瘦脸"}}},
		{"missing area", SlotRecord{Age: 26, Budget: "3000", Keywords: []string{"瘦脸"}}},
		{"no keywords", SlotRecord{Age: 26, Budget: "3000", Area: "面部"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.record.IsComplete())
		})
	}
}

func TestRecommendationErrorForm(t *testing.T) {
	ok := Recommendation{Name: "瘦脸针", Price: 2800, Reason: "符合需求"}
	assert.False(t, ok.IsError())

	failed := Recommendation{Err: "暂无合适产品"}
	assert.True(t, failed.IsError())

	b, err := json.Marshal(failed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": "暂无合适产品"}`, string(b))
}

func TestTurnResultEncoding(t *testing.T) {
	elicit := TurnResult{Text: "请问您的预算是多少？"}
	b, err := json.Marshal(elicit)
	require.NoError(t, err)
	assert.JSONEq(t, `{"response": "请问您的预算是多少？", "is_recommendation": false}`, string(b))

	rec := TurnResult{
		Text:             `{"name":"瘦脸针","price":2800,"reason":"符合需求"}`,
		IsRecommendation: true,
		Data:             &Recommendation{Name: "瘦脸针", Price: 2800, Reason: "符合需求"},
	}
	b, err = json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, true, decoded["is_recommendation"])
	assert.NotNil(t, decoded["data"])
}
