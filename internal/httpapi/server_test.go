package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meilian-ai/advisor/internal/core"
)

type stubTurnHandler struct {
	result  core.TurnResult
	history []core.Message
}

func (s *stubTurnHandler) Turn(_ context.Context, history []core.Message) core.TurnResult {
	s.history = history
	return s.result
}

func newTestServer(result core.TurnResult) (*Server, *stubTurnHandler) {
	handler := &stubTurnHandler{result: result}
	return NewServer("127.0.0.1:0", handler), handler
}

func postChat(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.handleChat(w, req)
	return w
}

func TestChatReturnsTurnResult(t *testing.T) {
	s, handler := newTestServer(core.TurnResult{Text: "请问您的预算是多少？"})

	w := postChat(t, s, `{"history": [{"role": "user", "content": "你好"}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result core.TurnResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "请问您的预算是多少？", result.Text)
	assert.False(t, result.IsRecommendation)

	require.Len(t, handler.history, 1)
	assert.Equal(t, "你好", handler.history[0].Content)
}

func TestChatRecommendationPayload(t *testing.T) {
	rec := &core.Recommendation{Name: "瘦脸针", Price: 2800, Reason: "符合需求"}
	s, _ := newTestServer(core.TurnResult{
		Text:             `{"name":"瘦脸针","price":2800,"reason":"符合需求"}`,
		IsRecommendation: true,
		Data:             rec,
	})

	w := postChat(t, s, `{"history": [{"role": "user", "content": "我26岁，预算3000，想瘦脸"}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result core.TurnResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.IsRecommendation)
	require.NotNil(t, result.Data)
	assert.Equal(t, "瘦脸针", result.Data.Name)
}

func TestChatRejectsInvalidJSON(t *testing.T) {
	s, _ := newTestServer(core.TurnResult{})

	w := postChat(t, s, "这不是JSON")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatPassesAnyHistoryThrough(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty history", `{"history": []}`, 0},
		{"missing history", `{}`, 0},
		{"ends with assistant", `{"history": [{"role": "assistant", "content": "你好"}]}`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, handler := newTestServer(core.TurnResult{Text: "请问有什么可以帮您？"})
			w := postChat(t, s, tt.body)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Len(t, handler.history, tt.want)
		})
	}
}

func TestChatRejectsGet(t *testing.T) {
	s, _ := newTestServer(core.TurnResult{})

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	w := httptest.NewRecorder()
	s.handleChat(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(core.TurnResult{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}
