package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/wordmesh/artifact"
	"github.com/hupe1980/wordmesh/assemble"
	"github.com/hupe1980/wordmesh/config"
	"github.com/hupe1980/wordmesh/decision"
	"github.com/hupe1980/wordmesh/flow"
	"github.com/hupe1980/wordmesh/gen"
	"github.com/hupe1980/wordmesh/model"
	"github.com/hupe1980/wordmesh/policy"
	"github.com/hupe1980/wordmesh/runner"
	"github.com/hupe1980/wordmesh/style"
	"github.com/hupe1980/wordmesh/synth"
)

func newTestServer(t *testing.T) (*Server, *model.MockModel, *artifact.InMemoryStore) {
	t.Helper()

	cfg := config.Default()
	mock := model.NewMockModel("mock")
	svc := gen.NewService(mock, func(o *gen.Options) { o.MaxRetries = 0 })
	guard := policy.NewGuard(cfg, nil)
	styles := style.NewResolver(cfg.Defaults)
	resolver := decision.NewResolver(svc, guard, styles, cfg.Preferences, nil)
	assembler := assemble.New(svc, styles, nil)
	images := &synth.MockImageSynthesizer{URL: "artifact://sess-1/img-1"}
	speech := &synth.MockSpeechSynthesizer{URL: "artifact://sess-1/aud-1"}
	orch := flow.NewOrchestrator(resolver, assembler, svc, images, speech, guard, styles, cfg.Features, nil)
	artifacts := artifact.NewInMemoryStore()

	return New(runner.New(orch), artifacts, nil), mock, artifacts
}

func stubTurn(mock *model.MockModel) {
	mock.AddResponse("decision", map[string]interface{}{
		"intent": "new_word", "word": "ambulance", "difficulty": "easy",
		"need_new_mnemonic": true, "audio_flow": "parallel",
		"scope": "this_turn", "reason": "新词",
	})
	mock.AddResponse("word_block", map[string]interface{}{
		"word":      "ambulance",
		"phonetic":  map[string]string{"ipa": "/x/", "pronunciation_note": "note"},
		"homophone": map[string]string{"text": "俺不能死", "raw": "an bu neng si"},
		"meaning":   map[string]string{"pos": "n.", "cn": "救护车"},
		"story":     "救护车来了。",
	})
	mock.AddResponse("reply", map[string]interface{}{"reply_text": "搞定！"})
}

func postChat(t *testing.T, h http.Handler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestChatTurn(t *testing.T) {
	srv, mock, _ := newTestServer(t)
	stubTurn(mock)

	rec := postChat(t, srv.Router(), ChatRequest{
		SessionID: "sess-1",
		Messages:  []Message{{Role: "user", Content: "帮我记 ambulance"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "搞定！", resp.ReplyText)
	assert.NotEmpty(t, resp.TurnID)
	require.NotNil(t, resp.FinalOutput)
	assert.Equal(t, "ambulance", resp.FinalOutput.WordBlock.Word)
}

func TestChatUsesLastUserMessage(t *testing.T) {
	srv, mock, _ := newTestServer(t)
	stubTurn(mock)

	rec := postChat(t, srv.Router(), ChatRequest{
		SessionID: "sess-1",
		Messages: []Message{
			{Role: "user", Content: "旧消息"},
			{Role: "assistant", Content: "好的"},
			{Role: "user", Content: "帮我记 ambulance"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	calls := mock.Calls()
	require.NotEmpty(t, calls)
	assert.Contains(t, calls[0].Prompt, "帮我记 ambulance")
}

func TestChatValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Router()

	// Missing session id.
	rec := postChat(t, h, ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// No messages.
	rec = postChat(t, h, ChatRequest{SessionID: "sess-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Bad role.
	rec = postChat(t, h, ChatRequest{SessionID: "sess-1", Messages: []Message{{Role: "robot", Content: "hi"}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// No user message at all.
	rec = postChat(t, h, ChatRequest{SessionID: "sess-1", Messages: []Message{{Role: "system", Content: "hi"}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed body.
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte("{not json")))
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestChatTurnFailure(t *testing.T) {
	srv, mock, _ := newTestServer(t)
	mock.FailWith("decision", assert.AnError)

	rec := postChat(t, srv.Router(), ChatRequest{
		SessionID: "sess-1",
		Messages:  []Message{{Role: "user", Content: "hi"}},
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSessionEndpoint(t *testing.T) {
	srv, mock, _ := newTestServer(t)
	stubTurn(mock)
	h := srv.Router()

	rec := postChat(t, h, ChatRequest{
		SessionID: "sess-1",
		Messages:  []Message{{Role: "user", Content: "帮我记 ambulance"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/sessions/sess-1", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var state map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "ambulance", state["word"])
}

func TestMediaEndpoint(t *testing.T) {
	srv, _, artifacts := newTestServer(t)
	require.NoError(t, artifacts.Save("sess-1", "img-1", artifact.Media{
		Data:        []byte("png-bytes"),
		ContentType: "image/png",
	}))
	h := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/media/sess-1/img-1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/media/sess-1/missing", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatOverridesDisableTTS(t *testing.T) {
	srv, mock, _ := newTestServer(t)
	mock.AddResponse("decision", map[string]interface{}{
		"intent": "new_word", "word": "ambulance", "difficulty": "easy",
		"need_new_mnemonic": true, "need_new_audio": true,
		"audio_flow": "parallel", "scope": "this_turn", "reason": "新词",
	})
	mock.AddResponse("word_block", map[string]interface{}{
		"word":      "ambulance",
		"phonetic":  map[string]string{"ipa": "/x/", "pronunciation_note": "note"},
		"homophone": map[string]string{"text": "俺不能死", "raw": "an bu neng si"},
		"meaning":   map[string]string{"pos": "n.", "cn": "救护车"},
		"story":     "救护车来了。",
	})
	mock.AddResponse("reply", map[string]interface{}{"reply_text": "搞定！"})

	off := false
	rec := postChat(t, srv.Router(), ChatRequest{
		SessionID: "sess-1",
		Messages:  []Message{{Role: "user", Content: "帮我记 ambulance"}},
		Overrides: &Overrides{EnableTTSGeneration: &off},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.FinalOutput)
	assert.Nil(t, resp.FinalOutput.Media.Audio)
}
