// Package server exposes the conversation runner over HTTP: a chat endpoint
// driving turns, session state retrieval and artifact media serving.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/hupe1980/wordmesh/artifact"
	"github.com/hupe1980/wordmesh/core"
	"github.com/hupe1980/wordmesh/flow"
	"github.com/hupe1980/wordmesh/logging"
	"github.com/hupe1980/wordmesh/runner"
)

// Message is one chat message in a request.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

// Overrides are optional per-turn configuration overrides. Unset fields keep
// the server's configured values.
type Overrides struct {
	EnableImageGeneration *bool `json:"enable_image_generation,omitempty"`
	EnableTTSGeneration   *bool `json:"enable_tts_generation,omitempty"`
	EnablePremiumVoices   *bool `json:"enable_premium_voices,omitempty"`
}

// ChatRequest drives one conversation turn. The last user message is the
// utterance the turn acts on; earlier messages are accepted for client
// convenience but the session state carries the real history.
type ChatRequest struct {
	SessionID string     `json:"session_id" validate:"required"`
	Messages  []Message  `json:"messages" validate:"required,min=1,dive"`
	Overrides *Overrides `json:"overrides,omitempty"`
}

// ChatResponse mirrors the turn outcome.
type ChatResponse struct {
	ReplyText   string                 `json:"reply_text"`
	FinalOutput *core.WordMemoryResult `json:"final_output,omitempty"`
	TurnID      string                 `json:"turn_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server wires the HTTP routes to the runner and artifact store.
type Server struct {
	runner    *runner.Runner
	artifacts artifact.Store
	validate  *validator.Validate
	logger    logging.Logger
}

// New constructs a Server. A nil logger falls back to NoOp.
func New(r *runner.Runner, artifacts artifact.Store, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Server{
		runner:    r,
		artifacts: artifacts,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Router returns the configured chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/chat", s.handleChat)
	r.Get("/sessions/{sessionID}", s.handleSession)
	r.Get("/media/{sessionID}/{artifactID}", s.handleMedia)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utterance, ok := lastUserMessage(req.Messages)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "messages must contain a user message")
		return
	}

	var turnOpts []func(t *flow.TurnOptions)
	if ov := req.Overrides; ov != nil {
		turnOpts = append(turnOpts, func(t *flow.TurnOptions) {
			t.EnableImageGeneration = ov.EnableImageGeneration
			t.EnableTTSGeneration = ov.EnableTTSGeneration
			t.EnablePremiumVoices = ov.EnablePremiumVoices
		})
	}

	result, err := s.runner.RunTurn(r.Context(), req.SessionID, utterance, turnOpts...)
	if err != nil {
		s.logger.Error("chat turn failed", "session_id", req.SessionID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "turn failed")
		return
	}

	s.respondJSON(w, http.StatusOK, ChatResponse{
		ReplyText:   result.ReplyText,
		FinalOutput: result.FinalOutput,
		TurnID:      result.TurnID,
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	state, err := s.runner.SessionState(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("session load failed", "session_id", sessionID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "session load failed")
		return
	}

	s.respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	artifactID := chi.URLParam(r, "artifactID")

	media, err := s.artifacts.Get(sessionID, artifactID)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "media not found")
			return
		}
		s.logger.Error("media load failed", "session_id", sessionID, "artifact_id", artifactID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "media load failed")
		return
	}

	contentType := media.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(media.Data)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encoding failed", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, errorResponse{Error: msg})
}

func lastUserMessage(messages []Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content, true
		}
	}
	return "", false
}
