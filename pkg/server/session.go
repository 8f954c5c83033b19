package server

import (
	"log/slog"
	"net/http"

	"github.com/twinoai/twino/pkg/prompts"
	"github.com/twinoai/twino/pkg/realtime"
)

type tokenResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	ExpiresAt    int64  `json:"expires_at"`
	Model        string `json:"model"`
	Voice        string `json:"voice"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if s.opts.Tokens == nil {
		Error(w, http.StatusServiceUnavailable, msgNotConfigured)
		return
	}
	sess, err := s.opts.Tokens.CreateSession(r.Context(), &realtime.SessionRequest{
		Model: s.opts.Model,
		Voice: s.opts.Voice,
	})
	if err != nil {
		slog.Error("create realtime session", "error", err)
		Error(w, http.StatusBadGateway, msgInternal)
		return
	}
	JSON(w, http.StatusOK, tokenResponse{
		ID:           sess.ID,
		ClientSecret: sess.ClientSecret,
		ExpiresAt:    sess.ExpiresAt.UnixMilli(),
		Model:        sess.Model,
		Voice:        sess.Voice,
	})
}

type promptResponse struct {
	Instructions      string   `json:"instructions"`
	FixedQuestions    int      `json:"fixed_questions"`
	FollowUpQuestions int      `json:"follow_up_questions"`
	MaxQuestions      int      `json:"max_questions"`
	CompletionPhrases []string `json:"completion_phrases,omitempty"`
}

// handleInterviewPrompt renders the interviewer instructions. The optional
// name query parameter personalizes the greeting.
func (s *Server) handleInterviewPrompt(w http.ResponseWriter, r *http.Request) {
	qs := s.opts.Questions
	text, err := prompts.Interviewer(qs, prompts.InterviewerOptions{Name: r.URL.Query().Get("name")})
	if err != nil {
		slog.Error("render interviewer prompt", "error", err)
		Error(w, http.StatusInternalServerError, msgInternal)
		return
	}
	JSON(w, http.StatusOK, promptResponse{
		Instructions:      text,
		FixedQuestions:    len(qs.Questions),
		FollowUpQuestions: qs.FollowUpQuestions,
		MaxQuestions:      qs.MaxQuestions(),
		CompletionPhrases: qs.CompletionPhrases,
	})
}
