// Package server exposes the twin HTTP API: ephemeral realtime tokens, the
// interviewer prompt, twin storage, slug validation and profile extraction.
//
// Routes:
//
//	GET  /api/realtime/token
//	GET  /api/interview/prompt
//	GET  /api/twins/validate-slug?slug=
//	POST /api/twins
//	POST /api/twins/extract-profile
//	GET  /api/twins/{slug}
//	GET  /api/twins/{slug}/prompt
//	GET  /monitor/ws
//	GET  /health
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/twinoai/twino/pkg/extract"
	"github.com/twinoai/twino/pkg/monitor"
	"github.com/twinoai/twino/pkg/prompts"
	"github.com/twinoai/twino/pkg/ratelimit"
	"github.com/twinoai/twino/pkg/realtime"
	"github.com/twinoai/twino/pkg/twin"
)

// TokenMinter mints ephemeral realtime credentials. *realtime.Client
// implements it.
type TokenMinter interface {
	CreateSession(ctx context.Context, req *realtime.SessionRequest) (*realtime.EphemeralSession, error)
}

// Options wires the server dependencies. Twins is required; a nil Tokens
// or Extractor makes the matching route answer 503.
type Options struct {
	Twins     twin.Store
	Tokens    TokenMinter
	Extractor extract.Extractor
	Limiter   *ratelimit.Limiter
	Monitor   *monitor.Hub
	Questions prompts.QuestionSet
	Model     string
	Voice     string
}

// Server serves the HTTP API.
type Server struct {
	opts Options
}

// New validates opts and returns a Server.
func New(opts Options) (*Server, error) {
	if opts.Twins == nil {
		return nil, errors.New("server: twin store is required")
	}
	if len(opts.Questions.Questions) == 0 {
		qs := prompts.DefaultQuestionSet()
		if opts.Questions.CompletionPhrases != nil {
			qs.CompletionPhrases = opts.Questions.CompletionPhrases
		}
		opts.Questions = qs
	}
	return &Server{opts: opts}, nil
}

// Handler returns the router with the standard middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the API on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.opts.Limiter != nil {
				r.Use(s.opts.Limiter.Middleware)
			}
			r.Get("/realtime/token", s.handleToken)
		})
		r.Get("/interview/prompt", s.handleInterviewPrompt)

		r.Route("/twins", func(r chi.Router) {
			r.Post("/", s.handleCreateTwin)
			r.Get("/validate-slug", s.handleValidateSlug)
			r.Post("/extract-profile", s.handleExtractProfile)
			r.Get("/{slug}", s.handleGetTwin)
			r.Get("/{slug}/prompt", s.handleTwinPrompt)
		})
	})
	if s.opts.Monitor != nil {
		r.Get("/monitor/ws", s.opts.Monitor.ServeHTTP)
	}
}

// JSON writes v as a JSON response.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// Documents such as CVs ride along in request bodies.
const maxBodyBytes = 4 << 20
