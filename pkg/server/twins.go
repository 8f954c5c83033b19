package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/twinoai/twino/pkg/extract"
	"github.com/twinoai/twino/pkg/prompts"
	"github.com/twinoai/twino/pkg/twin"
)

// Transcripts shorter than this cannot carry a profile.
const minTranscriptLen = 50

const (
	msgSlugRequired    = "Slug richiesto"
	msgSlugFormat      = "Lo slug deve contenere solo lettere minuscole, numeri e trattini (3-30 caratteri)"
	msgSlugReserved    = "Questo nome è riservato. Scegline un altro."
	msgSlugTaken       = "Questo nome è già in uso. Scegline un altro."
	msgTwinNotFound    = "Digital Twin non trovato"
	msgShortTranscript = "Trascrizione troppo breve o mancante"
	msgExtractFailed   = "Errore durante l'estrazione del profilo"
	msgInternal        = "Errore interno del server"
	msgInvalidBody     = "Richiesta non valida"
	msgNotConfigured   = "Servizio non configurato"
	msgSaveFailed      = "Errore nel salvataggio. Riprova."
)

type createTwinRequest struct {
	Slug        string             `json:"slug"`
	DisplayName string             `json:"display_name"`
	Email       string             `json:"email"`
	Profile     *twin.Profile      `json:"twin_profile"`
	Transcript  string             `json:"transcript"`
	Documents   []prompts.Document `json:"documents"`
	Voice       string             `json:"voice"`
}

func (s *Server) handleCreateTwin(w http.ResponseWriter, r *http.Request) {
	var req createTwinRequest
	if err := decodeBody(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.Slug) == "" {
		Error(w, http.StatusBadRequest, msgSlugRequired)
		return
	}
	var profile twin.Profile
	if req.Profile != nil {
		profile = *req.Profile
	}
	t, err := twin.New(req.Slug, strings.TrimSpace(req.DisplayName), profile, strings.TrimSpace(req.Transcript))
	if err != nil {
		Error(w, http.StatusBadRequest, slugMessage(err))
		return
	}
	t.Email = strings.TrimSpace(req.Email)
	t.Voice = req.Voice
	t.Documents = prompts.JoinDocuments(req.Documents)

	if err := s.opts.Twins.Create(r.Context(), t); err != nil {
		if errors.Is(err, twin.ErrSlugTaken) {
			Error(w, http.StatusConflict, msgSlugTaken)
			return
		}
		slog.Error("save twin", "slug", t.Slug, "error", err)
		Error(w, http.StatusInternalServerError, msgSaveFailed)
		return
	}
	slog.Info("twin created", "slug", t.Slug, "id", t.ID)
	JSON(w, http.StatusCreated, t)
}

type validateSlugResponse struct {
	Valid     bool   `json:"valid"`
	Available bool   `json:"available"`
	Slug      string `json:"slug,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func (s *Server) handleValidateSlug(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("slug")
	if strings.TrimSpace(raw) == "" {
		JSON(w, http.StatusOK, validateSlugResponse{Reason: msgSlugRequired})
		return
	}
	slug, err := twin.NormalizeSlug(raw)
	if err != nil {
		JSON(w, http.StatusOK, validateSlugResponse{Reason: slugMessage(err)})
		return
	}
	exists, err := s.opts.Twins.Exists(r.Context(), slug)
	if err != nil {
		slog.Error("check slug", "slug", slug, "error", err)
		Error(w, http.StatusInternalServerError, msgInternal)
		return
	}
	resp := validateSlugResponse{Valid: true, Available: !exists, Slug: slug}
	if exists {
		resp.Reason = msgSlugTaken
	}
	JSON(w, http.StatusOK, resp)
}

func slugMessage(err error) string {
	if errors.Is(err, twin.ErrReservedSlug) {
		return msgSlugReserved
	}
	return msgSlugFormat
}

// lookupTwin writes the error response itself and returns nil on failure.
func (s *Server) lookupTwin(w http.ResponseWriter, r *http.Request) *twin.Twin {
	slug := strings.ToLower(chi.URLParam(r, "slug"))
	t, err := s.opts.Twins.Get(r.Context(), slug)
	switch {
	case errors.Is(err, twin.ErrNotFound):
		Error(w, http.StatusNotFound, msgTwinNotFound)
		return nil
	case err != nil:
		slog.Error("get twin", "slug", slug, "error", err)
		Error(w, http.StatusInternalServerError, msgInternal)
		return nil
	case !t.Public:
		Error(w, http.StatusNotFound, msgTwinNotFound)
		return nil
	}
	return t
}

func (s *Server) handleGetTwin(w http.ResponseWriter, r *http.Request) {
	if t := s.lookupTwin(w, r); t != nil {
		JSON(w, http.StatusOK, t)
	}
}

func (s *Server) handleTwinPrompt(w http.ResponseWriter, r *http.Request) {
	t := s.lookupTwin(w, r)
	if t == nil {
		return
	}
	text, err := prompts.Twin(t, "")
	if err != nil {
		slog.Error("render twin prompt", "slug", t.Slug, "error", err)
		Error(w, http.StatusInternalServerError, msgInternal)
		return
	}
	JSON(w, http.StatusOK, map[string]string{
		"slug":         t.Slug,
		"display_name": t.DisplayName,
		"instructions": text,
		"voice":        t.Voice,
	})
}

type extractRequest struct {
	Transcript string             `json:"transcript"`
	Documents  []prompts.Document `json:"documents"`
}

func (s *Server) handleExtractProfile(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := decodeBody(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if len(strings.TrimSpace(req.Transcript)) < minTranscriptLen {
		Error(w, http.StatusBadRequest, msgShortTranscript)
		return
	}
	if s.opts.Extractor == nil {
		Error(w, http.StatusServiceUnavailable, msgNotConfigured)
		return
	}
	profile, err := s.opts.Extractor.Extract(r.Context(), req.Transcript, prompts.JoinDocuments(req.Documents))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, extract.ErrEmptyTranscript) {
			status = http.StatusBadRequest
		}
		slog.Error("extract profile", "error", err)
		JSON(w, status, map[string]string{"error": msgExtractFailed, "details": err.Error()})
		return
	}
	JSON(w, http.StatusOK, map[string]any{"success": true, "profile": profile})
}
