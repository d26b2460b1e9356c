package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-go-golems/chatwidget/pkg/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Responder produces the reply to one chat message.
type Responder interface {
	Respond(ctx context.Context, sessionID, message string) (string, error)
}

var _ Responder = (*Service)(nil)

type Handler struct {
	responder Responder
}

func NewHandler(r Responder) *Handler {
	return &Handler{responder: r}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/healthz", h.handleHealth)
	r.Get(WidgetScriptPath, serveStatic("chatbot-widget.js", "application/javascript; charset=utf-8"))
	r.Get("/", serveStatic("index.html", "text/html; charset=utf-8"))
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req transport.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.responder.Respond(r.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			respondError(w, http.StatusBadRequest, ErrMissingFields.Error())
			return
		}
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("chat request failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, transport.Reply{Response: reply})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("could not write response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, transport.Reply{Error: message})
}
