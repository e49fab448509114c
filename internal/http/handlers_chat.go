package http

import (
	"net/http"
	"strings"

	"moneta/internal/log"
)

// handleChat answers a natural-language question about the caller's
// transactions. The recent history is fetched here and handed to the model
// wrapper; the chat layer never touches storage itself.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token    string `json:"token"`
		Question string `json:"question"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.currentUser(r, payload.Token)
	if err != nil {
		unauthorized(w, err)
		return
	}

	if strings.TrimSpace(payload.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	ctx := r.Context()
	transactions, err := s.transactions.ListAll(ctx, user.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Chat history fetch failed",
			log.FieldUserID, user.ID, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	answer, err := s.chat.Ask(ctx, payload.Question, transactions)
	if err != nil {
		s.logger.ErrorContext(ctx, "Chat completion failed",
			log.FieldUserID, user.ID, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "chat unavailable")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		envelope
		Answer string `json:"answer"`
	}{envelope{Success: true}, answer})
}
