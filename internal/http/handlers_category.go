package http

import (
	"errors"
	"net/http"

	"moneta/internal/core"
	"moneta/internal/log"
)

// handleCategories dispatches the category action routes.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	req, err := parseAction(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.currentUser(r, req.Token)
	if err != nil {
		unauthorized(w, err)
		return
	}

	switch req.Action {
	case "addCategory":
		s.addCategory(w, r, req, user)
	case "getCategories":
		s.getCategories(w, r, req, user)
	case "removeCategory":
		s.removeCategory(w, r, req, user)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (s *Server) addCategory(w http.ResponseWriter, r *http.Request, req actionRequest, user core.User) {
	var payload struct {
		Type string `json:"type"`
		Name string `json:"name"`
		Icon string `json:"icon"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	created, err := s.categories.Add(r.Context(), core.Category{
		UserID: user.ID,
		Kind:   core.TransactionType(payload.Type),
		Name:   payload.Name,
		Icon:   payload.Icon,
	})
	if err != nil {
		s.categoryError(w, r, req.Action, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		Category categoryJSON `json:"category"`
	}{envelope{Success: true}, toCategoryJSON(created)})
}

func (s *Server) getCategories(w http.ResponseWriter, r *http.Request, req actionRequest, user core.User) {
	var payload struct {
		Type string `json:"type"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	kind := core.TransactionType(payload.Type)
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "invalid transaction type")
		return
	}

	cs, err := s.categories.List(r.Context(), kind, user.ID)
	if err != nil {
		s.categoryError(w, r, req.Action, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		Categories []categoryJSON `json:"categories"`
	}{envelope{Success: true}, toCategoryListJSON(cs)})
}

// removeCategory deletes a user-defined category and the transactions filed
// under it. Default categories cannot be removed.
func (s *Server) removeCategory(w http.ResponseWriter, r *http.Request, req actionRequest, user core.User) {
	var payload struct {
		Type string `json:"type"`
		ID   int64  `json:"id"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	kind := core.TransactionType(payload.Type)
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "invalid transaction type")
		return
	}

	ctx := r.Context()
	if _, err := s.transactions.RemoveByCategory(ctx, user.ID, kind, payload.ID); err != nil {
		s.categoryError(w, r, req.Action, err)
		return
	}
	if err := s.categories.Remove(ctx, kind, payload.ID, user.ID); err != nil {
		s.categoryError(w, r, req.Action, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) categoryError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "category not found")
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "Category action failed",
			log.FieldAction, action, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
