package http

import (
	"errors"
	"net/http"

	"moneta/internal/core"
	"moneta/internal/log"
)

// handleProcessRecurring is the cron entry point: sweep due recurring
// templates and report how many were claimed. Guarded by the shared secret,
// checked before anything touches the database.
func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !s.cronAuthorized(r) {
		s.logger.WarnContext(ctx, "Recurring sweep rejected", log.FieldClientIP, extractClientIP(r))
		writeError(w, http.StatusUnauthorized, "invalid cron secret")
		return
	}

	processed, err := s.recurring.ProcessDue(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Recurring sweep failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "processing failed")
		return
	}

	s.logger.InfoContext(ctx, "Recurring sweep completed", log.FieldProcessed, processed)
	writeJSON(w, http.StatusOK, struct {
		envelope
		ProcessedCount int `json:"processedCount"`
	}{envelope{Success: true}, processed})
}

// handleTransactions dispatches the transaction action routes.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
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
	case "addTransaction":
		s.addTransaction(w, r, req, user)
	case "getAllTransactions":
		s.getAllTransactions(w, r, user)
	case "getCategoryTransactions":
		s.getCategoryTransactions(w, r, req, user)
	case "searchTransactions":
		s.searchTransactions(w, r, req, user)
	case "updateTransaction":
		s.updateTransaction(w, r, req, user)
	case "removeTransaction":
		s.removeTransaction(w, r, req, user)
	case "removeTransactionBaseOnCategory":
		s.removeTransactionByCategory(w, r, req, user)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (s *Server) addTransaction(w http.ResponseWriter, r *http.Request, req actionRequest, user core.User) {
	var payload transactionPayload
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	t, err := payload.toTransaction(user.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.transactions.Add(r.Context(), t)
	if err != nil {
		s.transactionError(w, r, req.Action, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		Transaction transactionJSON `json:"transaction"`
	}{envelope{Success: true}, toTransactionJSON(created)})
}

func (s *Server) getAllTransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	ts, err := s.transactions.ListAll(r.Context(), user.ID)
	if err != nil {
		s.transactionError(w, r, "getAllTransactions", err)
		return
	}
	writeTransactionList(w, ts)
}

func (s *Server) getCategoryTransactions(w http.ResponseWriter, r *http.Request, req actionRequest, user core.User) {
	var payload struct {
		Type       string `json:"type"`
		CategoryID int64  `json:"categoryId"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	txType := core.TransactionType(payload.Type)
	if !txType.Valid() {
		writeError(w, http.StatusBadRequest, "invalid transaction type")
		return
	}

	ts, err := s.transactions.ListByCategory(r.Context(), user.ID, txType, payload.CategoryID)
	if err != nil {
		s.transactionError(w, r, req.Action, err)
		return
	}
	writeTransactionList(w, ts)
}

func (s *Server) searchTransactions(w http.ResponseWriter, r *http.Request, req actionRequest, user core.User) {
	var payload struct {
		Query string `json:"query"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	ts, err := s.transactions.Search(r.Context(), user.ID, payload.Query)
	if err != nil {
		s.transactionError(w, r, req.Action, err)
		return
	}
	writeTransactionList(w, ts)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request, req actionRequest, user core.User) {
	var payload transactionPayload
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	t, err := payload.toTransaction(user.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.transactions.Update(r.Context(), t); err != nil {
		s.transactionError(w, r, req.Action, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) removeTransaction(w http.ResponseWriter, r *http.Request, req actionRequest, user core.User) {
	var payload struct {
		ID int64 `json:"id"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := s.transactions.Remove(r.Context(), payload.ID, user.ID); err != nil {
		s.transactionError(w, r, req.Action, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) removeTransactionByCategory(w http.ResponseWriter, r *http.Request, req actionRequest, user core.User) {
	var payload struct {
		Type       string `json:"type"`
		CategoryID int64  `json:"categoryId"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	txType := core.TransactionType(payload.Type)
	if !txType.Valid() {
		writeError(w, http.StatusBadRequest, "invalid transaction type")
		return
	}

	removed, err := s.transactions.RemoveByCategory(r.Context(), user.ID, txType, payload.CategoryID)
	if err != nil {
		s.transactionError(w, r, req.Action, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		RemovedCount int64 `json:"removedCount"`
	}{envelope{Success: true}, removed})
}

func writeTransactionList(w http.ResponseWriter, ts []core.Transaction) {
	writeJSON(w, http.StatusOK, struct {
		envelope
		Transactions []transactionJSON `json:"transactions"`
	}{envelope{Success: true}, toTransactionListJSON(ts)})
}

// transactionError maps service failures onto the response taxonomy:
// validation problems become 400, missing rows become 404, the rest 500 with
// detail only in the logs.
func (s *Server) transactionError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "transaction not found")
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "Transaction action failed",
			log.FieldAction, action, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// isValidationError reports whether err stems from domain validation.
func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidType,
		core.ErrInvalidPeriod,
		core.ErrInvalidTimeOfDay,
		core.ErrInvalidDay,
		core.ErrInvalidMonth,
		core.ErrEmptyName,
		core.ErrEmptyTitle,
		core.ErrEmptyCategory,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
