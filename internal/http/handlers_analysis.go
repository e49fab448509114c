package http

import (
	"net/http"

	"moneta/internal/core"
	"moneta/internal/log"
)

// handleAnalysis dispatches the aggregation routes.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
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
	case "getStatistics":
		s.getStatistics(w, r, req, user)
	case "getTotalIncomeAndExpenses":
		s.getTotals(w, r, user)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (s *Server) getStatistics(w http.ResponseWriter, r *http.Request, req actionRequest, user core.User) {
	var payload struct {
		Timeframe string `json:"timeframe"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	tf := core.Timeframe(payload.Timeframe)
	if !tf.Valid() {
		writeError(w, http.StatusBadRequest, "invalid timeframe")
		return
	}

	stats, err := s.analysis.Statistics(r.Context(), user.ID, tf)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Statistics failed",
			log.FieldUserID, user.ID, log.FieldTimeframe, string(tf), log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		Statistics statisticsJSON `json:"statistics"`
	}{envelope{Success: true}, toStatisticsJSON(stats)})
}

func (s *Server) getTotals(w http.ResponseWriter, r *http.Request, user core.User) {
	totals, err := s.analysis.Totals(r.Context(), user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Totals failed",
			log.FieldUserID, user.ID, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		TotalIncome  string `json:"totalIncome"`
		TotalExpense string `json:"totalExpense"`
	}{envelope{Success: true}, formatAmount(totals.Income), formatAmount(totals.Expense)})
}
