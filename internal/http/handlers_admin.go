package http

import (
	"net/http"

	"moneta/internal/log"
)

// Admin routes sit behind requireAdmin; handlers can assume an admin caller.

func (s *Server) handleAdminOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.admin.Overview(r.Context())
	if err != nil {
		s.adminError(w, r, "overview", err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		UserCount        int64        `json:"userCount"`
		TransactionCount int64        `json:"transactionCount"`
		TotalIncome      string       `json:"totalIncome"`
		TotalExpense     string       `json:"totalExpense"`
		Users            []rollupJSON `json:"users"`
	}{
		envelope{Success: true},
		overview.UserCount,
		overview.TransactionCount,
		formatAmount(overview.TotalIncome),
		formatAmount(overview.TotalExpense),
		toRollupListJSON(overview.Users),
	})
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.admin.Users(r.Context())
	if err != nil {
		s.adminError(w, r, "users", err)
		return
	}
	out := make([]userJSON, 0, len(users))
	for _, u := range users {
		out = append(out, toUserJSON(u))
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		Users []userJSON `json:"users"`
	}{envelope{Success: true}, out})
}

// handleAdminPruneVerifications drops expired verification tokens.
func (s *Server) handleAdminPruneVerifications(w http.ResponseWriter, r *http.Request) {
	pruned, err := s.admin.PruneVerifications(r.Context())
	if err != nil {
		s.adminError(w, r, "pruneVerifications", err)
		return
	}
	if admin, ok := userFromContext(r.Context()); ok {
		s.logger.InfoContext(r.Context(), "Expired verifications pruned",
			log.FieldUserID, admin.ID, log.FieldCount, pruned)
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		PrunedCount int64 `json:"prunedCount"`
	}{envelope{Success: true}, pruned})
}

func (s *Server) adminError(w http.ResponseWriter, r *http.Request, action string, err error) {
	s.logger.ErrorContext(r.Context(), "Admin action failed",
		log.FieldAction, action, log.FieldError, err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
