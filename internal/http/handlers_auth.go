package http

import (
	"errors"
	"net/http"

	"moneta/internal/auth"
	"moneta/internal/log"
	"moneta/internal/services"
)

// handleAuth dispatches the account routes. None require a session; the
// verification and reset actions authenticate by single-use token instead.
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	req, err := parseAction(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Action {
	case "signup":
		s.signup(w, r, req)
	case "login":
		s.login(w, r, req)
	case "verifyEmail":
		s.verifyEmail(w, r, req)
	case "requestPasswordReset":
		s.requestPasswordReset(w, r, req)
	case "resetPassword":
		s.resetPassword(w, r, req)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request, req actionRequest) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	user, err := s.auth.Signup(r.Context(), payload.Email, payload.Password, payload.Name)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "email already registered")
			return
		}
		s.authError(w, r, req.Action, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		User userJSON `json:"user"`
	}{envelope{Success: true, Message: "verification email sent"}, toUserJSON(user)})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, req actionRequest) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	token, user, err := s.auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, services.ErrNotVerified):
			writeError(w, http.StatusUnauthorized, "email not verified")
		default:
			s.authError(w, r, req.Action, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		Token string   `json:"token"`
		User  userJSON `json:"user"`
	}{envelope{Success: true}, token, toUserJSON(user)})
}

func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request, req actionRequest) {
	var payload struct {
		VerificationToken string `json:"verificationToken"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := s.auth.VerifyEmail(r.Context(), payload.VerificationToken); err != nil {
		if errors.Is(err, services.ErrTokenInvalid) {
			writeError(w, http.StatusBadRequest, "verification token invalid or expired")
			return
		}
		s.authError(w, r, req.Action, err)
		return
	}
	writeSuccessMessage(w, "email verified")
}

// requestPasswordReset answers success even for unknown addresses so the
// route cannot be used to probe which emails are registered.
func (s *Server) requestPasswordReset(w http.ResponseWriter, r *http.Request, req actionRequest) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := s.auth.RequestPasswordReset(r.Context(), payload.Email); err != nil {
		s.authError(w, r, req.Action, err)
		return
	}
	writeSuccessMessage(w, "reset email sent if the address is registered")
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request, req actionRequest) {
	var payload struct {
		ResetToken  string `json:"resetToken"`
		NewPassword string `json:"newPassword"`
	}
	if err := req.decodePayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := s.auth.ResetPassword(r.Context(), payload.ResetToken, payload.NewPassword); err != nil {
		if errors.Is(err, services.ErrTokenInvalid) {
			writeError(w, http.StatusBadRequest, "reset token invalid or expired")
			return
		}
		s.authError(w, r, req.Action, err)
		return
	}
	writeSuccessMessage(w, "password updated")
}

func (s *Server) authError(w http.ResponseWriter, r *http.Request, action string, err error) {
	if errors.Is(err, services.ErrInvalidEmail) || errors.Is(err, auth.ErrPasswordTooShort) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.ErrorContext(r.Context(), "Auth action failed",
		log.FieldAction, action, log.FieldError, err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
