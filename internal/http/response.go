// Package http provides the JSON API server and handler implementations.
//
// This file implements the response envelope shared by every route: a
// {success, message?} pair plus per-action payload fields, written with a
// consistent content type and status code.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// envelope is the base shape of every JSON response. Handlers extend it by
// embedding it in a payload struct with additional fields.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// writeJSON serializes v with the given status code. Encoding failures are
// logged; at that point headers are already sent, so nothing else can be done.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed encoding response", "error", err)
	}
}

// writeSuccess writes a bare {success:true} envelope.
func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

// writeSuccessMessage writes {success:true, message}.
func writeSuccessMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message})
}

// writeError writes {success:false, message} with the given status code.
// The message is user-facing; detail stays in the server logs.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}
