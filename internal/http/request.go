// Package http provides the JSON API server and handler implementations.
//
// This file implements parsing for action-dispatch request bodies. Mutation
// routes receive a JSON body {action, token, ...payload}; the body is read
// once, the action and token are extracted, and the remaining payload is
// decoded per-action into a typed request struct.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes caps request bodies; no legitimate action payload comes close.
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("empty request body")

// actionRequest carries the dispatch fields of an action body plus the raw
// bytes so handlers can decode the payload into an action-specific struct.
type actionRequest struct {
	Action string `json:"action"`
	Token  string `json:"token"`

	raw []byte
}

// parseAction reads and decodes the body's dispatch fields. The raw bytes are
// retained for a second, per-action decode via decodePayload.
func parseAction(r *http.Request) (actionRequest, error) {
	var req actionRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return req, fmt.Errorf("read request body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return req, errEmptyBody
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("decode request body: %w", err)
	}
	req.raw = body
	return req, nil
}

// decodePayload decodes the retained body into an action-specific struct.
func (req actionRequest) decodePayload(v any) error {
	if err := json.Unmarshal(req.raw, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", req.Action, err)
	}
	return nil
}

// decodeBody decodes a plain (non-action) JSON body into v.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
// Returns "" when the header is missing or malformed.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
