// Package api exposes HTTP handlers for the workout log service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"example.com/workoutlog/internal/auth"
	"example.com/workoutlog/internal/domain"
	"example.com/workoutlog/internal/identity"
	"example.com/workoutlog/internal/observability"
)

// Handler coordinates HTTP requests with the domain and identity services.
type Handler struct {
	records  *domain.Service
	users    *identity.Service
	tokenCfg auth.Config
}

// NewHandler builds a Handler.
func NewHandler(records *domain.Service, users *identity.Service, tokenCfg auth.Config) *Handler {
	return &Handler{records: records, users: users, tokenCfg: tokenCfg}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/auth/login", h.login)
	mux.HandleFunc("/auth/register", h.register)
	mux.HandleFunc("/guest-auth/login", h.guestLogin)
	mux.HandleFunc("/workouts", h.workouts)
	mux.HandleFunc("/workouts/", h.workoutByID)
	mux.HandleFunc("/healthz", healthz)
}

// PublicRoute reports whether a request may bypass bearer-token auth.
func PublicRoute(r *http.Request) bool {
	switch r.URL.Path {
	case "/auth/login", "/auth/register", "/guest-auth/login", "/healthz", "/metrics":
		return true
	}
	return false
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// credentialsRequest is the payload for login and register.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// guestLoginRequest is the payload for guest login.
type guestLoginRequest struct {
	GuestID string `json:"guestId"`
}

// tokenResponse carries an issued bearer token.
type tokenResponse struct {
	Token string `json:"token"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			observability.AuthAttempt("login", "failure")
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid username or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", "login failed")
		return
	}

	h.issueToken(w, "login", user.Username)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	user, err := h.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		var policyErr *identity.PolicyError
		switch {
		case errors.As(err, &policyErr):
			observability.AuthAttempt("register", "failure")
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"type":   "validation_failed",
				"detail": "password or username rejected",
				"errors": policyErr.Violations,
			})
		case errors.Is(err, identity.ErrUsernameTaken):
			observability.AuthAttempt("register", "failure")
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"type":   "validation_failed",
				"detail": "username rejected",
				"errors": []string{identity.ErrUsernameTaken.Error()},
			})
		default:
			writeError(w, http.StatusInternalServerError, "server_error", "registration failed")
		}
		return
	}

	h.issueToken(w, "register", user.Username)
}

func (h *Handler) guestLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req guestLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	user, err := h.users.EnsureGuest(r.Context(), req.GuestID)
	if err != nil {
		var policyErr *identity.PolicyError
		if errors.As(err, &policyErr) {
			observability.AuthAttempt("guest", "failure")
			writeError(w, http.StatusBadRequest, "validation_failed", policyErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", "guest login failed")
		return
	}

	h.issueToken(w, "guest", user.Username)
}

func (h *Handler) issueToken(w http.ResponseWriter, flow, username string) {
	token, err := auth.Issue(username, h.tokenCfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", "token issuance failed")
		return
	}
	observability.AuthAttempt(flow, "success")
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) workouts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listRecords(w, r)
	case http.MethodPost:
		h.createRecord(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) workoutByID(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/workouts/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid record id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.updateRecord(w, r, id)
	case http.MethodDelete:
		h.deleteRecord(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	records, err := h.records.ListRecords(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", "unable to list records")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var candidate domain.Record
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	stored, err := h.records.CreateRecord(r.Context(), claims.Subject, candidate)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusBadRequest, "validation_failed", validationErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", "unable to create record")
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request, id int64) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var candidate domain.Record
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if candidate.ID != 0 && candidate.ID != id {
		writeError(w, http.StatusBadRequest, "invalid_request", "record id mismatch")
		return
	}

	if err := h.records.UpdateRecord(r.Context(), claims.Subject, id, candidate); err != nil {
		writeRecordError(w, err, "unable to update record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request, id int64) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	if err := h.records.DeleteRecord(r.Context(), claims.Subject, id); err != nil {
		writeRecordError(w, err, "unable to delete record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeRecordError(w http.ResponseWriter, err error, fallback string) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "validation_failed", validationErr.Error())
	case errors.Is(err, domain.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "not_found", "record not found")
	case errors.Is(err, domain.ErrNotOwner):
		writeError(w, http.StatusForbidden, "forbidden", "you can only modify your own records")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", "record modified concurrently")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", fallback)
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
