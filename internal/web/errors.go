package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered as JSON for API clients, HTML otherwise

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/JonMunkholm/coverage/internal/core"
	"github.com/JonMunkholm/coverage/internal/logging"
	"github.com/JonMunkholm/coverage/internal/web/views"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusByCode maps support codes to HTTP status. Unlisted codes are 500.
var statusByCode = map[string]int{
	"LOAD001": http.StatusUnprocessableEntity,
	"LOAD002": http.StatusUnprocessableEntity,
	"LOAD003": http.StatusUnprocessableEntity,
	"LOAD004": http.StatusUnprocessableEntity,
	"FILE002": http.StatusUnprocessableEntity,
	"FILE005": http.StatusUnprocessableEntity,
	"DATE001": http.StatusUnprocessableEntity,
	"FILE001": http.StatusRequestEntityTooLarge,
	"FILE004": http.StatusBadRequest,
	"WB001":   http.StatusNotFound,
	"SNAP002": http.StatusNotFound,
	"SNAP001": http.StatusNotImplemented,
	"UPL002":  http.StatusServiceUnavailable,
	"DB004":   http.StatusServiceUnavailable,
	"RATE001": http.StatusTooManyRequests,
}

// statusFor returns the HTTP status for a mapped error.
func statusFor(msg core.UserMessage) int {
	if st, ok := statusByCode[msg.Code]; ok {
		return st
	}
	return http.StatusInternalServerError
}

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and picks the status from the
// error's support code.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := core.MapError(err)
	statusCode := statusFor(userMsg)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, statusCode)
	} else {
		respondErrorHTML(w, r, userMsg, statusCode)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML renders the error page.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	views.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}

	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// clientIP returns the host part of RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
