package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yapplr/yapplr/internal/common"
)

// Problem is an RFC 7807 problem document.
type Problem struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

const problemContentType = "application/problem+json"

// statusFor maps domain errors to HTTP status codes and the detail shown to
// the client. Internal errors never leak their text.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict, "An account with that email or username already exists."
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "Invalid email or password."
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "Missing or invalid session token."
	case errors.Is(err, common.ErrInvalidOrExpired):
		return http.StatusBadRequest, "Invalid or expired reset token."
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "Too many failed attempts. Try again later."
	default:
		return http.StatusInternalServerError, "An unexpected error occurred."
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)
	writeProblem(w, r, Problem{Status: status, Detail: detail})
}

func writeProblem(w http.ResponseWriter, r *http.Request, p Problem) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	if p.Instance == "" && r != nil {
		p.Instance = r.URL.Path
	}
	if p.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="yapplr"`)
	}
	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
