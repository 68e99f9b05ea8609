package web

import (
	"encoding/json"
	"net/http"

	"installment-tracker/internal/syncer"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeOutcome translates a non-OK sync outcome into an HTTP error response.
// Callers must have checked out.OK() first.
func writeOutcome(w http.ResponseWriter, r *http.Request, out syncer.Outcome) {
	msg := out.Message
	if msg == "" {
		msg = string(out.Status)
	}
	switch out.Status {
	case syncer.StatusInvalid:
		writeError(w, r, msg, "VALIDATION_ERROR", http.StatusBadRequest)
	case syncer.StatusBusy:
		writeError(w, r, msg, "BUSY", http.StatusConflict)
	case syncer.StatusUnauthenticated:
		writeError(w, r, msg, "UNAUTHENTICATED", http.StatusUnauthorized)
	case syncer.StatusRejected:
		writeError(w, r, msg, "REJECTED", http.StatusUnprocessableEntity)
	default:
		writeError(w, r, msg, "UPSTREAM_UNAVAILABLE", http.StatusBadGateway)
	}
}
