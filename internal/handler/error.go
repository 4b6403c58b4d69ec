// Package handler contains the HTTP layer.
//
// This file maps domain errors to JSON error responses.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ycliang/scriptly/internal/domain"
)

// errorBody is the JSON error envelope. Flag carries the machine-readable
// remediation hint; Remaining is present on quota denials so clients can
// render the counter without a second request.
type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Flag      string `json:"flag,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
}

// ErrorResponse writes a domain error as a JSON response, mapping error
// codes to HTTP status codes.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	op := domain.ErrorOp(err)
	status := ErrorCodeToHTTPStatus(code)

	if status >= 500 {
		logger.Error("request failed", "op", op, "code", code, "path", r.URL.Path, "error", err)
	} else {
		logger.Info("request denied", "op", op, "code", code, "path", r.URL.Path)
	}

	body := errorBody{Code: code, Message: message}
	switch code {
	case domain.EPAYMENT:
		// Subscriber over allowance: the fix is an upgrade
		zero := 0
		body.Flag = "upgrade_required"
		body.Remaining = &zero
	case domain.ERATELIMIT:
		// Guest over the daily cap: the fix is signing in
		zero := 0
		body.Flag = "login_required"
		body.Remaining = &zero
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]errorBody{"error": body})
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EPAYMENT:
		return http.StatusPaymentRequired // 402
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// writeJSON writes a successful JSON response.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
