package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nconklindev/tabula/internal/converter"
	"github.com/nconklindev/tabula/internal/logging"
	"github.com/nconklindev/tabula/internal/storage"
)

// Error codes returned in the JSON error envelope.
const (
	CodeUnknownFormat     = "UNKNOWN_FORMAT"
	CodeParseError        = "PARSE_ERROR"
	CodeUnsupportedTarget = "UNSUPPORTED_TARGET"
	CodeBadRequest        = "BAD_REQUEST"
	CodeNotFound          = "NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError maps err to a status and code, logs it, and replies.
// Internal errors are not echoed to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "status", status, "code", code, "error", err)
	}

	writeError(w, status, code, message)
}

func classify(err error) (int, string, string) {
	var parseErr *converter.ParseError
	switch {
	case errors.Is(err, converter.ErrUnknownFormat):
		return http.StatusBadRequest, CodeUnknownFormat, "Couldn't determine file format. Use a .csv, .json, .xlsx, or .xls file."
	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity, CodeParseError, parseErr.Error()
	case errors.Is(err, converter.ErrUnsupportedTarget):
		return http.StatusBadRequest, CodeUnsupportedTarget, err.Error()
	case errors.Is(err, converter.ErrNoUser):
		return http.StatusUnauthorized, CodeUnauthorized, err.Error()
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, err.Error()
	case errors.Is(err, storage.ErrForbidden):
		return http.StatusForbidden, CodeForbidden, err.Error()
	default:
		return http.StatusInternalServerError, CodeInternal, "internal error"
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
