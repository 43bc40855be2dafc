package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/navayuwa/nes-core/internal/domain/entities"
	"github.com/navayuwa/nes-core/internal/domain/identifiers"
	"github.com/navayuwa/nes-core/internal/domain/services"
)

// errorBody is the envelope every error response carries.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeDomainError maps a domain error to its HTTP status and error
// code. Unknown errors become an opaque 500 so internals never leak.
func writeDomainError(w http.ResponseWriter, log *slog.Logger, err error) {
	var parseErr *identifiers.ParseError
	switch {
	case errors.Is(err, entities.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, entities.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, services.ErrBatchTooLarge):
		writeError(w, http.StatusBadRequest, "batch_too_large", err.Error())
	case errors.As(err, &parseErr):
		writeError(w, http.StatusBadRequest, "invalid_identifier", err.Error())
	case errors.Is(err, entities.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, "invalid_record", err.Error())
	default:
		log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
