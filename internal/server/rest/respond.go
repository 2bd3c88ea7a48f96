package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ymatrosov/linkstash/internal/common"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service-layer sentinel errors onto HTTP statuses with a
// structured body. Anything unrecognized is reported as an internal error
// without leaking the underlying message.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation) || errors.Is(err, common.ErrInvalidURL):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation_error", Message: err.Error()})
	case errors.Is(err, common.ErrorUnauthorized) || errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrTokenExpired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "unauthorized"})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()})
	case errors.Is(err, common.ErrorAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "duplicate", Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: "internal error"})
	}
}

// decodeBody parses a JSON request body into dst, translating malformed input
// into a validation error.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return common.ErrorValidation
	}
	return nil
}
