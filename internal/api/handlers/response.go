package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/zatekoja/fellowship/backend/pkg/errors"
)

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, code apperrors.ErrorType, message string) {
	respondWithJSON(w, statusCode, errorResponse{
		OK:    false,
		Error: message,
		Code:  string(code),
	})
}

// statusForError maps an AppError type to its HTTP status
func statusForError(t apperrors.ErrorType) int {
	switch t {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrorTypeForbidden:
		return http.StatusForbidden
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondWithAppError writes err as the structured error payload. Internal
// failures get a generic message so datastore details never leak.
func respondWithAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		respondWithError(w, http.StatusInternalServerError, apperrors.ErrorTypeInternal, "internal server error")
		return
	}

	message := appErr.Message
	if appErr.Type == apperrors.ErrorTypeInternal {
		message = "internal server error"
	}
	respondWithError(w, statusForError(appErr.Type), appErr.Type, message)
}
