package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wadjakorntonsri/studio-cms/pkg/apperr"
	"github.com/wadjakorntonsri/studio-cms/pkg/logger"
)

type errorResponse struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an application error to its HTTP status. Internal details
// are logged, never returned.
func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	code := apperr.CodeOf(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "code", string(code), "error", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: apperr.MessageOf(err)})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Code: apperr.CodeValidation, Message: message})
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeNotFound, apperr.CodeUnknownCollection:
		return http.StatusNotFound
	case apperr.CodePersistence:
		return http.StatusBadGateway
	case apperr.CodeReconciling:
		return http.StatusConflict
	case apperr.CodeUploadRejected:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// isTooLarge reports whether err came from an http.MaxBytesReader limit.
func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
