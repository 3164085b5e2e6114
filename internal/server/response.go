package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"TickerBoard/internal/errs"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, log *zap.SugaredLogger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, log *zap.SugaredLogger, status int, code, message string) {
	writeJSON(w, log, status, errorResponse{Code: code, Message: message})
}

// handleError maps domain errors to HTTP responses.
func handleError(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger, err error) {
	var (
		notFound   *errs.NotFoundError
		validation *errs.ValidationError
		syntax     *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &notFound):
		log.Warnf("%s %s: not found: %s", r.Method, r.URL.Path, notFound.Message)
		writeError(w, log, http.StatusNotFound, "not_found", notFound.Message)
	case errors.As(err, &validation):
		log.Warnf("%s %s: validation failed: %s", r.Method, r.URL.Path, validation.Message)
		writeError(w, log, http.StatusBadRequest, "invalid_input", validation.Message)
	case errors.As(err, &syntax), errors.As(err, &typeErr):
		writeError(w, log, http.StatusBadRequest, "invalid_input", "malformed JSON body: "+err.Error())
	default:
		log.Errorf("%s %s: unexpected error (%s): %v", r.Method, r.URL.Path, fmt.Sprintf("%T", err), err)
		writeError(w, log, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var syntax *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntax) || errors.As(err, &typeErr) {
			return err
		}
		return errs.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}
