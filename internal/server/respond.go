package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"vidconv/internal/blob"
	"vidconv/internal/intake"
	"vidconv/internal/model"
	"vidconv/internal/session"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps session errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidSettings),
		errors.Is(err, session.ErrNoFiles),
		errors.Is(err, intake.ErrNoMedia):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrIndex),
		errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, session.ErrEngineLoad):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrClosed),
		errors.Is(err, blob.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
