package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistd/internal/services"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON sends v as the response body. Encoding or write failures can only be logged once the status is out.
func writeJSON(w http.ResponseWriter, logger *log.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write response", "status", status, "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *log.Logger, status int, code, message string) {
	writeJSON(w, logger, status, errorResponse{Error: code, Message: message})
}

// upstreamFailure answers 502 for [services.UpstreamError] and 500 for anything else. Nothing is retried.
func upstreamFailure(w http.ResponseWriter, logger *log.Logger, err error) {
	var ue *services.UpstreamError
	if !errors.As(err, &ue) {
		logger.Error("request failed", "error", err)
		writeError(w, logger, http.StatusInternalServerError, "internal_error", "unexpected error")
		return
	}

	logger.Error("upstream call failed", "op", ue.Op, "status", ue.StatusCode, "error", ue.Err)
	writeError(w, logger, http.StatusBadGateway, "upstream_error", "spotify "+ue.Op+" request failed")
}
