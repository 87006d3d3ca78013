package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"
)

const (
	maxLogBody    = 16 << 10
	maxLogMessage = 2000
)

// FrontendLogPayload defines the structure for logs coming from the browser.
type FrontendLogPayload struct {
	Level   string `json:"level"`             // "debug", "info", "warn" or "error"
	Message string `json:"message"`           // The main log message
	Context any    `json:"context,omitempty"` // Optional extra data (e.g., stack trace)
}

// LogHandler ingests browser log events into the server log.
type LogHandler struct {
	logger Logger
}

func NewLogHandler(logger Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

// LogFrontendEvent handles incoming log requests from the frontend.
func (h *LogHandler) LogFrontendEvent(w http.ResponseWriter, r *http.Request) {
	var payload FrontendLogPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLogBody)).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	msg := payload.Message
	if utf8.RuneCountInString(msg) > maxLogMessage {
		msg = string([]rune(msg)[:maxLogMessage])
	}
	fields := []interface{}{"source", "frontend", "client_message", msg, "context", payload.Context}

	switch strings.ToLower(payload.Level) {
	case "error":
		h.logger.Error("client log", fields...)
	case "warn", "warning":
		h.logger.Warn("client log", fields...)
	case "debug":
		h.logger.Debug("client log", fields...)
	default:
		h.logger.Info("client log", fields...)
	}

	w.WriteHeader(http.StatusNoContent)
}
