package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// Logger is the logging surface handlers use.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

const serviceName = "neu-scheduler"

// Health answers plain-text liveness probes.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

// APIHealth reports service status as JSON.
func APIHealth(now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"service":   serviceName,
			"timestamp": now().UTC().Format(time.RFC3339),
		})
	}
}
