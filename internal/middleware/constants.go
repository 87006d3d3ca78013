// File: internal/middleware/constants.go
package middleware

// Context keys for middleware communication
type contextKey string

const (
	TokenKey    contextKey = "session_token"
	ClientIPKey contextKey = "client_ip"
)

// Logger is the subset of the service logger the middleware needs.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
