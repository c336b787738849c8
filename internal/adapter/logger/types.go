package logger

import (
	"errors"
	"fmt"

	"github.com/YelzhanWeb/comandas/internal/domain"
)

type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Service   string                 `json:"service"`
	Hostname  string                 `json:"hostname"`
	RequestID string                 `json:"request_id"`
	Action    string                 `json:"action"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Error     *ErrorInfo             `json:"error,omitempty"`
}

type ErrorInfo struct {
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// errorType names the taxonomy bucket of err so log queries can group failures.
func errorType(err error) string {
	var (
		validation *domain.ValidationError
		transition *domain.InvalidTransitionError
		persist    *domain.PersistenceError
		transport  *domain.TransportError
		api        *domain.APIError
	)
	switch {
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &transition):
		return "invalid_transition"
	case errors.As(err, &persist):
		return "persistence"
	case errors.As(err, &transport):
		return "transport"
	case errors.As(err, &api):
		return "api"
	default:
		return fmt.Sprintf("%T", err)
	}
}
