package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUnreachable      = errors.New("server unreachable")
	ErrNoSession        = errors.New("no active session")
	ErrLineItemNotFound = errors.New("line item not found")

	// ErrStaleStatus means the order left the expected status before the write landed.
	ErrStaleStatus = errors.New("order status changed concurrently")
)

// ValidationError is a local precondition failure. It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// InvalidTransitionError is returned before any network call when To is not
// reachable from From.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

// PersistenceError wraps a failed mutating call. Nothing is assumed committed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Unreachable distinguishes "could not reach the server" from "server said no".
func (e *PersistenceError) Unreachable() bool {
	return errors.Is(e.Err, ErrUnreachable)
}

// UserMessage is the text shown to a person for this failure.
func (e *PersistenceError) UserMessage() string {
	if e.Unreachable() {
		return "Connection error: the server could not be reached"
	}
	var apiErr *APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.UserMessage()
	}
	return genericErrorMessage
}

// TransportError is a failed realtime operation. It is never fatal.
type TransportError struct {
	Channel Channel
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("realtime %q: %v", e.Channel, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Error codes carried in the error_code field of a response envelope.
const (
	CodeWrongMethod       = "001"
	CodeWrongClass        = "002"
	CodeUnknownMethod     = "003"
	CodeUserNotFound      = "004"
	CodeBadCredentials    = "005"
	CodeTokenMissing      = "006"
	CodeEmptyParams       = "007"
	CodeUsernameTaken     = "008"
	CodePhoneTaken        = "009"
	CodeInvalidRole       = "010"
	CodeInvalidTransition = "011"
	CodeTotalMismatch     = "012"
	CodeOrderNotFound     = "013"
)

const genericErrorMessage = "Unknown error"

var errorMessages = map[string]string{
	CodeWrongMethod:       "Wrong request method",
	CodeWrongClass:        "Wrong class",
	CodeUnknownMethod:     "Method does not exist",
	CodeUserNotFound:      "The user does not exist",
	CodeBadCredentials:    "Invalid credentials",
	CodeTokenMissing:      "Token not sent",
	CodeEmptyParams:       "Empty parameters",
	CodeUsernameTaken:     "The username is already in use",
	CodePhoneTaken:        "The phone number is already registered",
	CodeInvalidRole:       "Invalid role",
	CodeInvalidTransition: "The order cannot move to that status",
	CodeTotalMismatch:     "The order total does not match its items",
	CodeOrderNotFound:     "The order does not exist",
}

// APIError is an application-level rejection: the server answered with error=true.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return "api error: " + e.Message
	}
	return fmt.Sprintf("api error %s: %s", e.Code, e.Message)
}

// UserMessage maps the code through the fixed table, then falls back to the
// server message, then to a generic one.
func (e *APIError) UserMessage() string {
	if msg, ok := errorMessages[e.Code]; ok {
		return msg
	}
	if e.Message != "" {
		return e.Message
	}
	return genericErrorMessage
}
