package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// DefaultErrorMessage is shown when an error carries no user-facing message.
const DefaultErrorMessage = "エラーが発生しました。しばらくしてから再度お試しください。"

var (
	// ErrBannerLimitReached is returned when a sixth banner project is toggled on.
	ErrBannerLimitReached = errors.New("dashboard: banner projects are limited to 5")
	// ErrRowBusy is returned when a row already has a mutation in flight.
	ErrRowBusy = errors.New("dashboard: row update already in progress")
	// ErrDeleteCancelled is returned when the delete confirmation is declined.
	ErrDeleteCancelled = errors.New("dashboard: delete cancelled")
	// ErrNotConfigured is returned when an optional collaborator was not provided.
	ErrNotConfigured = errors.New("dashboard: operation not configured")
)

// APIError is a non-2xx response from the marketplace API.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %s: status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("api: %s: status %d: %s", e.Path, e.Status, e.Message)
}

// ValidationError is a client-side input check failure.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// ErrorKind classifies failures for retry and display decisions.
type ErrorKind string

const (
	KindNetwork    ErrorKind = "network"
	KindClient     ErrorKind = "client"
	KindServer     ErrorKind = "server"
	KindNotFound   ErrorKind = "not_found"
	KindValidation ErrorKind = "validation"
	KindCancelled  ErrorKind = "cancelled"
)

// KindOf classifies err. Errors that are neither API, validation nor context errors
// are treated as transport failures. A nil error has no kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrDeleteCancelled) {
		return KindCancelled
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return KindValidation
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusNotFound:
			return KindNotFound
		case apiErr.Status >= http.StatusInternalServerError:
			return KindServer
		case apiErr.Status == http.StatusRequestTimeout || apiErr.Status == http.StatusTooManyRequests:
			return KindServer
		default:
			return KindClient
		}
	}
	if errors.Is(err, ErrBannerLimitReached) || errors.Is(err, ErrRowBusy) || errors.Is(err, ErrNotConfigured) {
		return KindClient
	}
	return KindNetwork
}

// Retryable reports whether a failure of this kind may succeed on a later attempt.
func (k ErrorKind) Retryable() bool {
	return k == KindNetwork || k == KindServer
}

// IsNotImplemented reports a 404 from the API, which the backend uses for features it
// has not shipped yet.
func IsNotImplemented(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// UserMessage returns the message to show for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var validation *ValidationError
	if errors.As(err, &validation) && validation.Message != "" {
		return validation.Message
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, ErrBannerLimitReached):
		return "バナープロジェクトは最大5件まで選択できます。"
	case errors.Is(err, ErrRowBusy):
		return "処理中です。しばらくお待ちください。"
	}
	return DefaultErrorMessage
}
