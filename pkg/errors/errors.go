package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for the storefront error taxonomy.
var (
	// ErrAuthRequired marks an operation attempted without a credential.
	// Recovered by redirecting to login; never sent to the backend.
	ErrAuthRequired = errors.New("authentication required")
	// ErrUnauthorized marks an authenticated call the backend rejected with 401.
	// Recovered by a forced logout.
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrBackendRejected marks a structured rejection from the platform API
	// (insufficient stock, invalid request, ...). Prior state is preserved.
	ErrBackendRejected = errors.New("request rejected by backend")
	// ErrNetwork marks a request that never completed. No automatic retry.
	ErrNetwork = errors.New("network failure")
	// ErrGatewayLoad marks a failure to load the payment gateway before the
	// widget could open.
	ErrGatewayLoad = errors.New("payment gateway unavailable")
	// ErrGatewayFailed marks a failure reported by the payment widget itself.
	ErrGatewayFailed = errors.New("payment failed at gateway")
	// ErrVerificationFailed marks the post-payment case where funds may have
	// moved at the gateway but the backend could not confirm the payment.
	ErrVerificationFailed = errors.New("payment verification failed")
	ErrServiceUnavail     = errors.New("service unavailable")
	ErrInternal           = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// AuthRequired creates a 401 error for operations that need a logged-in user.
func AuthRequired(message string) *AppError {
	return &AppError{
		Code:    "AUTH_REQUIRED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrAuthRequired,
	}
}

// Unauthorized creates a 401 error for a credential the backend no longer accepts.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// BackendRejected creates a 422 error carrying the backend's own message.
// If the backend supplied no message, use a caller-provided fallback.
func BackendRejected(message string) *AppError {
	return &AppError{
		Code:    "BACKEND_REJECTED",
		Message: message,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrBackendRejected,
	}
}

// Network creates a 502 error for a request that never completed.
func Network(err error) *AppError {
	return &AppError{
		Code:    "NETWORK_ERROR",
		Message: "Something went wrong. Please check your connection.",
		Status:  http.StatusBadGateway,
		Err:     fmt.Errorf("%w: %w", ErrNetwork, err),
	}
}

// GatewayLoad creates a 502 error for a payment gateway that could not be loaded.
func GatewayLoad(message string) *AppError {
	return &AppError{
		Code:    "GATEWAY_LOAD_FAILED",
		Message: message,
		Status:  http.StatusBadGateway,
		Err:     ErrGatewayLoad,
	}
}

// GatewayFailed creates a 422 error for a failure reported by the payment widget.
func GatewayFailed(message string) *AppError {
	return &AppError{
		Code:    "GATEWAY_FAILED",
		Message: message,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrGatewayFailed,
	}
}

// VerificationFailed creates a 422 error for the post-payment verification case.
// The message deliberately instructs the user to contact support instead of
// claiming the payment failed, because funds may have moved at the gateway.
func VerificationFailed() *AppError {
	return &AppError{
		Code:    "VERIFICATION_FAILED",
		Message: "Payment verification failed. Please contact support if money was deducted.",
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrVerificationFailed,
	}
}

// ServiceUnavailable creates a 503 error.
func ServiceUnavailable(message string) *AppError {
	return &AppError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrServiceUnavail,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthRequired), errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrBackendRejected), errors.Is(err, ErrGatewayFailed), errors.Is(err, ErrVerificationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrGatewayLoad):
		return http.StatusBadGateway
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the user-facing message for an error, falling back to
// the provided generic message when the error carries none.
func UserMessage(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
