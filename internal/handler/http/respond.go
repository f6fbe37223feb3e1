package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Kirito-012/Ancient-Health/internal/notify"
	"github.com/Kirito-012/Ancient-Health/pkg/httputil"
	"github.com/Kirito-012/Ancient-Health/pkg/logger"

	apperrors "github.com/Kirito-012/Ancient-Health/pkg/errors"
)

// response is the storefront API envelope. Notices carry the toast-style
// messages collected while the operation ran.
type response struct {
	Data    any                     `json:"data,omitempty"`
	Notices []notify.Notice         `json:"notices,omitempty"`
	Error   *httputil.ErrorResponse `json:"error,omitempty"`
}

// redirectFor maps recoverable error codes to the storefront route that
// fixes them: login for missing or rejected credentials, the profile's
// address form when checkout has nowhere to ship.
func redirectFor(code string) string {
	switch code {
	case "AUTH_REQUIRED", "UNAUTHORIZED":
		return "/login"
	case "NO_ADDRESS":
		return "/profile"
	default:
		return ""
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	httputil.WriteJSON(w, status, v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.Status, response{
			Error: &httputil.ErrorResponse{
				Code:      appErr.Code,
				Message:   appErr.Message,
				Redirect:  redirectFor(appErr.Code),
				RequestID: requestID,
			},
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	code := "INTERNAL_ERROR"
	message := "an internal error occurred"

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code = "NOT_FOUND"
		message = "resource not found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		code = "INVALID_INPUT"
		message = err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		code = "UNAUTHORIZED"
		message = "unauthorized"
	case errors.Is(err, apperrors.ErrNetwork):
		code = "NETWORK_ERROR"
		message = "Something went wrong. Please check your connection."
	}

	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	writeJSON(w, status, response{
		Error: &httputil.ErrorResponse{
			Code:      code,
			Message:   message,
			Redirect:  redirectFor(code),
			RequestID: requestID,
		},
	})
}
