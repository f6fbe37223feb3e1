package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Kirito-012/Ancient-Health/internal/backend"
	"github.com/Kirito-012/Ancient-Health/internal/domain"
	"github.com/Kirito-012/Ancient-Health/internal/session"
	"github.com/Kirito-012/Ancient-Health/pkg/httputil"
	"github.com/Kirito-012/Ancient-Health/pkg/validator"

	apperrors "github.com/Kirito-012/Ancient-Health/pkg/errors"
)

// AuthHandler handles login, signup and profile endpoints.
type AuthHandler struct {
	hub    *session.Hub
	api    *backend.Client
	logger *slog.Logger
}

// NewAuthHandler creates an auth HTTP handler.
func NewAuthHandler(hub *session.Hub, api *backend.Client, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{hub: hub, api: api, logger: logger}
}

// SendOTPRequest is the JSON body for requesting a signup code.
type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// AddressPayload is an address inside a profile update. Add, edit and delete
// all submit the entire desired list; the backend replaces it wholesale.
type AddressPayload struct {
	ID        string `json:"_id"`
	Name      string `json:"name" validate:"required"`
	Phone     string `json:"phone" validate:"required,len=10,numeric"`
	Address   string `json:"address" validate:"required"`
	Landmark  string `json:"landmark"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Pincode   string `json:"pincode" validate:"required,len=6,numeric"`
	IsDefault bool   `json:"isDefault"`
}

// UpdateProfileRequest is the JSON body for profile mutations. Whichever
// fields are present are applied: name/phone edits, a password change, a
// whole address-list replacement, or a default-address designation.
type UpdateProfileRequest struct {
	Name             string           `json:"name"`
	Phone            string           `json:"phone" validate:"omitempty,len=10,numeric"`
	OldPassword      string           `json:"oldPassword"`
	NewPassword      string           `json:"newPassword" validate:"omitempty,min=6"`
	Addresses        []AddressPayload `json:"addresses" validate:"omitempty,dive"`
	DefaultAddressID string           `json:"defaultAddressId"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req backend.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.InvalidInput("invalid request body"))
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.api.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	store := h.hub.Store(r.Context(), sessionID(r))
	if err := store.Login(r.Context(), result.Token); err != nil {
		writeError(w, r, err)
		return
	}

	profile, _ := store.Profile()
	writeJSON(w, http.StatusOK, response{Data: map[string]any{"user": profile}})
}

// Signup handles POST /api/auth/signup. The email must have requested an OTP
// via SendOTP first.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req backend.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.InvalidInput("invalid request body"))
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.api.Signup(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	store := h.hub.Store(r.Context(), sessionID(r))
	if err := store.Login(r.Context(), result.Token); err != nil {
		writeError(w, r, err)
		return
	}

	profile, _ := store.Profile()
	writeJSON(w, http.StatusCreated, response{Data: map[string]any{"user": profile}})
}

// SendOTP handles POST /api/auth/send-otp.
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.InvalidInput("invalid request body"))
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.api.SendOTP(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "sent"}})
}

// Logout handles POST /api/auth/logout. Always succeeds: logging out an
// already logged-out session is a no-op.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.hub.Logout(r.Context(), sessionID(r))
	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "logged_out"}})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	store := h.hub.Store(r.Context(), sessionID(r))

	profile, ok := store.Profile()
	if !ok {
		if _, loggedIn := store.Credential(); !loggedIn {
			writeError(w, r, apperrors.AuthRequired("Please login to continue"))
			return
		}
		// Credential present but profile missing: the restore fetch failed
		// earlier, retry it now.
		if err := store.RefreshProfile(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		profile, ok = store.Profile()
		if !ok {
			writeError(w, r, apperrors.AuthRequired("Please login to continue"))
			return
		}
	}
	writeJSON(w, http.StatusOK, response{Data: map[string]any{"user": profile}})
}

// UpdateProfile handles PUT /api/auth/profile.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	store := h.hub.Store(r.Context(), sessionID(r))
	credential, ok := store.Credential()
	if !ok {
		writeError(w, r, apperrors.AuthRequired("Please login to continue"))
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.InvalidInput("invalid request body"))
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	update := backend.ProfileUpdate{
		Name:             req.Name,
		Phone:            req.Phone,
		OldPassword:      req.OldPassword,
		NewPassword:      req.NewPassword,
		DefaultAddressID: req.DefaultAddressID,
	}
	if req.Addresses != nil {
		update.Addresses = make([]domain.Address, 0, len(req.Addresses))
		for _, a := range req.Addresses {
			update.Addresses = append(update.Addresses, domain.Address{
				ID:        a.ID,
				Name:      a.Name,
				Phone:     a.Phone,
				Address:   a.Address,
				Landmark:  a.Landmark,
				City:      a.City,
				State:     a.State,
				Pincode:   a.Pincode,
				IsDefault: a.IsDefault,
			})
		}
	}

	profile, err := h.api.UpdateProfile(r.Context(), credential, update)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			store.Logout(r.Context())
		}
		writeError(w, r, err)
		return
	}

	store.SetProfile(profile)
	writeJSON(w, http.StatusOK, response{Data: map[string]any{"user": profile}})
}
