package backend

import (
	"context"
	"net/http"

	"github.com/Kirito-012/Ancient-Health/internal/domain"
)

// AuthResult carries the credential and profile returned by login and signup.
type AuthResult struct {
	Token string         `json:"token"`
	User  domain.Profile `json:"user"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// SignupRequest is the signup payload. OTP is obtained via SendOTP first.
type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	OTP      string `json:"otp" validate:"required,len=6,numeric"`
}

// ProfileUpdate is the profile mutation payload. The backend applies whichever
// fields are present: name/phone edits, a password change, a whole replacement
// of the address list, or a default-address designation. Address add, edit and
// delete all reduce to submitting the entire desired list; the last write wins.
type ProfileUpdate struct {
	Name             string           `json:"name,omitempty"`
	Phone            string           `json:"phone,omitempty"`
	OldPassword      string           `json:"oldPassword,omitempty"`
	NewPassword      string           `json:"newPassword,omitempty"`
	Addresses        []domain.Address `json:"addresses,omitempty"`
	DefaultAddressID string           `json:"defaultAddressId,omitempty"`
}

// Login exchanges email and password for a credential and profile.
func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResult, error) {
	var out AuthResult
	if err := c.call(ctx, http.MethodPost, "/api/auth/login", "", req, &out); err != nil {
		return AuthResult{}, err
	}
	return out, nil
}

// Signup registers a new user. The email must have been sent an OTP first.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (AuthResult, error) {
	var out AuthResult
	if err := c.call(ctx, http.MethodPost, "/api/auth/signup", "", req, &out); err != nil {
		return AuthResult{}, err
	}
	return out, nil
}

// SendOTP asks the backend to email a one-time code for signup.
func (c *Client) SendOTP(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.call(ctx, http.MethodPost, "/api/auth/send-otp", "", body, nil)
}

// Me fetches the profile for the given credential. The backend nests the
// profile under a "user" key here, unlike login and signup where it sits
// next to the token.
func (c *Client) Me(ctx context.Context, credential string) (domain.Profile, error) {
	var out struct {
		User domain.Profile `json:"user"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/auth/me", credential, nil, &out); err != nil {
		return domain.Profile{}, err
	}
	return out.User, nil
}

// UpdateProfile applies a profile mutation and returns the freshly fetched
// profile. The update response body is not decoded; Me is the single source
// of the canonical profile shape.
func (c *Client) UpdateProfile(ctx context.Context, credential string, req ProfileUpdate) (domain.Profile, error) {
	if err := c.call(ctx, http.MethodPut, "/api/auth/profile", credential, req, nil); err != nil {
		return domain.Profile{}, err
	}
	return c.Me(ctx, credential)
}
