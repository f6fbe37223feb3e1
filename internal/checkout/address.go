package checkout

import (
	"net/http"

	"github.com/Kirito-012/Ancient-Health/internal/domain"

	apperrors "github.com/Kirito-012/Ancient-Health/pkg/errors"
)

// Address precondition failures carry distinct codes so the frontend can
// route the user to the right recovery: login, the profile's address form,
// or the address picker.
func errNotLoggedIn() *apperrors.AppError {
	return apperrors.AuthRequired("Please login to continue")
}

func errNoAddress() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "NO_ADDRESS",
		Message: "Add an Address to proceed",
		Status:  http.StatusUnprocessableEntity,
		Err:     apperrors.ErrInvalidInput,
	}
}

func errInvalidSelection() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "INVALID_ADDRESS",
		Message: "Selected address is invalid",
		Status:  http.StatusUnprocessableEntity,
		Err:     apperrors.ErrInvalidInput,
	}
}

// SelectAddress resolves the shipping address for a checkout attempt.
//
// With no override the default address wins, falling back to the first in the
// list. An override picks a specific address by id; the choice is local to
// the checkout flow and never persisted. The returned errors are distinct per
// missing precondition so each blocks checkout with its own recovery path.
func SelectAddress(profile domain.Profile, loaded bool, overrideID string) (domain.Address, error) {
	if !loaded {
		return domain.Address{}, errNotLoggedIn()
	}
	if len(profile.Addresses) == 0 {
		return domain.Address{}, errNoAddress()
	}
	if overrideID != "" {
		addr, ok := profile.AddressByID(overrideID)
		if !ok {
			return domain.Address{}, errInvalidSelection()
		}
		return addr, nil
	}
	addr, ok := profile.DefaultAddress()
	if !ok {
		addr = profile.Addresses[0]
	}
	return addr, nil
}
