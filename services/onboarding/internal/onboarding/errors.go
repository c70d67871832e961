package onboarding

import (
	"fmt"
	"net/http"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
)

var (
	// ErrBusy is returned when a mutating call arrives while another one
	// for the same flow is still in flight.
	ErrBusy = apperrors.Conflict("please wait, your previous request is still being processed")

	// ErrStaleFlow is returned when the flow was reset while a call was in
	// flight; its result has been discarded.
	ErrStaleFlow = apperrors.Conflict("the sign-up was restarted, please try again")

	// ErrUploadInFlight blocks a profile save during a photo upload.
	ErrUploadInFlight = apperrors.Conflict("please wait for your photo to finish uploading")

	// ErrHandleLost forces a hard reset to the phone step.
	ErrHandleLost = apperrors.Provider(http.StatusBadRequest, "your verification session was lost, please request a new code", nil)

	// ErrPhoneSessionRequired is returned when a profile is saved before the
	// phone number was verified in this session.
	ErrPhoneSessionRequired = apperrors.Validation(http.StatusBadRequest, "verify your phone number to finish your profile")
)

func wrongStep(want, have domain.Step) error {
	return apperrors.Conflict(fmt.Sprintf("this action is not available at the %s step (currently at %s)", want, have))
}
