package verification

import (
	"errors"
	"net/http"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
)

// Provider failures. Providers return these (possibly wrapped); anything
// else is treated as ErrProviderUnavailable by the adapter.
var (
	ErrInvalidPhoneFormat  = errors.New("invalid phone number format")
	ErrRateLimited         = errors.New("too many verification attempts")
	ErrChallengeFailed     = errors.New("verification challenge failed")
	ErrProviderUnavailable = errors.New("verification provider unavailable")
	ErrInvalidCode         = errors.New("invalid verification code")
	ErrCodeExpired         = errors.New("verification code expired")
	ErrChallengeConsumed   = errors.New("verification challenge already used")
	ErrInvalidHandle       = errors.New("verification handle missing or discarded")
	ErrTornDown            = errors.New("verification widget torn down")
)

var known = []error{
	ErrInvalidPhoneFormat,
	ErrRateLimited,
	ErrChallengeFailed,
	ErrProviderUnavailable,
	ErrInvalidCode,
	ErrCodeExpired,
	ErrChallengeConsumed,
	ErrInvalidHandle,
	ErrTornDown,
}

func isErr(err, target error) bool { return errors.Is(err, target) }

func isKnown(err error) bool {
	for _, k := range known {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// forcesTeardown reports whether err leaves the widget unusable.
func forcesTeardown(err error) bool {
	return errors.Is(err, ErrChallengeFailed) || errors.Is(err, ErrProviderUnavailable)
}

// UserError maps a verification failure onto the single notification shown
// to the user. Errors outside the verification set are returned unchanged.
func UserError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidPhoneFormat):
		return apperrors.Provider(http.StatusBadRequest, "this phone number is not valid", err)
	case errors.Is(err, ErrRateLimited):
		return &apperrors.AppError{
			Code:    apperrors.CodeProvider,
			Message: "too many attempts, please wait a moment and try again",
			Status:  http.StatusTooManyRequests,
			Err:     errors.Join(apperrors.ErrProvider, apperrors.ErrRateLimited, err),
		}
	case errors.Is(err, ErrChallengeFailed):
		return apperrors.Provider(http.StatusBadRequest, "verification failed, please try again", err)
	case errors.Is(err, ErrProviderUnavailable), errors.Is(err, ErrTornDown):
		return apperrors.Provider(http.StatusServiceUnavailable, "verification is temporarily unavailable, please try again later", err)
	case errors.Is(err, ErrInvalidCode):
		return apperrors.Provider(http.StatusBadRequest, "the code you entered is incorrect", err)
	case errors.Is(err, ErrCodeExpired):
		return apperrors.Provider(http.StatusBadRequest, "the code has expired, please request a new one", err)
	case errors.Is(err, ErrChallengeConsumed), errors.Is(err, ErrInvalidHandle):
		return apperrors.Provider(http.StatusBadRequest, "this code can no longer be used, please request a new one", err)
	}
	return err
}
