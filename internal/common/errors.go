// Package common defines shared constants and sentinel errors used across
// the repository, service and HTTP layers of VidKeeper. Callers should use
// errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	ErrorUsernameTaken = fmt.Errorf("%w: username already exists", ErrorConflict)
	ErrorEmailTaken    = fmt.Errorf("%w: email already exists", ErrorConflict)

	// Validation errors.
	ErrorValidation          = errors.New("validation error")
	ErrorVideoNotConfirmed   = fmt.Errorf("%w: video must be confirmed", ErrorValidation)
	ErrorInvalidVideoContent = fmt.Errorf("%w: video link must be between %d and %d characters long",
		ErrorValidation, MinVideoContentLength, MaxVideoContentLength)

	// Service-level errors (generic/internal flow control).
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrorForbidden       = errors.New("forbidden")

	// ErrorInvalidCredentials is returned for unknown users and for
	// wrong passwords.
	ErrorInvalidCredentials = errors.New("Invalid username or password")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
