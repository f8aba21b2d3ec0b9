package auth

import "errors"

var (
	// ErrDuplicateUser is returned when registering a username that
	// already has an account.
	ErrDuplicateUser = errors.New("username already registered")

	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords so login failures do not reveal which one happened.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNotAuthenticated means there is no usable session. It is a
	// recoverable outcome: HTTP callers answer it with a redirect to
	// the login page, not an error response.
	ErrNotAuthenticated = errors.New("not authenticated")
)
