package domain

import "errors"

var (
	// ErrReauthRequired is terminal: the user must redo the consent flow.
	ErrReauthRequired = errors.New("reauthentication required")

	// ErrTokenRefreshTransient marks a refresh failure worth retrying later.
	ErrTokenRefreshTransient = errors.New("token refresh failed")

	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidUserID rejects ids that cannot be embedded in cache keys.
	ErrInvalidUserID = errors.New("invalid user id")
)
