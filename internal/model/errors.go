package model

import "errors"

var (
	// User related errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Credential/token related errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrTokenInvalid   = errors.New("token validation failed")
	ErrSigning        = errors.New("token signing failed")
	ErrRefreshNotLive = errors.New("refresh token expired or not valid")

	// Revocation store errors
	ErrTokenNotLive     = errors.New("no live refresh token for user")
	ErrStoreUnavailable = errors.New("revocation store unavailable")

	// Generic errors
	ErrBadRequest = errors.New("param is missing or invalid")
)
