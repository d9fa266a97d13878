package shared

import "errors"

var (
	ErrNotImplemented = errors.New("not implemented")

	// Configuration errors
	ErrMissingConfig = errors.New("configuration not found")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Authentication errors
	ErrNotAuthenticated   = errors.New("sign in required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAuthFailed         = errors.New("authentication failed")
	ErrTokenExpired       = errors.New("session expired")
	ErrForbidden          = errors.New("not allowed")
	ErrEmailTaken         = errors.New("email already registered")

	// Lookup errors
	ErrBandNotFound    = errors.New("band not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrCacheMiss       = errors.New("cache miss")

	// Service errors
	ErrServiceUnavailable = errors.New("service unavailable")

	// Input validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingArgument = errors.New("missing required argument")
	ErrInvalidArgument = errors.New("invalid argument")
)
