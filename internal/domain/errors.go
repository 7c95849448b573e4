package domain

import "errors"

// Authentication errors. Bad credentials, revoked/expired/unknown refresh
// tokens and missing users all collapse into the same caller-visible failure
// so a response never reveals which check rejected the request.
var (
	ErrInvalidRequest     = errors.New("missing required fields")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionRevoked     = errors.New("refresh session revoked or not found")
	ErrEmailExists        = errors.New("email already registered")
)

// Verification errors
var (
	ErrInvalidCode  = errors.New("invalid verification code")
	ErrCodeExpired  = errors.New("verification code expired")
	ErrUserNotFound = errors.New("user not found")
)
