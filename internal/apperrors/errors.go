package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrTokenMissing         = errors.New("token is required")
	ErrTokenInvalid         = errors.New("token is invalid")
	ErrTokenExpired         = errors.New("token is expired")
	ErrRefreshTokenMismatch = errors.New("refresh token does not match stored one")

	ErrResetTokenInvalid = errors.New("reset token is invalid or expired")

	ErrListNotFound = errors.New("task list not found")
	ErrTaskNotFound = errors.New("task not found")
)
