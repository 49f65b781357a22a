// Package usecase implements the business logic for the auth feature.
package usecase

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be found by email or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when attempting to create a user with an email that already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned for any login failure, whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrWeakPassword is returned when the password is shorter than the minimum length.
	ErrWeakPassword = errors.New("password too short")

	// ErrPasswordTooLong is returned when the password exceeds the 72 bytes bcrypt can hash.
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

	// ErrInvalidEmail is returned when the email is empty after normalization.
	ErrInvalidEmail = errors.New("invalid email")
)
