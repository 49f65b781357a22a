// Package usecase implements the business logic for the foodentry feature.
package usecase

import "errors"

var (
	// ErrMissingMacro is returned when any of protein, fats, carbs or calories is absent.
	ErrMissingMacro = errors.New("missing required fields")

	// ErrInvalidMacro is returned when a macro value is not a finite, non-negative number.
	ErrInvalidMacro = errors.New("macro values must be non-negative numbers")

	// ErrMissingImagePath is returned when imagePath is empty.
	ErrMissingImagePath = errors.New("imagePath is required")
)
