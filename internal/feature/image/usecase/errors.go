// Package usecase implements image upload and retrieval.
package usecase

import "errors"

var (
	// ErrInvalidFileType is returned when the declared content type is not image/*.
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrEmptyImage is returned for a zero-byte upload.
	ErrEmptyImage = errors.New("no file uploaded")

	// ErrImageTooLarge is returned when the upload exceeds the configured limit.
	ErrImageTooLarge = errors.New("image too large")

	// ErrStorageFailure wraps any error from the storage backend.
	ErrStorageFailure = errors.New("failed to store image")

	// ErrInvalidFilename is returned when a requested filename fails the allow-list.
	ErrInvalidFilename = errors.New("invalid filename")

	// ErrImageNotFound is returned when the requested image does not exist.
	ErrImageNotFound = errors.New("image not found")
)
