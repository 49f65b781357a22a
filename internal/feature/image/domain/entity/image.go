// Package entity defines the domain models for the image feature.
package entity

// StoredImage is the result of a successful upload.
type StoredImage struct {
	// Filename is the generated name, <uuid>.<ext>.
	Filename string
	// Path is the locator to store on a food entry: an API path for local storage, a URL for remote storage.
	Path string
	// ContentType is the sniffed or declared MIME type.
	ContentType string
	Size        int
}
