// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// User represents a registered account.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `gorm:"primaryKey"`

	// Email is stored lower-cased and must be unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// Password is the bcrypt hash. Plaintext passwords are never stored.
	Password string `gorm:"size:255;not null"`

	// Name is the optional display name.
	Name *string `gorm:"size:255"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
