// Package models defines the server-side persistence entities.
package models

import "time"

// User is a registered account. PasswordHash never leaves the server:
// it is excluded from JSON serialization.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
