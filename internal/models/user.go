// Package models contains the domain structures for users, subscriptions
// and the reminder workflow, shared between the business logic and storage.
package models

import "time"

// User represents a registered account. Contact fields (Name, Email) are
// joined into reminder payloads so emails can be addressed without a second
// lookup.
type User struct {
	UID          string    // Unique user identifier
	Name         string    // Display name used in reminder emails
	Email        string    // Email address, unique
	PasswordHash string    // bcrypt hash of the password
	CreatedAt    time.Time // Registration timestamp
}

// RegisterRequest carries the registration payload before conversion to User.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest carries the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
