package models

import "time"

// User is an account as stored by the user directory. PasswordHash and
// PasswordSalt are base64 encoded.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PhoneNumber  string
	Roles        []string
	PasswordHash string
	PasswordSalt string
	CreatedAt    time.Time
}

// NewUser carries the fields needed to create an account. The password is
// already hashed by the caller.
type NewUser struct {
	Email        string
	FirstName    string
	LastName     string
	PhoneNumber  string
	PasswordHash string
	PasswordSalt string
}
