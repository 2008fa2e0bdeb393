// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// The username IS the primary key (users.user_id). There is no separate
// surrogate id: journal entries and plan records reference the username
// directly, and the session stores it as the logged-in identifier.
//
// WHY PasswordHash AND NOT Password?
// The column only ever holds a bcrypt hash. Naming the field after what it
// contains makes it harder to accidentally write plaintext into it.
//
// ProfilePicture is nil until the user uploads one from /account.
// GitHubID is nil for accounts created through the registration form.
type User struct {
	ID             string    `json:"userId"    db:"user_id"`
	PasswordHash   string    `json:"-"         db:"password"`
	ProfilePicture []byte    `json:"-"         db:"profile_picture"`
	GitHubID       *int64    `json:"githubId"  db:"github_id"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
