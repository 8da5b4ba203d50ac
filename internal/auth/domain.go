package auth

import "time"

// User represents an identity record. Created on first successful
// sign-in, registration, or seed; profile fields are synced from the
// provider on later OAuth sign-ins and otherwise never mutated.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Image         string     `json:"image,omitempty"`
	PasswordHash  string     `json:"-"`
	EmailVerified *time.Time `json:"emailVerified,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Identity is a verified identity returned by a provider or a local
// credential check: the subject id plus basic profile claims.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Image   string
}
