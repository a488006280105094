package domain

import "github.com/google/uuid"

// User is a registered account. PasswordHash never leaves the service.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
}

// Credentials carries a username/password pair from registration or login.
type Credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}
