package models

// User is an account row. Role is a free-form category used for
// authorization outside the credential core.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"` // don’t expose hash
}
