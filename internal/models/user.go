package models

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"firstname"`
	LastName     string `json:"lastname"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"` // don’t expose hash
}

// Roles assigned to users.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)
