package models

import "time"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile is embedded display information owned exclusively by its user.
type Profile struct {
	FirstName string `gorm:"size:64" json:"first_name"`
	LastName  string `gorm:"size:64" json:"last_name"`
	Bio       string `gorm:"size:500" json:"bio"`
}

// User represents an account. Passwords are stored as bcrypt hashes only and
// never appear in API responses.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:16;default:'user'" json:"role"`
	Active       bool      `gorm:"default:true" json:"active"`
	Profile      Profile   `gorm:"embedded;embeddedPrefix:profile_" json:"profile"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Posts []Post `gorm:"foreignKey:AuthorID" json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicProfile is the projection of a user safe for public consumption.
type PublicProfile struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Profile   Profile   `json:"profile"`
	CreatedAt time.Time `json:"created_at"`
}

// Public returns the public projection of the user.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Profile:   u.Profile,
		CreatedAt: u.CreatedAt,
	}
}
