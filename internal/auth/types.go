package auth

import "time"

// User is a principal able to authenticate and hold a role. The password
// hash never crosses the JSON boundary.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Sanitized returns a copy safe to hand to callers: identical except the
// password hash is stripped.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

// TokenPair holds freshly issued credentials.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// UserStats summarises the user base for the admin dashboard.
type UserStats struct {
	TotalUsers    int64 `json:"total_users"`
	ActiveUsers   int64 `json:"active_users"`
	InactiveUsers int64 `json:"inactive_users"`
	AdminUsers    int64 `json:"admin_users"`
	EditorUsers   int64 `json:"editor_users"`
}
