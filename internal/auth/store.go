package auth

import (
	"context"
	"time"
)

// ListFilter narrows and paginates user listings.
type ListFilter struct {
	Role     Role
	IsActive *bool
	Search   string
	Page     int
	Limit    int
}

// UserStore describes persistence required by the auth core. The store is
// expected to enforce unique indexes on username and email; concurrent
// registrations of the same identity are resolved there and surface as
// ErrConflict to whichever request loses the race.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	ByID(ctx context.Context, id string) (*User, error)
	ByUsername(ctx context.Context, username string) (*User, error)
	// ByUsernameOrEmail performs the combined uniqueness lookup used at
	// registration so two sequential checks don't widen the race window.
	ByUsernameOrEmail(ctx context.Context, username, email string) (*User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetActive(ctx context.Context, id string, active bool) error
	SetRole(ctx context.Context, id string, role Role) error
	List(ctx context.Context, filter ListFilter) ([]*User, int64, error)
	CountByRole(ctx context.Context, role Role) (int64, error)
}
