package auth

import (
	"fmt"
	"strings"
)

// Role is a closed, totally ordered set. Higher levels subsume lower ones.
type Role string

const (
	// RoleUser is the floor of the hierarchy. No creation path assigns it
	// today; it is kept as the minimum bar for "any authenticated user".
	RoleUser Role = "user"

	// RoleEditor is the default role granted at registration.
	RoleEditor Role = "editor"

	// RoleAdmin overrides every role and ownership check.
	RoleAdmin Role = "admin"
)

var roleLevels = map[Role]int{
	RoleUser:   1,
	RoleEditor: 2,
	RoleAdmin:  3,
}

// ParseRole validates a role string against the closed set. Invalid roles
// are rejected at the boundary instead of silently mapping to level zero.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.TrimSpace(strings.ToLower(raw)))
	if _, ok := roleLevels[role]; !ok {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
	return role, nil
}

// Level returns the role's position in the hierarchy. Unknown or empty
// roles map to zero and therefore fail every permission check.
func (r Role) Level() int {
	return roleLevels[r]
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Allows reports whether a principal holding this role meets the required
// role. An empty requirement defaults to RoleUser: being authenticated is
// the minimum bar when no explicit role is named.
func (r Role) Allows(required Role) bool {
	if required == "" {
		required = RoleUser
	}
	return r.Level() >= required.Level()
}
