package auth

import (
	"context"
	"errors"
)

// OwnerLookup resolves the owning principal of some resource. The core
// stays independent of what kind of resource is being protected; callers
// inject a lookup such as "given a post id, return its author id". A
// lookup must return ErrNotFound (or an empty owner) when the resource is
// absent.
type OwnerLookup func(ctx context.Context) (string, error)

// RequireRole checks the principal against a required role. It reports
// the three deny reasons distinctly: unauthenticated, unknown identity,
// and insufficient role.
func RequireRole(principal Principal, required Role) error {
	if principal.ID == "" {
		return ErrUnauthorized
	}
	if !principal.Role.Allows(required) {
		return ErrForbidden
	}
	return nil
}

// AuthorizeOwnerOrRole gates a resource behind "owner or admin". Admins
// pass regardless of ownership; everyone else must meet the required role
// and own the resource. An absent resource fails closed with ErrNotFound
// rather than silently granting access.
func AuthorizeOwnerOrRole(ctx context.Context, principal Principal, required Role, lookup OwnerLookup) error {
	if principal.ID == "" {
		return ErrUnauthorized
	}
	if principal.Role == RoleAdmin {
		return nil
	}
	if !principal.Role.Allows(required) {
		return ErrForbidden
	}
	ownerID, err := lookup(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if ownerID == "" {
		return ErrNotFound
	}
	if principal.ID != ownerID {
		return ErrForbidden
	}
	return nil
}
