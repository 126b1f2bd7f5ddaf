package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service orchestrates the session lifecycle: registration, login, token
// refresh, and the account operations behind the admin surface. It holds
// no mutable state of its own; everything shared lives in the store.
type Service struct {
	store      UserStore
	tokens     *Tokens
	now        func() time.Time
	bcryptCost int

	defaultAdminUsername string
	defaultAdminEmail    string
	defaultAdminPassword string
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) {
		if cost > 0 {
			s.bcryptCost = cost
		}
	}
}

// WithDefaultAdmin configures the bootstrap admin created by EnsureDefaultAdmin.
func WithDefaultAdmin(username, email, password string) ServiceOption {
	return func(s *Service) {
		s.defaultAdminUsername = username
		s.defaultAdminEmail = email
		s.defaultAdminPassword = password
	}
}

// NewService constructs the session lifecycle service.
func NewService(store UserStore, tokens *Tokens, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: user store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token issuer is required")
	}
	s := &Service{
		store:      store,
		tokens:     tokens,
		now:        time.Now,
		bcryptCost: 12,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegisterInput is the self-service registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Name = strings.TrimSpace(in.Name)
}

func (in RegisterInput) validate() error {
	if err := ValidateUsername(in.Username); err != nil {
		return err
	}
	if err := ValidateEmail(in.Email); err != nil {
		return err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return err
	}
	return ValidateName(in.Name)
}

// Register creates a new editor account. Self-service registration never
// grants admin. The combined username/email lookup keeps the duplicate
// check to a single read; the store's unique indexes close the remaining
// race, surfacing ErrConflict to whichever request loses.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	if _, err := s.store.ByUsernameOrEmail(ctx, in.Username, in.Email); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("registration lookup: %w", err)
	}

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Username:     in.Username,
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         RoleEditor,
		IsActive:     true,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// LoginResult carries the authenticated user and freshly issued tokens.
type LoginResult struct {
	User   *User
	Tokens TokenPair
}

// Login authenticates by username only. Unknown usernames and wrong
// passwords are indistinguishable to the caller; a deactivated account is
// a distinct failure because the credentials were not the problem.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login lookup: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Best effort: a lost last-login update on concurrent logins must not
	// fail the login itself.
	now := s.now().UTC()
	if err := s.store.UpdateLastLogin(ctx, user.ID, now); err == nil {
		user.LastLogin = &now
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}
	sanitized := user.Sanitized()
	return &LoginResult{User: &sanitized, Tokens: pair}, nil
}

// RefreshResult carries the new access token and the live user snapshot.
type RefreshResult struct {
	User            *User
	AccessToken     string
	AccessExpiresAt time.Time
}

// Refresh redeems a refresh token for a new access token. The subject is
// re-read from the store so deactivation and role changes propagate
// immediately; the refresh token itself is never rotated or extended.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.store.ByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("refresh lookup: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidRefreshToken
	}

	access, exp, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}
	sanitized := user.Sanitized()
	return &RefreshResult{User: &sanitized, AccessToken: access, AccessExpiresAt: exp}, nil
}

// Authenticate validates a bearer access token and re-reads the subject
// from the store so deactivated accounts are rejected even while holding
// an unexpired token. The returned principal carries the live role, not
// the token's snapshot.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := s.tokens.VerifyAccess(token)
	if err != nil {
		return Principal{}, err
	}
	user, err := s.store.ByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrInvalidToken
		}
		return Principal{}, fmt.Errorf("authenticate lookup: %w", err)
	}
	if !user.IsActive {
		return Principal{}, ErrAccountDisabled
	}
	return Principal{ID: user.ID, Username: user.Username, Role: user.Role}, nil
}

// VerifyUser confirms the subject of a validated access token still exists
// and is active, returning the live record.
func (s *Service) VerifyUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.store.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// Profile returns the full (sanitized) record for the given user.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	user, err := s.store.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// ChangePassword requires proof of the current password before accepting
// the new one. Existing tokens stay valid until natural expiry; their
// blast radius is bounded by the short access-token lifetime.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	user, err := s.store.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := VerifyPassword(user.PasswordHash, currentPassword); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.UpdatePassword(ctx, user.ID, hash)
}

// CreateUserInput is the admin-driven account creation request.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Name     string
	Role     Role
}

// CreateUser creates an account with an explicit role. Unlike Register it
// may grant admin; only admins reach this path.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	reg := RegisterInput{Username: in.Username, Email: in.Email, Password: in.Password, Name: in.Name}
	reg.normalize()
	if err := reg.validate(); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = RoleAdmin
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}

	if _, err := s.store.ByUsernameOrEmail(ctx, reg.Username, reg.Email); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("create user lookup: %w", err)
	}

	hash, err := HashPassword(reg.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &User{
		Username:     reg.Username,
		Email:        reg.Email,
		Name:         reg.Name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// DeactivateUser marks an account inactive. The core never hard-deletes
// principals; deactivation is reversible via ReactivateUser.
func (s *Service) DeactivateUser(ctx context.Context, userID string) error {
	return s.store.SetActive(ctx, userID, false)
}

// ReactivateUser re-enables a deactivated account.
func (s *Service) ReactivateUser(ctx context.Context, userID string) error {
	return s.store.SetActive(ctx, userID, true)
}

// SetUserRole changes an account's role. Takes effect on the next login or
// refresh; outstanding access tokens carry the old role until expiry.
func (s *Service) SetUserRole(ctx context.Context, userID string, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	return s.store.SetRole(ctx, userID, role)
}

// UserPage is a paginated listing.
type UserPage struct {
	Users      []*User `json:"users"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalUsers int64   `json:"total_users"`
	TotalPages int64   `json:"total_pages"`
}

// ListUsers returns a filtered, paginated user listing.
func (s *Service) ListUsers(ctx context.Context, filter ListFilter) (*UserPage, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, filter.Role)
	}
	users, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	page, limit := normalizePage(filter.Page, filter.Limit)
	sanitized := make([]*User, 0, len(users))
	for _, u := range users {
		su := u.Sanitized()
		sanitized = append(sanitized, &su)
	}
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return &UserPage{
		Users:      sanitized,
		Page:       page,
		Limit:      limit,
		TotalUsers: total,
		TotalPages: totalPages,
	}, nil
}

// Stats summarises the user base.
func (s *Service) Stats(ctx context.Context) (*UserStats, error) {
	_, total, err := s.store.List(ctx, ListFilter{Limit: 1})
	if err != nil {
		return nil, err
	}
	active := true
	_, activeTotal, err := s.store.List(ctx, ListFilter{IsActive: &active, Limit: 1})
	if err != nil {
		return nil, err
	}
	admins, err := s.store.CountByRole(ctx, RoleAdmin)
	if err != nil {
		return nil, err
	}
	editors, err := s.store.CountByRole(ctx, RoleEditor)
	if err != nil {
		return nil, err
	}
	return &UserStats{
		TotalUsers:    total,
		ActiveUsers:   activeTotal,
		InactiveUsers: total - activeTotal,
		AdminUsers:    admins,
		EditorUsers:   editors,
	}, nil
}

// EnsureDefaultAdmin creates the bootstrap admin when no admin exists.
// It reports whether an account was created.
func (s *Service) EnsureDefaultAdmin(ctx context.Context) (bool, error) {
	if s.defaultAdminUsername == "" || s.defaultAdminPassword == "" {
		return false, errors.New("auth: default admin is not configured")
	}
	count, err := s.store.CountByRole(ctx, RoleAdmin)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	_, err = s.CreateUser(ctx, CreateUserInput{
		Username: s.defaultAdminUsername,
		Email:    s.defaultAdminEmail,
		Password: s.defaultAdminPassword,
		Name:     "Administrator",
		Role:     RoleAdmin,
	})
	if err != nil {
		// A concurrent setup call may have won the race.
		if errors.Is(err, ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Tokens exposes the token issuer for the HTTP boundary (cookie TTLs).
func (s *Service) Tokens() *Tokens {
	return s.tokens
}
