package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultAccessTTL  = 24 * time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// AccessClaims carry identity and role for a single request window. The
// role inside an access token is a snapshot: it is trusted only for the
// token's short lifetime and re-read from the store on refresh.
type AccessClaims struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims are deliberately minimal: subject only. Username and role
// are looked up fresh when the token is redeemed, so role changes take
// effect without a re-login.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Tokens issues and verifies the two token kinds. Access and refresh
// tokens are signed with independent secrets so compromise of one cannot
// forge the other. Issuance is pure given the secrets: no store access,
// no side effects.
type Tokens struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	audience      string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// TokenOption configures Tokens.
type TokenOption func(*Tokens)

// WithTokenClock overrides the time source (useful for tests).
func WithTokenClock(fn func() time.Time) TokenOption {
	return func(t *Tokens) {
		if fn != nil {
			t.now = fn
		}
	}
}

// NewTokens validates the signing configuration up front: empty or shared
// secrets are construction errors, never a runtime fallback.
func NewTokens(accessSecret, refreshSecret, issuer, audience string, accessTTL, refreshTTL time.Duration, opts ...TokenOption) (*Tokens, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("auth: both token secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	if issuer == "" {
		return nil, errors.New("auth: token issuer is required")
	}
	if audience == "" {
		return nil, errors.New("auth: token audience is required")
	}
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	t := &Tokens{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        issuer,
		audience:      audience,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// IssueAccess signs a new access token for the user.
func (t *Tokens) IssueAccess(user *User) (string, time.Time, error) {
	now := t.now().UTC()
	exp := now.Add(t.accessTTL)
	claims := AccessClaims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// IssueRefresh signs a new refresh token for the user.
func (t *Tokens) IssueRefresh(user *User) (string, time.Time, error) {
	now := t.now().UTC()
	exp := now.Add(t.refreshTTL)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, exp, nil
}

// IssuePair issues both tokens. The caller must have stripped the password
// hash already; the issuer never inspects credentials.
func (t *Tokens) IssuePair(user *User) (TokenPair, error) {
	access, accessExp, err := t.IssueAccess(user)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := t.IssueRefresh(user)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccess checks signature, expiry, issuer, and audience against the
// access secret. It does not consult the store: liveness of the subject is
// the caller's responsibility.
func (t *Tokens) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := t.verify(token, claims, t.accessSecret); err != nil {
		return nil, err
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh checks a refresh token against the refresh secret. An
// access token presented here fails signature verification.
func (t *Tokens) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := t.verify(token, claims, t.refreshSecret); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (t *Tokens) verify(token string, claims jwt.Claims, secret []byte) error {
	if token == "" {
		return ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(tok *jwt.Token) (any, error) {
			if tok.Method != jwt.SigningMethodHS256 {
				return nil, ErrInvalidToken
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return t.now().UTC() }),
	)
	switch {
	case err == nil && parsed.Valid:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		// Distinct from malformed so callers can decide between prompting
		// a refresh and prompting a re-login.
		return ErrTokenExpired
	default:
		return ErrInvalidToken
	}
}
