package httpapi

import (
	"errors"
	"net/http"
	"time"

	"inkwell.org/internal/audit"
	"inkwell.org/internal/auth"
	"inkwell.org/internal/obs"
)

// refreshCookieName is scoped to the auth endpoints so the refresh token
// never rides along on ordinary API calls.
const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/v1/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User            *auth.User `json:"user"`
	AccessToken     string     `json:"access_token"`
	AccessExpiresAt time.Time  `json:"access_expires_at"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	result, err := a.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		obs.ObserveLogin(loginMetricResult(err))
		_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{
			"username": req.Username,
		})
		handleAuthError(w, r, err)
		return
	}
	obs.ObserveLogin("success")

	a.setRefreshCookie(w, result.Tokens.RefreshToken, result.Tokens.RefreshExpiresAt)
	_ = audit.LogEvent(r.Context(), "auth.login.succeeded", map[string]any{
		"username": result.User.Username,
		"role":     result.User.Role,
	})
	writeJSON(w, http.StatusOK, loginResponse{
		User:            result.User,
		AccessToken:     result.Tokens.AccessToken,
		AccessExpiresAt: result.Tokens.AccessExpiresAt,
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	user, err := a.service.Register(r.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	obs.ObserveRegistration()
	_ = audit.LogEvent(r.Context(), "auth.user.registered", map[string]any{
		"username": user.Username,
		"email":    user.Email,
	})
	// No tokens at registration; the caller logs in separately.
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	// Cookie first; JSON body as fallback for non-browser clients.
	token := ""
	if c, err := r.Cookie(refreshCookieName); err == nil {
		token = c.Value
	}
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		writeError(w, r, http.StatusUnauthorized, codeAuthentication, "refresh token is required")
		return
	}

	result, err := a.service.Refresh(r.Context(), token)
	if err != nil {
		obs.ObserveRefresh("invalid")
		handleAuthError(w, r, err)
		return
	}
	obs.ObserveRefresh("success")
	_ = audit.LogEvent(r.Context(), "auth.token.refreshed", map[string]any{
		"username": result.User.Username,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"user":              result.User,
		"access_token":      result.AccessToken,
		"access_expires_at": result.AccessExpiresAt,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := a.requireRole(w, r, auth.RoleUser)
	if !ok {
		return
	}
	// No server-side denylist: an already-issued access token stays valid
	// until its natural expiry. The short access TTL bounds the exposure.
	a.clearRefreshCookie(w)
	_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{
		"username": principal.Username,
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "logout successful"})
}

func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := a.requireRole(w, r, auth.RoleUser)
	if !ok {
		return
	}
	user, err := a.service.VerifyUser(r.Context(), principal.ID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := a.requireRole(w, r, auth.RoleUser)
	if !ok {
		return
	}
	user, err := a.service.Profile(r.Context(), principal.ID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	principal, ok := a.requireRole(w, r, auth.RoleUser)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if err := a.service.ChangePassword(r.Context(), principal.ID, req.CurrentPassword, req.NewPassword); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.password.changed", map[string]any{
		"username": principal.Username,
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "password changed successfully"})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, authenticated := a.optionalPrincipal(r)
	payload := map[string]any{
		"is_authenticated": authenticated,
		"user":             nil,
	}
	if authenticated {
		payload["user"] = map[string]any{
			"id":       principal.ID,
			"username": principal.Username,
			"role":     principal.Role,
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleSetup creates the bootstrap admin. It only acts when no admin
// exists, so leaving it public matches the original deployment story.
func (a *API) handleSetup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	created, err := a.service.EnsureDefaultAdmin(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	msg := "admin user already exists"
	if created {
		msg = "default admin user created"
		_ = audit.LogEvent(r.Context(), "auth.setup.admin_created", nil)
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg})
}

func (a *API) setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   a.opts.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (a *API) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.opts.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func loginMetricResult(err error) string {
	if errors.Is(err, auth.ErrAccountDisabled) {
		return "disabled"
	}
	return "invalid"
}
