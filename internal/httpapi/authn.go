package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"inkwell.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/login",
	"/v1/auth/register",
	"/v1/auth/refresh",
	"/v1/auth/setup",
	"/v1/auth/status",
	"/v1/info",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

// withAuth authenticates bearer tokens in front of every protected route.
// The subject is re-read from the store on each request, so deactivation
// takes effect mid-session instead of waiting out the token lifetime.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="inkwell"`)
			writeError(w, r, http.StatusUnauthorized, codeAuthentication, err.Error())
			return
		}

		principal, err := a.service.Authenticate(r.Context(), token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="inkwell"`)
			handleAuthError(w, r, err)
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole gates handlers on the role hierarchy. Returns false after
// writing the error response when the request may not proceed.
func (a *API) requireRole(w http.ResponseWriter, r *http.Request, required auth.Role) (auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", `Bearer realm="inkwell"`)
		writeError(w, r, http.StatusUnauthorized, codeAuthentication, "authentication required")
		return auth.Principal{}, false
	}
	if err := auth.RequireRole(principal, required); err != nil {
		handleAuthError(w, r, err)
		return auth.Principal{}, false
	}
	return principal, true
}

// optionalPrincipal authenticates the bearer token when one is present but
// never fails the request; used by the status endpoint.
func (a *API) optionalPrincipal(r *http.Request) (auth.Principal, bool) {
	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		return auth.Principal{}, false
	}
	principal, err := a.service.Authenticate(r.Context(), token)
	if err != nil {
		return auth.Principal{}, false
	}
	return principal, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
