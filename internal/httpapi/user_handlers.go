package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"inkwell.org/internal/audit"
	"inkwell.org/internal/auth"
)

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.handleCreateUser(w, r)
	case http.MethodGet:
		a.handleListUsers(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.requireRole(w, r, auth.RoleAdmin)
	if !ok {
		return
	}
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	role := auth.Role("")
	if req.Role != "" {
		parsed, err := auth.ParseRole(req.Role)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		role = parsed
	}
	user, err := a.service.CreateUser(r.Context(), auth.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     role,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.user.created", map[string]any{
		"username":   user.Username,
		"role":       user.Role,
		"created_by": principal.Username,
	})
	w.Header().Set("Location", "/v1/users/"+user.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	filter, err := parseListFilter(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	page, err := a.service.ListUsers(r.Context(), filter)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleUserScoped dispatches /v1/users/{id}[...] paths.
func (a *API) handleUserScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/users/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1 && parts[0] == "stats":
		a.handleUserStats(w, r)
	case len(parts) == 1:
		a.handleGetUser(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "deactivate":
		a.handleDeactivateUser(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "reactivate":
		a.handleReactivateUser(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "role":
		a.handleSetUserRole(w, r, parts[0])
	default:
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
	}
}

// handleGetUser is gated by the owner-or-admin guard: a user may read
// their own record, admins may read anyone's.
func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, codeAuthentication, "authentication required")
		return
	}
	err := auth.AuthorizeOwnerOrRole(r.Context(), principal, auth.RoleUser, func(ctx context.Context) (string, error) {
		user, err := a.service.Profile(ctx, userID)
		if err != nil {
			return "", err
		}
		return user.ID, nil
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	user, err := a.service.Profile(r.Context(), userID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (a *API) handleDeactivateUser(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	principal, ok := a.requireRole(w, r, auth.RoleAdmin)
	if !ok {
		return
	}
	if principal.ID == userID {
		writeError(w, r, http.StatusBadRequest, codeValidation, "cannot deactivate your own account")
		return
	}
	if err := a.service.DeactivateUser(r.Context(), userID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.user.deactivated", map[string]any{
		"user_id":        userID,
		"deactivated_by": principal.Username,
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "user account deactivated successfully"})
}

func (a *API) handleReactivateUser(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	principal, ok := a.requireRole(w, r, auth.RoleAdmin)
	if !ok {
		return
	}
	if err := a.service.ReactivateUser(r.Context(), userID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.user.reactivated", map[string]any{
		"user_id":        userID,
		"reactivated_by": principal.Username,
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "user account reactivated successfully"})
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func (a *API) handleSetUserRole(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	principal, ok := a.requireRole(w, r, auth.RoleAdmin)
	if !ok {
		return
	}
	var req setRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	if err := a.service.SetUserRole(r.Context(), userID, role); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.user.role_changed", map[string]any{
		"user_id":    userID,
		"role":       role,
		"changed_by": principal.Username,
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "role updated successfully"})
}

func (a *API) handleUserStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	stats, err := a.service.Stats(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseListFilter(r *http.Request) (auth.ListFilter, error) {
	q := r.URL.Query()
	filter := auth.ListFilter{
		Search: strings.TrimSpace(q.Get("search")),
	}
	if raw := q.Get("role"); raw != "" {
		role, err := auth.ParseRole(raw)
		if err != nil {
			return auth.ListFilter{}, err
		}
		filter.Role = role
	}
	if raw := q.Get("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return auth.ListFilter{}, err
		}
		filter.IsActive = &active
	}
	var err error
	if filter.Page, err = parsePositiveInt(q.Get("page"), 1, 1, 1_000_000); err != nil {
		return auth.ListFilter{}, err
	}
	if filter.Limit, err = parsePositiveInt(q.Get("limit"), 10, 1, 100); err != nil {
		return auth.ListFilter{}, err
	}
	return filter, nil
}

func parsePositiveInt(raw string, def, min, max int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if val < min || val > max {
		return 0, strconv.ErrRange
	}
	return val, nil
}
