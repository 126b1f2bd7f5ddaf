package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/metrics":                      "/metrics",
		"/v1/users/01HZX3":              "/v1/users/:id",
		"/v1/users/01HZX3/deactivate":   "/v1/users/:id/deactivate",
		"/v1/users/01HZX3/role":         "/v1/users/:id/role",
		"/v1/users/stats":               "/v1/users/stats",
		"/v1/auth/login":                "/v1/auth/login",
		"/v1/users?limit=10":            "/v1/users",
		"/v1/users/01HZX3?fields=email": "/v1/users/:id",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
