package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"labelpro/auth"
)

func TestAuthJWT(t *testing.T) {
	auth.SetSecret("test-secret")
	token, err := auth.IssueToken("u1", "user", "User")
	if err != nil {
		t.Fatal(err)
	}

	var seen string
	h := AuthJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserID(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusOK && seen != "u1" {
				t.Errorf("UserID = %q, want u1", seen)
			}
		})
	}
}
