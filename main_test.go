package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"labelpro/auth"
	"labelpro/stores"
	"labelpro/stores/filesystem"
	"labelpro/stores/memory"
)

func TestRouter(t *testing.T) {
	auth.SetSecret("test-secret")
	token, err := auth.IssueToken("u1", "user", "User")
	if err != nil {
		t.Fatal(err)
	}

	mem := memory.NewStore()
	r := setupRouter(stores.Store{TemplateStore: mem, Revisions: mem})

	body := `{"name":"Tag","template":{"settings":{"width":200,"height":100},"objects":[]}}`
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		token  bool
		want   int
	}{
		{"health", http.MethodGet, "/healthz", "", false, http.StatusOK},
		{"no token", http.MethodGet, "/api/v2/templates", "", false, http.StatusUnauthorized},
		{"save", http.MethodPut, "/api/v2/templates/t1", body, true, http.StatusOK},
		{"list", http.MethodGet, "/api/v2/templates", "", true, http.StatusOK},
		{"revisions", http.MethodGet, "/api/v2/templates/t1/revisions", "", true, http.StatusOK},
		{"rows", http.MethodPost, "/api/v2/rows?format=csv", "a\n1\n", true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.token {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", rr.Code, tt.want, rr.Body)
			}
		})
	}
}

func TestRouter_NoRevisionRoutes(t *testing.T) {
	auth.SetSecret("test-secret")
	token, _ := auth.IssueToken("u1", "user", "User")

	fs, err := filesystem.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := setupRouter(stores.Store{TemplateStore: fs})

	req := httptest.NewRequest(http.MethodGet, "/api/v2/templates/t1/revisions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}
