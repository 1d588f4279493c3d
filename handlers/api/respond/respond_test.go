package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"labelpro/auth"
	"labelpro/core"
	"labelpro/middleware"
)

func TestFail(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", core.NewValidationError("name", "is required"), http.StatusBadRequest},
		{"shape", &core.DataShapeError{Reason: "no rows"}, http.StatusBadRequest},
		{"missing binding", &core.MissingBindingError{Fields: []string{"sku"}}, http.StatusBadRequest},
		{"not found", fmt.Errorf("template t1: %w", core.ErrNotFound), http.StatusNotFound},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			Fail(rr, req, tt.err, "Failed", nil)
			if rr.Code != tt.code {
				t.Errorf("status = %d, want %d", rr.Code, tt.code)
			}
			var body map[string]any
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] == "" {
				t.Error("body has no error message")
			}
		})
	}
}

func TestFail_ListsMissingFields(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	Fail(rr, req, &core.MissingBindingError{Fields: []string{"sku", "price"}}, "Failed", nil)

	var body struct {
		Fields []string `json:"fields"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Fields) != 2 || body.Fields[0] != "sku" {
		t.Errorf("fields = %v", body.Fields)
	}
}

func TestUserID(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := UserID(rr, req); ok || rr.Code != http.StatusUnauthorized {
		t.Errorf("UserID() without claims: ok=%v status=%d", ok, rr.Code)
	}

	claims := &auth.AppClaims{}
	claims.Subject = "u1"
	req = req.WithContext(middleware.WithClaims(req.Context(), claims))
	if id, ok := UserID(httptest.NewRecorder(), req); !ok || id != "u1" {
		t.Errorf("UserID() = %q, %v", id, ok)
	}
}
