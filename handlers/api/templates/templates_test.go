package templates

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"labelpro/auth"
	"labelpro/canvas"
	"labelpro/library"
	"labelpro/middleware"
	"labelpro/stores/memory"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"
)

func withUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &auth.AppClaims{}
			claims.Subject = userID
			next.ServeHTTP(w, r.WithContext(middleware.WithClaims(r.Context(), claims)))
		})
	}
}

func newRouter(store *memory.Store) http.Handler {
	svc := library.NewService(store, store)
	r := chi.NewRouter()
	r.Use(withUser("u1"))
	r.Get("/templates", HandleListTemplates(store))
	r.Get("/templates/{id}", HandleGetTemplate(store))
	r.Put("/templates/{id}", HandleSaveTemplate(svc))
	r.Delete("/templates/{id}", HandleDeleteTemplate(store))
	r.Post("/templates/{id}/layout", HandleLayout(svc))
	r.Get("/templates/{id}/sample.xlsx", HandleSampleSheet(svc))
	return r
}

func templateBody(t *testing.T) []byte {
	t.Helper()
	name := canvas.NewText()
	name.ID = "name"
	name.DataKey = "name"
	sku := canvas.NewBarcode("")
	sku.ID = "sku"
	sku.DataKey = "sku"
	body, err := json.Marshal(map[string]any{
		"name": "Shelf tag",
		"template": canvas.Template{
			Settings: canvas.DefaultSettings(),
			Objects:  []canvas.Object{name, sku},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func do(h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestTemplateLifecycle(t *testing.T) {
	store := memory.NewStore()
	h := newRouter(store)

	rr := do(h, http.MethodPut, "/templates/t1", templateBody(t))
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", rr.Code, rr.Body)
	}

	rr = do(h, http.MethodGet, "/templates/t1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rr.Code)
	}
	var got struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		Template canvas.Template `json:"template"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "t1" || got.Name != "Shelf tag" || len(got.Template.Objects) != 2 {
		t.Errorf("GET = %+v", got)
	}
	if strings.Contains(rr.Body.String(), `"data"`) {
		t.Error("GET response carries base64 data")
	}

	rr = do(h, http.MethodGet, "/templates", nil)
	var list []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("list = %s, err = %v", rr.Body, err)
	}

	if rr = do(h, http.MethodDelete, "/templates/t1", nil); rr.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d", rr.Code)
	}
	if rr = do(h, http.MethodGet, "/templates/t1", nil); rr.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d", rr.Code)
	}
	if rr = do(h, http.MethodDelete, "/templates/t1", nil); rr.Code != http.StatusNotFound {
		t.Errorf("second DELETE status = %d", rr.Code)
	}
}

func TestListTemplates_Empty(t *testing.T) {
	rr := do(newRouter(memory.NewStore()), http.MethodGet, "/templates", nil)
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("body = %s, want []", rr.Body)
	}
}

func TestSaveTemplate_Rejects(t *testing.T) {
	h := newRouter(memory.NewStore())

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"no name", `{"template":{"settings":{"width":100,"height":50},"objects":[]}}`},
		{"bad settings", `{"name":"x","template":{"settings":{"width":0,"height":50},"objects":[]}}`},
		{"remote preview", `{"name":"x","preview":"https://example.com/a.png","template":{"settings":{"width":100,"height":50},"objects":[]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(h, http.MethodPut, "/templates/t1", []byte(tt.body))
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, body = %s", rr.Code, rr.Body)
			}
		})
	}
}

func TestLayout(t *testing.T) {
	h := newRouter(memory.NewStore())
	if rr := do(h, http.MethodPut, "/templates/t1", templateBody(t)); rr.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", rr.Code)
	}

	body := `{"rows":[{"Name":"a","SKU":"1"},{"Name":"b","SKU":"2"},{"Name":"c","SKU":"3"},{"Name":"d","SKU":"4"},{"Name":"e","SKU":"5"}]}`
	rr := do(h, http.MethodPost, "/templates/t1/layout", []byte(body))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	var got struct {
		Labels        int               `json:"labels"`
		LabelsPerPage int               `json:"labelsPerPage"`
		Mapping       map[string]string `json:"mapping"`
		Pages         []json.RawMessage `json:"pages"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Labels != 5 {
		t.Errorf("labels = %d, want 5", got.Labels)
	}
	wantPages := (5 + got.LabelsPerPage - 1) / got.LabelsPerPage
	if len(got.Pages) != wantPages {
		t.Errorf("pages = %d, want %d", len(got.Pages), wantPages)
	}
	if got.Mapping["sku"] != "SKU" {
		t.Errorf("mapping = %v", got.Mapping)
	}
}

func TestLayout_MissingBinding(t *testing.T) {
	h := newRouter(memory.NewStore())
	do(h, http.MethodPut, "/templates/t1", templateBody(t))

	rr := do(h, http.MethodPost, "/templates/t1/layout", []byte(`{"rows":[{"name":"a"}],"requireAll":true}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	var got struct {
		Fields []string `json:"fields"`
	}
	json.Unmarshal(rr.Body.Bytes(), &got)
	if len(got.Fields) != 1 || got.Fields[0] != "sku" {
		t.Errorf("fields = %v", got.Fields)
	}

	if rr := do(h, http.MethodPost, "/templates/t1/layout", []byte(`{"rows":[]}`)); rr.Code != http.StatusBadRequest {
		t.Errorf("empty rows status = %d", rr.Code)
	}
}

func TestSampleSheet(t *testing.T) {
	h := newRouter(memory.NewStore())
	do(h, http.MethodPut, "/templates/t1", templateBody(t))

	rr := do(h, http.MethodGet, "/templates/t1/sample.xlsx", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	f, err := excelize.OpenReader(rr.Body)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sheet, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(sheet) != 1 || strings.Join(sheet[0], ",") != "name,sku" {
		t.Errorf("sheet = %v", sheet)
	}
}

func TestUnauthenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background())
	rr := httptest.NewRecorder()
	HandleListTemplates(memory.NewStore())(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rr.Code)
	}
}
