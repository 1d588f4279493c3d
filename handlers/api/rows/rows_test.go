package rows

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"labelpro/auth"
	"labelpro/middleware"
)

func authed(req *http.Request) *http.Request {
	claims := &auth.AppClaims{}
	claims.Subject = "u1"
	return req.WithContext(middleware.WithClaims(req.Context(), claims))
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) ParseResponse {
	t.Helper()
	var resp ParseResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %s: %v", rr.Body, err)
	}
	return resp
}

func TestParseRows_RawBody(t *testing.T) {
	req := authed(httptest.NewRequest(http.MethodPost, "/rows?format=csv", strings.NewReader("name,sku\nTea,1\nCoffee,2\n")))
	rr := httptest.NewRecorder()
	HandleParseRows()(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	resp := decode(t, rr)
	if resp.Count != 2 || resp.Rows[1]["name"] != "Coffee" {
		t.Errorf("resp = %+v", resp)
	}
	if strings.Join(resp.Columns, ",") != "name,sku" {
		t.Errorf("columns = %v", resp.Columns)
	}
}

func TestParseRows_Multipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "items.json")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(`[{"name":"Tea","price":2.5}]`))
	mw.Close()

	req := authed(httptest.NewRequest(http.MethodPost, "/rows", &body))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	HandleParseRows()(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	if resp := decode(t, rr); resp.Rows[0]["price"] != "2.5" {
		t.Errorf("price = %q", resp.Rows[0]["price"])
	}
}

func TestParseRows_Errors(t *testing.T) {
	tests := []struct {
		name string
		url  string
		body string
		want int
	}{
		{"unknown format", "/rows?format=pdf", "x", http.StatusBadRequest},
		{"header only", "/rows?format=csv", "name,sku\n", http.StatusBadRequest},
		{"not an array", "/rows?format=json", `{"name":"x"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authed(httptest.NewRequest(http.MethodPost, tt.url, strings.NewReader(tt.body)))
			rr := httptest.NewRecorder()
			HandleParseRows()(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}
