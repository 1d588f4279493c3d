package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndParse(t *testing.T) {
	SetSecret("test-secret")
	token, err := IssueToken("github:42", "octo", "Octo Cat")
	if err != nil {
		t.Fatalf("IssueToken() failed: %v", err)
	}

	claims, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT() failed: %v", err)
	}
	if claims.Subject != "github:42" || claims.Login != "octo" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseJWT_Rejects(t *testing.T) {
	SetSecret("test-secret")

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	})
	forged, _ := other.SignedString([]byte("wrong"))

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	stale, _ := expired.SignedString([]byte("test-secret"))

	anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, AppClaims{})
	noSubject, _ := anonymous.SignedString([]byte("test-secret"))

	for name, token := range map[string]string{
		"garbage":    "not.a.token",
		"forged":     forged,
		"expired":    stale,
		"no subject": noSubject,
	} {
		if _, err := ParseJWT(token); err == nil {
			t.Errorf("ParseJWT(%s) succeeded", name)
		}
	}
}

func TestNoSecret(t *testing.T) {
	SetSecret("")
	if _, err := IssueToken("u1", "", ""); err == nil {
		t.Error("IssueToken() without secret succeeded")
	}
	if _, err := ParseJWT("x.y.z"); err == nil {
		t.Error("ParseJWT() without secret succeeded")
	}
}
