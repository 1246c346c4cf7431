package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/model"
	"github.com/atelierhq/atelier/internal/service"
)

const testSecret = "guard-test-secret"

func newGuard(t *testing.T) (*service.AuthService, func(http.Handler) http.Handler) {
	t.Helper()
	store, err := config.NewStore(context.Background(), "sqlite", ":memory:", "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	auth := service.NewAuthService(store, testSecret)
	return auth, RequireAdmin(auth)
}

func adminToken(t *testing.T, auth *service.AuthService) string {
	t.Helper()
	token, err := auth.IssueToken(&model.Admin{ID: 1, Username: "alice", Role: model.RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return token
}

// signToken builds a token outside the service, for wrong-role cases.
func signToken(t *testing.T, role string) string {
	t.Helper()
	claims := service.Claims{
		AdminID:  1,
		Username: "alice",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func guardedProbe(t *testing.T, guard func(http.Handler) http.Handler, req *http.Request) (*httptest.ResponseRecorder, *service.Claims) {
	t.Helper()
	var got *service.Claims
	h := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetClaims(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, got
}

func TestGuardRejectsMissingToken(t *testing.T) {
	_, guard := newGuard(t)
	rr, _ := guardedProbe(t, guard, httptest.NewRequest("GET", "/api/admin/verify", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestGuardRejectsInvalidToken(t *testing.T) {
	_, guard := newGuard(t)
	req := httptest.NewRequest("GET", "/api/admin/verify", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rr, _ := guardedProbe(t, guard, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestGuardRejectsExpiredToken(t *testing.T) {
	auth, guard := newGuard(t)
	expired, err := auth.IssueToken(&model.Admin{ID: 1, Username: "alice", Role: model.RoleAdmin}, -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	req := httptest.NewRequest("GET", "/api/admin/verify", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	rr, _ := guardedProbe(t, guard, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestGuardRejectsWrongRole(t *testing.T) {
	_, guard := newGuard(t)
	req := httptest.NewRequest("GET", "/api/admin/verify", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "editor"))
	rr, _ := guardedProbe(t, guard, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
}

func TestGuardAdmitsHeaderToken(t *testing.T) {
	auth, guard := newGuard(t)
	req := httptest.NewRequest("GET", "/api/admin/verify", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, auth))
	rr, claims := guardedProbe(t, guard, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if claims == nil || claims.Username != "alice" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestGuardAdmitsCookieToken(t *testing.T) {
	auth, guard := newGuard(t)
	req := httptest.NewRequest("GET", "/api/admin/verify", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: adminToken(t, auth)})
	rr, claims := guardedProbe(t, guard, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if claims == nil {
		t.Fatal("claims missing from context")
	}
}

func TestGuardAdmitsBodyToken(t *testing.T) {
	auth, guard := newGuard(t)
	token := adminToken(t, auth)
	body := `{"token":"` + token + `","note":"keep me"}`
	req := httptest.NewRequest("POST", "/api/admin/projects", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	var seen string
	h := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	// The guard must restore the body for the handler.
	if seen != body {
		t.Errorf("handler saw %q, want original body", seen)
	}
}

func TestHeaderTokenWinsOverCookie(t *testing.T) {
	auth, guard := newGuard(t)
	req := httptest.NewRequest("GET", "/api/admin/verify", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, auth))
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "stale-garbage"})
	rr, _ := guardedProbe(t, guard, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; header token should win", rr.Code)
	}
}

func TestRequestID(t *testing.T) {
	var inCtx string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inCtx = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if inCtx == "" {
		t.Fatal("no request id on context")
	}
	if rr.Header().Get(RequestIDHeader) != inCtx {
		t.Error("response header does not match context id")
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "client-supplied-id")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if inCtx != "client-supplied-id" {
		t.Errorf("client id not honored: %q", inCtx)
	}
}
