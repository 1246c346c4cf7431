package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/atelierhq/atelier/internal/analytics"
	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/model"
	"github.com/atelierhq/atelier/internal/service"
)

const (
	testJWTSecret = "test-secret-for-integration-tests"
	testPassword  = "p@ssw0rd123"
)

type testEnv struct {
	server  *Server
	store   *config.Store
	authSvc *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := config.NewStore(context.Background(), "sqlite", ":memory:", "")
	if err != nil {
		t.Fatalf("config.NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := service.NewAuthService(store, testJWTSecret)
	tracker := analytics.NewTracker(store, logger)

	cfg := DefaultConfig()
	cfg.EnableMetrics = false
	srv := New(cfg, logger, store, authSvc, tracker)

	return &testEnv{server: srv, store: store, authSvc: authSvc}
}

// registerAdmin creates the admin account through the API and returns the
// session token from the response.
func (e *testEnv) registerAdmin(t *testing.T) string {
	t.Helper()
	rr := e.do(t, "POST", "/api/admin/register", jsonBody(t, map[string]string{
		"username": "alice",
		"password": testPassword,
		"email":    "alice@example.com",
	}), nil)
	assertStatus(t, rr, http.StatusCreated)

	var resp struct {
		Token string `json:"token"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Token == "" {
		t.Fatal("registerAdmin: empty token")
	}
	return resp.Token
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) doAuth(t *testing.T, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("jsonBody: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

// ---------------------------------------------------------------------------
// System endpoints
// ---------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/healthz", nil, nil)
	assertStatus(t, rr, http.StatusOK)

	var resp map[string]string
	decodeJSON(t, rr, &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %q", resp["status"])
	}
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/readyz", nil, nil)
	assertStatus(t, rr, http.StatusOK)
}

func TestOpenAPIDocument(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/openapi.json", nil, nil)
	assertStatus(t, rr, http.StatusOK)
	body := rr.Body.String()
	for _, path := range []string{"/api/admin/login", "/api/projects", "/api/contact"} {
		if !strings.Contains(body, path) {
			t.Errorf("openapi document missing %s", path)
		}
	}
}

// ---------------------------------------------------------------------------
// First-run registration and login (the main lifecycle)
// ---------------------------------------------------------------------------

func TestFirstRunLifecycle(t *testing.T) {
	env := newTestEnv(t)

	// Fresh system: registration open, under exactly these key names.
	rr := env.do(t, "GET", "/api/admin/registration-status", nil, nil)
	assertStatus(t, rr, http.StatusOK)
	var rawStatus map[string]interface{}
	decodeJSON(t, rr, &rawStatus)
	for _, key := range []string{"adminExists", "registrationAllowed"} {
		if _, ok := rawStatus[key]; !ok {
			t.Fatalf("status body missing %q: %v", key, rawStatus)
		}
	}

	rr = env.do(t, "GET", "/api/admin/registration-status", nil, nil)
	var status struct {
		AdminExists         bool `json:"adminExists"`
		RegistrationAllowed bool `json:"registrationAllowed"`
	}
	decodeJSON(t, rr, &status)
	if status.AdminExists || !status.RegistrationAllowed {
		t.Fatalf("fresh status = %+v", status)
	}

	// Register; expect 201, a token, and the session cookie.
	rr = env.do(t, "POST", "/api/admin/register", jsonBody(t, map[string]string{
		"username": "alice",
		"password": testPassword,
		"email":    "alice@example.com",
	}), nil)
	assertStatus(t, rr, http.StatusCreated)

	var reg struct {
		Token string                 `json:"token"`
		Admin map[string]interface{} `json:"admin"`
	}
	decodeJSON(t, rr, &reg)
	if reg.Token == "" {
		t.Fatal("no token in register response")
	}
	if _, ok := reg.Admin["password_hash"]; ok {
		t.Error("register response leaks password hash")
	}

	var sessionCookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "admin_token" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("no admin_token cookie set")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie not httpOnly")
	}
	if sessionCookie.SameSite != http.SameSiteStrictMode {
		t.Error("session cookie not SameSite=Strict")
	}

	// The just-issued token works on the guarded surface.
	rr = env.doAuth(t, "GET", "/api/admin/verify", nil, reg.Token)
	assertStatus(t, rr, http.StatusOK)

	// Registration is now closed.
	rr = env.do(t, "GET", "/api/admin/registration-status", nil, nil)
	assertStatus(t, rr, http.StatusOK)
	decodeJSON(t, rr, &status)
	if !status.AdminExists || status.RegistrationAllowed {
		t.Fatalf("post-register status = %+v", status)
	}

	// A second registration conflicts.
	rr = env.do(t, "POST", "/api/admin/register", jsonBody(t, map[string]string{
		"username": "bob",
		"password": "anotherpass1",
		"email":    "bob@example.com",
	}), nil)
	assertStatus(t, rr, http.StatusConflict)

	// Login with the right password; wrong password and unknown user give
	// byte-identical 401 bodies.
	rr = env.do(t, "POST", "/api/admin/login", jsonBody(t, map[string]string{
		"username": "alice",
		"password": testPassword,
	}), nil)
	assertStatus(t, rr, http.StatusOK)

	wrongPw := env.do(t, "POST", "/api/admin/login", jsonBody(t, map[string]string{
		"username": "alice",
		"password": "wrong-password",
	}), nil)
	assertStatus(t, wrongPw, http.StatusUnauthorized)

	unknown := env.do(t, "POST", "/api/admin/login", jsonBody(t, map[string]string{
		"username": "mallory",
		"password": testPassword,
	}), nil)
	assertStatus(t, unknown, http.StatusUnauthorized)

	if wrongPw.Body.String() != unknown.Body.String() {
		t.Errorf("login failures distinguishable:\n%s\n%s", wrongPw.Body, unknown.Body)
	}

	// Logout clears the cookie.
	rr = env.do(t, "POST", "/api/admin/logout", nil, nil)
	assertStatus(t, rr, http.StatusOK)
	for _, c := range rr.Result().Cookies() {
		if c.Name == "admin_token" && c.MaxAge >= 0 {
			t.Error("logout did not expire the cookie")
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/admin/register", jsonBody(t, map[string]string{
		"username": "alice",
	}), nil)
	assertStatus(t, rr, http.StatusBadRequest)

	rr = env.do(t, "POST", "/api/admin/register", jsonBody(t, map[string]string{
		"username": "alice",
		"password": "short",
		"email":    "alice@example.com",
	}), nil)
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestGuardOnAdminSurface(t *testing.T) {
	env := newTestEnv(t)
	env.registerAdmin(t)

	// No token.
	rr := env.do(t, "GET", "/api/admin/projects", nil, nil)
	assertStatus(t, rr, http.StatusUnauthorized)

	// Expired token.
	admin, err := env.store.GetAdmin(context.Background())
	if err != nil {
		t.Fatalf("GetAdmin: %v", err)
	}
	expired, err := env.authSvc.IssueToken(admin, -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	rr = env.doAuth(t, "GET", "/api/admin/projects", nil, expired)
	assertStatus(t, rr, http.StatusUnauthorized)

	// Cookie works too.
	fresh, err := env.authSvc.IssueToken(admin, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	req := httptest.NewRequest("GET", "/api/admin/projects", nil)
	req.AddCookie(&http.Cookie{Name: "admin_token", Value: fresh})
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	assertStatus(t, rec, http.StatusOK)
}

// ---------------------------------------------------------------------------
// Portfolio management
// ---------------------------------------------------------------------------

func TestProjectLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAdmin(t)

	// Create a draft.
	rr := env.doAuth(t, "POST", "/api/admin/projects", jsonBody(t, map[string]interface{}{
		"title":       "Brand Refresh",
		"description": "Identity work",
		"category":    "branding",
		"tags":        []string{"identity"},
	}), token)
	assertStatus(t, rr, http.StatusCreated)

	var created model.Project
	decodeJSON(t, rr, &created)
	if created.PublicID == "" || created.Slug != "brand-refresh" || created.Published {
		t.Fatalf("created = %+v", created)
	}

	// Drafts are invisible publicly.
	rr = env.do(t, "GET", "/api/projects", nil, nil)
	assertStatus(t, rr, http.StatusOK)
	var pubList struct {
		Resource []model.Project `json:"resource"`
	}
	decodeJSON(t, rr, &pubList)
	if len(pubList.Resource) != 0 {
		t.Fatalf("draft visible publicly: %+v", pubList.Resource)
	}
	rr = env.do(t, "GET", "/api/projects/"+created.PublicID, nil, nil)
	assertStatus(t, rr, http.StatusNotFound)

	// But present on the admin list.
	rr = env.doAuth(t, "GET", "/api/admin/projects", nil, token)
	assertStatus(t, rr, http.StatusOK)
	var adminList struct {
		Resource []model.Project `json:"resource"`
		Meta     struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	decodeJSON(t, rr, &adminList)
	if adminList.Meta.Count != 1 {
		t.Fatalf("admin list count = %d", adminList.Meta.Count)
	}

	// Publish via update; now it is public.
	rr = env.doAuth(t, "PUT", "/api/admin/projects/"+created.PublicID, jsonBody(t, map[string]interface{}{
		"published": true,
	}), token)
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "GET", "/api/projects/"+created.PublicID, nil, nil)
	assertStatus(t, rr, http.StatusOK)
	var got model.Project
	decodeJSON(t, rr, &got)
	if got.Title != "Brand Refresh" || !got.Published {
		t.Fatalf("public get = %+v", got)
	}

	// Delete.
	rr = env.doAuth(t, "DELETE", "/api/admin/projects/"+created.PublicID, nil, token)
	assertStatus(t, rr, http.StatusOK)
	rr = env.doAuth(t, "DELETE", "/api/admin/projects/"+created.PublicID, nil, token)
	assertStatus(t, rr, http.StatusNotFound)
}

func TestProjectBulkOps(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAdmin(t)

	ids := make([]string, 0, 3)
	for _, title := range []string{"One", "Two", "Three"} {
		rr := env.doAuth(t, "POST", "/api/admin/projects", jsonBody(t, map[string]interface{}{
			"title": title,
		}), token)
		assertStatus(t, rr, http.StatusCreated)
		var p model.Project
		decodeJSON(t, rr, &p)
		ids = append(ids, p.PublicID)
	}

	rr := env.doAuth(t, "POST", "/api/admin/projects/bulk-publish", jsonBody(t, map[string]interface{}{
		"ids":       ids[:2],
		"published": true,
	}), token)
	assertStatus(t, rr, http.StatusOK)
	var published struct {
		Updated int64 `json:"updated"`
	}
	decodeJSON(t, rr, &published)
	if published.Updated != 2 {
		t.Fatalf("updated = %d, want 2", published.Updated)
	}

	rr = env.doAuth(t, "POST", "/api/admin/projects/bulk-delete", jsonBody(t, map[string]interface{}{
		"ids": ids,
	}), token)
	assertStatus(t, rr, http.StatusOK)
	var deleted struct {
		Deleted int64 `json:"deleted"`
	}
	decodeJSON(t, rr, &deleted)
	if deleted.Deleted != 3 {
		t.Fatalf("deleted = %d, want 3", deleted.Deleted)
	}

	rr = env.doAuth(t, "POST", "/api/admin/projects/bulk-delete", jsonBody(t, map[string]interface{}{
		"ids": []string{},
	}), token)
	assertStatus(t, rr, http.StatusBadRequest)
}

// ---------------------------------------------------------------------------
// Contact form and inbox
// ---------------------------------------------------------------------------

func TestContactFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAdmin(t)

	rr := env.do(t, "POST", "/api/contact", jsonBody(t, map[string]string{
		"name":    "Jordan",
		"email":   "jordan@example.com",
		"message": "We need a site.",
	}), nil)
	assertStatus(t, rr, http.StatusCreated)

	// Missing fields rejected.
	rr = env.do(t, "POST", "/api/contact", jsonBody(t, map[string]string{
		"name": "Jordan",
	}), nil)
	assertStatus(t, rr, http.StatusBadRequest)

	rr = env.doAuth(t, "GET", "/api/admin/contacts", nil, token)
	assertStatus(t, rr, http.StatusOK)
	var inbox struct {
		Resource []model.ContactMessage `json:"resource"`
		Meta     struct {
			Unread int `json:"unread"`
		} `json:"meta"`
	}
	decodeJSON(t, rr, &inbox)
	if len(inbox.Resource) != 1 || inbox.Meta.Unread != 1 {
		t.Fatalf("inbox = %+v", inbox)
	}
	id := inbox.Resource[0].ID

	rr = env.doAuth(t, "POST", "/api/admin/contacts/"+itoa(id)+"/read", nil, token)
	assertStatus(t, rr, http.StatusOK)

	rr = env.doAuth(t, "DELETE", "/api/admin/contacts/"+itoa(id), nil, token)
	assertStatus(t, rr, http.StatusOK)
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

// ---------------------------------------------------------------------------
// SEO metadata
// ---------------------------------------------------------------------------

func TestSEOFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAdmin(t)

	rr := env.do(t, "GET", "/api/seo/home", nil, nil)
	assertStatus(t, rr, http.StatusNotFound)

	rr = env.doAuth(t, "PUT", "/api/admin/seo/home", jsonBody(t, map[string]string{
		"title":       "Studio",
		"description": "A design studio",
	}), token)
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "GET", "/api/seo/home", nil, nil)
	assertStatus(t, rr, http.StatusOK)
	var meta model.PageMeta
	decodeJSON(t, rr, &meta)
	if meta.Title != "Studio" {
		t.Errorf("meta = %+v", meta)
	}

	rr = env.doAuth(t, "GET", "/api/admin/seo", nil, token)
	assertStatus(t, rr, http.StatusOK)
}

// ---------------------------------------------------------------------------
// Analytics summary
// ---------------------------------------------------------------------------

func TestAnalyticsSummary(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAdmin(t)

	// Generate a couple of public views.
	env.do(t, "GET", "/api/projects", nil, nil)
	env.do(t, "GET", "/api/projects", nil, nil)

	rr := env.doAuth(t, "GET", "/api/admin/analytics/summary", nil, token)
	assertStatus(t, rr, http.StatusOK)

	var summary struct {
		Projects struct {
			Total int64 `json:"total"`
		} `json:"projects"`
		Traffic struct {
			TotalViews int64            `json:"total_views"`
			PageViews  map[string]int64 `json:"page_views"`
		} `json:"traffic"`
	}
	decodeJSON(t, rr, &summary)
	if summary.Traffic.TotalViews < 2 {
		t.Errorf("total views = %d, want >= 2", summary.Traffic.TotalViews)
	}
	if summary.Traffic.PageViews["/api/projects"] < 2 {
		t.Errorf("page views = %+v", summary.Traffic.PageViews)
	}
}
