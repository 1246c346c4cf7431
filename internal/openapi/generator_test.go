package openapi

import (
	"strings"
	"testing"
)

func TestGenerateCoversSurface(t *testing.T) {
	doc := Generate("https://example.com", "1.2.3")

	if doc.Info.Version != "1.2.3" {
		t.Errorf("version = %q", doc.Info.Version)
	}
	if doc.Servers[0].URL != "https://example.com" {
		t.Errorf("server = %q", doc.Servers[0].URL)
	}

	for _, path := range []string{
		"/healthz",
		"/api/admin/registration-status",
		"/api/admin/register",
		"/api/admin/login",
		"/api/admin/logout",
		"/api/admin/verify",
		"/api/projects",
		"/api/projects/{projectID}",
		"/api/admin/projects",
		"/api/admin/projects/{projectID}",
		"/api/admin/projects/bulk-delete",
		"/api/admin/projects/bulk-publish",
		"/api/contact",
		"/api/admin/contacts",
		"/api/admin/contacts/{messageID}",
		"/api/seo/{page}",
		"/api/admin/seo/{page}",
		"/api/admin/analytics/summary",
	} {
		if doc.Paths.Value(path) == nil {
			t.Errorf("missing path %s", path)
		}
	}

	if doc.Components.SecuritySchemes["bearerAuth"] == nil {
		t.Error("missing bearerAuth scheme")
	}
	if doc.Components.SecuritySchemes["cookieAuth"] == nil {
		t.Error("missing cookieAuth scheme")
	}
	for _, schema := range []string{"Project", "ContactMessage", "PageMeta", "ErrorResponse"} {
		if doc.Components.Schemas[schema] == nil {
			t.Errorf("missing schema %s", schema)
		}
	}
}

func TestGenerateMarshalsToJSON(t *testing.T) {
	doc := Generate("", "")
	raw, err := doc.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	body := string(raw)
	if !strings.Contains(body, `"openapi":"3.1.0"`) && !strings.Contains(body, `"openapi": "3.1.0"`) {
		t.Errorf("missing openapi version in output")
	}
	if !strings.Contains(body, "/api/admin/login") {
		t.Error("login path missing from output")
	}
}

func TestGuardedOperationsDeclareSecurity(t *testing.T) {
	doc := Generate("", "")

	guarded := doc.Paths.Value("/api/admin/projects")
	if guarded == nil || guarded.Get == nil || guarded.Get.Security == nil {
		t.Fatal("admin project list has no security requirement")
	}
	public := doc.Paths.Value("/api/projects")
	if public == nil || public.Get == nil {
		t.Fatal("public project list missing")
	}
	if public.Get.Security != nil {
		t.Error("public project list should not require auth")
	}
}
