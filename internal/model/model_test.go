package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAdminJSONHidesPasswordHash(t *testing.T) {
	a := Admin{ID: 1, Username: "alice", PasswordHash: "$2a$10$secret", Role: RoleAdmin}
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "secret") || strings.Contains(string(b), "password") {
		t.Errorf("password hash leaked: %s", b)
	}

	pub := a.Public()
	if _, ok := pub["password_hash"]; ok {
		t.Error("Public() exposes password hash")
	}
	if pub["username"] != "alice" {
		t.Errorf("Public() = %+v", pub)
	}
	if _, ok := pub["last_login_at"]; ok {
		t.Error("Public() includes last_login_at when never logged in")
	}
}

func TestProjectJSONUsesPublicID(t *testing.T) {
	p := Project{ID: 42, PublicID: "8f14e45f-ceea-4e47-9c6d-8d8f9a7c1b2e", Title: "X"}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["id"] != p.PublicID {
		t.Errorf("id = %v, want public id", m["id"])
	}
	if strings.Contains(string(b), "42") {
		t.Errorf("internal id leaked: %s", b)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Brand Refresh", "brand-refresh"},
		{"  Hello,  World!  ", "hello-world"},
		{"Already-Slugged", "already-slugged"},
		{"Trailing...", "trailing"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
