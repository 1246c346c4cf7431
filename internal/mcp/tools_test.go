package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/model"
)

func newTestMCP(t *testing.T) (*MCPServer, *config.Store) {
	t.Helper()
	store, err := config.NewStore(context.Background(), "sqlite", ":memory:", "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMCPServer(store, logger, "test"), store
}

func toolRequest(args map[string]interface{}) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcpgo.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcpgo.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text
}

func TestCreateAndListProjects(t *testing.T) {
	s, _ := newTestMCP(t)
	ctx := context.Background()

	res, err := s.handleCreateProject(ctx, toolRequest(map[string]interface{}{
		"title":     "Brand Refresh",
		"tags":      []string{"identity"},
		"published": true,
	}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.IsError {
		t.Fatalf("create failed: %s", resultText(t, res))
	}

	var created model.Project
	if err := json.Unmarshal([]byte(resultText(t, res)), &created); err != nil {
		t.Fatalf("unmarshal created: %v", err)
	}
	if created.Slug != "brand-refresh" || !created.Published {
		t.Errorf("created = %+v", created)
	}

	res, err = s.handleListProjects(ctx, toolRequest(nil))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(resultText(t, res), "Brand Refresh") {
		t.Errorf("list missing project: %s", resultText(t, res))
	}
}

func TestListProjectsHidesDraftsByDefault(t *testing.T) {
	s, store := newTestMCP(t)
	ctx := context.Background()

	if err := store.CreateProject(ctx, &model.Project{Title: "Draft", Slug: "draft"}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	res, err := s.handleListProjects(ctx, toolRequest(nil))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Contains(resultText(t, res), "Draft") {
		t.Error("draft leaked into default listing")
	}

	res, err = s.handleListProjects(ctx, toolRequest(map[string]interface{}{
		"include_drafts": true,
	}))
	if err != nil {
		t.Fatalf("list with drafts: %v", err)
	}
	if !strings.Contains(resultText(t, res), "Draft") {
		t.Error("include_drafts did not include the draft")
	}
}

func TestUpdateProjectPartial(t *testing.T) {
	s, store := newTestMCP(t)
	ctx := context.Background()

	p := &model.Project{Title: "Old Title", Slug: "old", Category: "web"}
	if err := store.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	res, err := s.handleUpdateProject(ctx, toolRequest(map[string]interface{}{
		"id":    p.PublicID,
		"title": "New Title",
	}))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.IsError {
		t.Fatalf("update failed: %s", resultText(t, res))
	}

	got, err := store.GetProjectByPublicID(ctx, p.PublicID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Title != "New Title" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Category != "web" {
		t.Errorf("category clobbered: %q", got.Category)
	}
}

func TestDeleteProjectUnknownID(t *testing.T) {
	s, _ := newTestMCP(t)

	res, err := s.handleDeleteProject(context.Background(), toolRequest(map[string]interface{}{
		"id": "no-such-id",
	}))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !res.IsError {
		t.Error("expected tool error for unknown id")
	}
}

func TestSiteStats(t *testing.T) {
	s, store := newTestMCP(t)
	ctx := context.Background()

	if err := store.CreateProject(ctx, &model.Project{Title: "A", Slug: "a", Published: true}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := store.CreateContact(ctx, &model.ContactMessage{Name: "J", Email: "j@x.com", Message: "hi"}); err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	res, err := s.handleSiteStats(ctx, toolRequest(nil))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var stats struct {
		Projects map[string]int64 `json:"projects"`
		Contacts map[string]int64 `json:"contacts"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &stats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if stats.Projects["published"] != 1 || stats.Contacts["unread"] != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRequireStringMissing(t *testing.T) {
	if _, err := requireString(toolRequest(nil), "id"); err == nil {
		t.Fatal("expected error for missing argument")
	}
}
