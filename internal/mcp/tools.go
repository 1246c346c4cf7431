package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/model"
)

// registerTools registers all site management tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	srv.AddTool(
		mcp.NewTool("atelier_list_projects",
			mcp.WithDescription(
				"List portfolio projects with their titles, slugs, categories, tags and "+
					"publish state. By default only published projects are returned; set "+
					"include_drafts to see everything.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithBoolean("include_drafts",
				mcp.Description("Include unpublished projects"),
			),
		),
		s.handleListProjects,
	)

	srv.AddTool(
		mcp.NewTool("atelier_get_project",
			mcp.WithDescription("Get the full record for one project by its id."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Project id (UUID)"),
			),
		),
		s.handleGetProject,
	)

	srv.AddTool(
		mcp.NewTool("atelier_create_project",
			mcp.WithDescription(
				"Create a portfolio project. Only title is required; the slug defaults "+
					"to a hyphenated form of the title and the project starts unpublished "+
					"unless published is set.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("title", mcp.Required(), mcp.Description("Project title")),
			mcp.WithString("slug", mcp.Description("URL slug; derived from title when omitted")),
			mcp.WithString("description", mcp.Description("Project description")),
			mcp.WithString("category", mcp.Description("Category label")),
			mcp.WithArray("tags", mcp.Description("Tag list")),
			mcp.WithString("image_url", mcp.Description("Cover image URL")),
			mcp.WithString("live_url", mcp.Description("Live site URL")),
			mcp.WithBoolean("featured", mcp.Description("Feature on the homepage")),
			mcp.WithBoolean("published", mcp.Description("Publish immediately")),
			mcp.WithNumber("sort_order", mcp.Description("Display position, lower first")),
		),
		s.handleCreateProject,
	)

	srv.AddTool(
		mcp.NewTool("atelier_update_project",
			mcp.WithDescription(
				"Update fields on an existing project. Omitted fields keep their "+
					"stored values.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("id", mcp.Required(), mcp.Description("Project id (UUID)")),
			mcp.WithString("title", mcp.Description("Project title")),
			mcp.WithString("slug", mcp.Description("URL slug")),
			mcp.WithString("description", mcp.Description("Project description")),
			mcp.WithString("category", mcp.Description("Category label")),
			mcp.WithArray("tags", mcp.Description("Tag list, replaces the stored set")),
			mcp.WithString("image_url", mcp.Description("Cover image URL")),
			mcp.WithString("live_url", mcp.Description("Live site URL")),
			mcp.WithBoolean("featured", mcp.Description("Feature on the homepage")),
			mcp.WithBoolean("published", mcp.Description("Publish state")),
			mcp.WithNumber("sort_order", mcp.Description("Display position, lower first")),
		),
		s.handleUpdateProject,
	)

	srv.AddTool(
		mcp.NewTool("atelier_delete_project",
			mcp.WithDescription("Delete one project by its id."),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("id", mcp.Required(), mcp.Description("Project id (UUID)")),
		),
		s.handleDeleteProject,
	)

	srv.AddTool(
		mcp.NewTool("atelier_list_contacts",
			mcp.WithDescription(
				"List contact form submissions, newest first, with read flags.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListContacts,
	)

	srv.AddTool(
		mcp.NewTool("atelier_site_stats",
			mcp.WithDescription(
				"Summarize site content: project and draft counts plus inbox totals.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleSiteStats,
	)
}

func (s *MCPServer) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	includeDrafts := optionalBool(request, "include_drafts", false)
	projects, err := s.store.ListProjects(ctx, !includeDrafts)
	if err != nil {
		return toolError("failed to list projects: %v", err)
	}
	return successJSON(map[string]interface{}{
		"count":    len(projects),
		"projects": projects,
	})
}

func (s *MCPServer) handleGetProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(request, "id")
	if err != nil {
		return toolError("%v", err)
	}
	project, err := s.store.GetProjectByPublicID(ctx, id)
	if errors.Is(err, config.ErrNotFound) {
		return toolError("no project with id %q", id)
	}
	if err != nil {
		return toolError("failed to load project: %v", err)
	}
	return successJSON(project)
}

func (s *MCPServer) handleCreateProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := requireString(request, "title")
	if err != nil {
		return toolError("%v", err)
	}
	project := &model.Project{
		Title:       title,
		Slug:        optionalString(request, "slug"),
		Description: optionalString(request, "description"),
		Category:    optionalString(request, "category"),
		Tags:        optionalStringSlice(request, "tags"),
		ImageURL:    optionalString(request, "image_url"),
		LiveURL:     optionalString(request, "live_url"),
		Featured:    optionalBool(request, "featured", false),
		Published:   optionalBool(request, "published", false),
		SortOrder:   optionalInt(request, "sort_order", 0),
	}
	if project.Slug == "" {
		project.Slug = model.Slugify(title)
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		if errors.Is(err, config.ErrSlugTaken) {
			return toolError("slug %q is already in use", project.Slug)
		}
		return toolError("failed to create project: %v", err)
	}
	return successJSON(project)
}

func (s *MCPServer) handleUpdateProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(request, "id")
	if err != nil {
		return toolError("%v", err)
	}
	project, err := s.store.GetProjectByPublicID(ctx, id)
	if errors.Is(err, config.ErrNotFound) {
		return toolError("no project with id %q", id)
	}
	if err != nil {
		return toolError("failed to load project: %v", err)
	}

	if hasArg(request, "title") {
		project.Title = optionalString(request, "title")
	}
	if hasArg(request, "slug") {
		project.Slug = model.Slugify(optionalString(request, "slug"))
	}
	if hasArg(request, "description") {
		project.Description = optionalString(request, "description")
	}
	if hasArg(request, "category") {
		project.Category = optionalString(request, "category")
	}
	if hasArg(request, "tags") {
		project.Tags = optionalStringSlice(request, "tags")
	}
	if hasArg(request, "image_url") {
		project.ImageURL = optionalString(request, "image_url")
	}
	if hasArg(request, "live_url") {
		project.LiveURL = optionalString(request, "live_url")
	}
	if hasArg(request, "featured") {
		project.Featured = optionalBool(request, "featured", project.Featured)
	}
	if hasArg(request, "published") {
		project.Published = optionalBool(request, "published", project.Published)
	}
	if hasArg(request, "sort_order") {
		project.SortOrder = optionalInt(request, "sort_order", project.SortOrder)
	}
	if project.Title == "" {
		return toolError("title must not be empty")
	}

	if err := s.store.UpdateProject(ctx, project); err != nil {
		if errors.Is(err, config.ErrSlugTaken) {
			return toolError("slug %q is already in use", project.Slug)
		}
		return toolError("failed to update project: %v", err)
	}
	return successJSON(project)
}

func (s *MCPServer) handleDeleteProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(request, "id")
	if err != nil {
		return toolError("%v", err)
	}
	err = s.store.DeleteProject(ctx, id)
	if errors.Is(err, config.ErrNotFound) {
		return toolError("no project with id %q", id)
	}
	if err != nil {
		return toolError("failed to delete project: %v", err)
	}
	return successJSON(map[string]interface{}{"deleted": id})
}

func (s *MCPServer) handleListContacts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	messages, err := s.store.ListContacts(ctx)
	if err != nil {
		return toolError("failed to list contacts: %v", err)
	}
	return successJSON(map[string]interface{}{
		"count":    len(messages),
		"messages": messages,
	})
}

func (s *MCPServer) handleSiteStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	total, published, err := s.store.CountProjects(ctx)
	if err != nil {
		return toolError("failed to count projects: %v", err)
	}
	contacts, unread, err := s.store.CountContacts(ctx)
	if err != nil {
		return toolError("failed to count contacts: %v", err)
	}
	return successJSON(map[string]interface{}{
		"projects": map[string]int64{
			"total":     total,
			"published": published,
			"drafts":    total - published,
		},
		"contacts": map[string]int64{
			"total":  contacts,
			"unread": unread,
		},
	})
}
