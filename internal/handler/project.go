package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/model"
)

// ProjectHandler serves the portfolio, both the public read-only view and
// the back-office CRUD surface.
type ProjectHandler struct {
	store *config.Store
}

func NewProjectHandler(store *config.Store) *ProjectHandler {
	return &ProjectHandler{store: store}
}

// ListPublic returns published projects only.
func (h *ProjectHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context(), true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects")
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: projects,
		Meta:     &model.ResponseMeta{Count: len(projects)},
	})
}

// GetPublic returns one published project. Drafts are indistinguishable from
// missing projects here.
func (h *ProjectHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	project, err := h.store.GetProjectByPublicID(r.Context(), chi.URLParam(r, "projectID"))
	if errors.Is(err, config.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load project")
		return
	}
	if !project.Published {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// List returns every project including drafts, for the back office.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects")
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: projects,
		Meta:     &model.ResponseMeta{Count: len(projects)},
	})
}

// projectInput is the partial-update shape shared by Create and Update.
// Pointers distinguish "absent" from zero values.
type projectInput struct {
	Title       *string   `json:"title"`
	Slug        *string   `json:"slug"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Tags        *[]string `json:"tags"`
	ImageURL    *string   `json:"image_url"`
	LiveURL     *string   `json:"live_url"`
	Featured    *bool     `json:"featured"`
	Published   *bool     `json:"published"`
	SortOrder   *int      `json:"sort_order"`
}

func (in *projectInput) apply(p *model.Project) {
	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.Slug != nil {
		p.Slug = model.Slugify(*in.Slug)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Tags != nil {
		p.Tags = *in.Tags
	}
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}
	if in.LiveURL != nil {
		p.LiveURL = *in.LiveURL
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
	if in.Published != nil {
		p.Published = *in.Published
	}
	if in.SortOrder != nil {
		p.SortOrder = *in.SortOrder
	}
}

// Create adds a new project. The slug defaults to a slugified title.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in projectInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	project := &model.Project{Tags: []string{}}
	in.apply(project)
	if project.Slug == "" {
		project.Slug = model.Slugify(project.Title)
	}

	if err := h.store.CreateProject(r.Context(), project); err != nil {
		if errors.Is(err, config.ErrSlugTaken) {
			writeError(w, http.StatusConflict, "Slug already in use")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create project")
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// Update merges the provided fields into the stored project.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in projectInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.store.GetProjectByPublicID(r.Context(), chi.URLParam(r, "projectID"))
	if errors.Is(err, config.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load project")
		return
	}

	in.apply(project)
	if project.Title == "" {
		writeError(w, http.StatusBadRequest, "title must not be empty")
		return
	}
	if err := h.store.UpdateProject(r.Context(), project); err != nil {
		if errors.Is(err, config.ErrSlugTaken) {
			writeError(w, http.StatusConflict, "Slug already in use")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update project")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// Delete removes one project.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteProject(r.Context(), chi.URLParam(r, "projectID"))
	if errors.Is(err, config.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete project")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Project deleted"})
}

type bulkIDsRequest struct {
	IDs []string `json:"ids"`
}

// BulkDelete removes every listed project. Unknown ids are ignored.
func (h *ProjectHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkIDsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids must not be empty")
		return
	}
	n, err := h.store.DeleteProjects(r.Context(), req.IDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete projects")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": n})
}

type bulkPublishRequest struct {
	IDs       []string `json:"ids"`
	Published bool     `json:"published"`
}

// BulkPublish flips the published flag on every listed project.
func (h *ProjectHandler) BulkPublish(w http.ResponseWriter, r *http.Request) {
	var req bulkPublishRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids must not be empty")
		return
	}
	n, err := h.store.SetProjectsPublished(r.Context(), req.IDs, req.Published)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update projects")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"updated": n})
}
