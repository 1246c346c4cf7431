package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/model"
)

// SEOHandler serves per-page SEO metadata, readable publicly and editable
// from the back office.
type SEOHandler struct {
	store *config.Store
}

func NewSEOHandler(store *config.Store) *SEOHandler {
	return &SEOHandler{store: store}
}

// GetPage returns the metadata for one page.
func (h *SEOHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	meta, err := h.store.GetPageMeta(r.Context(), chi.URLParam(r, "page"))
	if errors.Is(err, config.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No metadata for page")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load metadata")
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// List returns metadata for every configured page.
func (h *SEOHandler) List(w http.ResponseWriter, r *http.Request) {
	metas, err := h.store.ListPageMeta(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list metadata")
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: metas,
		Meta:     &model.ResponseMeta{Count: len(metas)},
	})
}

type pageMetaRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
	OGImage     string `json:"og_image"`
}

// Upsert writes the metadata for one page, creating it on first write.
func (h *SEOHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	page := strings.TrimSpace(chi.URLParam(r, "page"))
	if page == "" {
		writeError(w, http.StatusBadRequest, "page is required")
		return
	}
	var req pageMetaRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	meta := &model.PageMeta{
		Page:        page,
		Title:       req.Title,
		Description: req.Description,
		Keywords:    req.Keywords,
		OGImage:     req.OGImage,
	}
	if err := h.store.UpsertPageMeta(r.Context(), meta); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save metadata")
		return
	}
	writeJSON(w, http.StatusOK, meta)
}
