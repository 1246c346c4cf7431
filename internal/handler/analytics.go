package handler

import (
	"net/http"

	"github.com/atelierhq/atelier/internal/analytics"
	"github.com/atelierhq/atelier/internal/config"
)

// AnalyticsHandler serves the back-office dashboard summary: content counts
// from the store plus page view counters from the tracker.
type AnalyticsHandler struct {
	store   *config.Store
	tracker *analytics.Tracker
}

func NewAnalyticsHandler(store *config.Store, tracker *analytics.Tracker) *AnalyticsHandler {
	return &AnalyticsHandler{store: store, tracker: tracker}
}

// Summary returns the dashboard snapshot.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	total, published, err := h.store.CountProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build summary")
		return
	}
	contacts, unread, err := h.store.CountContacts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build summary")
		return
	}
	views, err := h.tracker.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build summary")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"projects": map[string]interface{}{
			"total":     total,
			"published": published,
			"drafts":    total - published,
		},
		"contacts": map[string]interface{}{
			"total":  contacts,
			"unread": unread,
		},
		"traffic": views,
	})
}
