package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/model"
)

// ContactHandler serves the public contact form and the back-office inbox.
type ContactHandler struct {
	store *config.Store
}

func NewContactHandler(store *config.Store) *ContactHandler {
	return &ContactHandler{store: store}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Message string `json:"message"`
}

// Submit accepts a contact form submission from the public site.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Email == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "name, email and message are required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "email is not valid")
		return
	}

	msg := &model.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Company: strings.TrimSpace(req.Company),
		Message: req.Message,
	}
	if err := h.store.CreateContact(r.Context(), msg); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save message")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Thanks, we'll be in touch",
	})
}

// List returns the inbox with unread counts.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.store.ListContacts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list messages")
		return
	}
	_, unread, err := h.store.CountContacts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list messages")
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: messages,
		Meta:     &model.ResponseMeta{Count: len(messages), Unread: int(unread)},
	})
}

func contactID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "messageID"), 10, 64)
	return id, err == nil && id > 0
}

// MarkRead marks one message as read.
func (h *ContactHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}
	err := h.store.MarkContactRead(r.Context(), id)
	if errors.Is(err, config.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Message not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Marked as read"})
}

// Delete removes one message from the inbox.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}
	err := h.store.DeleteContact(r.Context(), id)
	if errors.Is(err, config.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Message not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Message deleted"})
}
