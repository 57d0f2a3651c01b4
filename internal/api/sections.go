package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ashureev/skripsi-cepat/internal/domain"
	"github.com/ashureev/skripsi-cepat/internal/identity"
	"github.com/go-chi/chi/v5"
)

// SectionHandler handles chapter-writing endpoints.
type SectionHandler struct {
	*Handler
}

// NewSectionHandler creates a new section handler.
func NewSectionHandler(base *Handler) *SectionHandler {
	return &SectionHandler{Handler: base}
}

// RegisterRoutes registers section routes.
func (h *SectionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sections", func(r chi.Router) {
		r.Post("/{section}/start", h.Start)
		r.Post("/{section}/complete", h.Complete)
		r.Post("/{section}/revise", h.Revise)
		r.Get("/{section}/revisions", h.Revisions)
	})
	r.Get("/api/download", h.Download)
}

func sectionParam(w http.ResponseWriter, r *http.Request) (domain.Section, bool) {
	sec := domain.Section(chi.URLParam(r, "section"))
	if !sec.IsValid() {
		Error(w, http.StatusBadRequest, "unknown section")
		return "", false
	}
	return sec, true
}

// Start activates a section, generating its content on first entry.
func (h *SectionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if !requireUser(w, userID) {
		return
	}
	sec, ok := sectionParam(w, r)
	if !ok {
		return
	}

	state, err := h.svc.StartSection(r.Context(), userID, sec)
	if err != nil {
		ServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"state": state})
}

// Complete marks a section as done and unlocks the next one.
func (h *SectionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if !requireUser(w, userID) {
		return
	}
	sec, ok := sectionParam(w, r)
	if !ok {
		return
	}

	state, err := h.svc.CompleteSection(r.Context(), userID, sec)
	if err != nil {
		ServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"state": state})
}

type reviseRequest struct {
	Feedback string `json:"feedback"`
}

// Revise regenerates a section according to user feedback, charging
// one revision from the quota.
func (h *SectionHandler) Revise(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if !requireUser(w, userID) {
		return
	}
	sec, ok := sectionParam(w, r)
	if !ok {
		return
	}

	var req reviseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.svc.ReviseSection(r.Context(), userID, sec, req.Feedback)
	if err != nil {
		ServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"state": state})
}

// Revisions returns the revision history for a section's chapter.
func (h *SectionHandler) Revisions(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if !requireUser(w, userID) {
		return
	}
	sec, ok := sectionParam(w, r)
	if !ok {
		return
	}

	state := h.svc.State(r.Context(), userID)
	ss, exists := state.Sections[sec]
	if !exists || ss.ChapterID == "" {
		JSON(w, http.StatusOK, map[string]interface{}{"revisions": []struct{}{}})
		return
	}

	records, err := h.ledger.RevisionHistory(r.Context(), ss.ChapterID)
	if err != nil {
		slog.Error("Failed to load revision history", "error", err, "user_id", userID, "section", sec)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"revisions": records})
}

// Download streams the assembled thesis as a plain-text attachment.
func (h *SectionHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if !requireUser(w, userID) {
		return
	}

	title, body, err := h.svc.Download(r.Context(), userID)
	if err != nil {
		ServiceError(w, err)
		return
	}

	filename := "skripsi.txt"
	if title != "" {
		filename = title + ".txt"
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Error("Failed to write download body", "error", err, "user_id", userID)
	}
}
