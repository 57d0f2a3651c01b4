package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ashureev/skripsi-cepat/internal/domain"
	"github.com/ashureev/skripsi-cepat/internal/identity"
	"github.com/go-chi/chi/v5"
)

// FunnelHandler handles funnel progression endpoints.
type FunnelHandler struct {
	*Handler
}

// NewFunnelHandler creates a new funnel handler.
func NewFunnelHandler(base *Handler) *FunnelHandler {
	return &FunnelHandler{Handler: base}
}

// RegisterRoutes registers funnel routes.
func (h *FunnelHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.GetState)
		r.Get("/subscription", h.GetSubscription)
		r.Post("/funnel/start", h.Start)
		r.Post("/funnel/lead", h.SubmitLead)
		r.Post("/funnel/title", h.SelectTitle)
		r.Post("/checkout", h.Checkout)
		r.Post("/checkout/topup", h.TopUpCheckout)
	})
}

// GetState returns the current funnel state for the caller.
func (h *FunnelHandler) GetState(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if !requireUser(w, userID) {
		return
	}

	state := h.svc.State(r.Context(), userID)
	JSON(w, http.StatusOK, map[string]interface{}{"state": state})
}

// GetSubscription returns the caller's latest subscription, refreshing
// its status against the clock first.
func (h *FunnelHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if !requireUser(w, userID) {
		return
	}

	sub, err := h.ledger.CheckStatus(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to check subscription", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sub == nil {
		JSON(w, http.StatusOK, map[string]interface{}{"subscription": nil})
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"subscription": sub})
}

// Start resets or begins the funnel at the lead form step.
func (h *FunnelHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if !requireUser(w, userID) {
		return
	}

	state, err := h.svc.StartFunnel(r.Context(), userID)
	if err != nil {
		ServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"state": state})
}

// SubmitLead accepts the lead form and responds with generated title ideas.
func (h *FunnelHandler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if !requireUser(w, userID) {
		return
	}

	var lead domain.LeadProfile
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.svc.SubmitLead(r.Context(), userID, lead)
	if err != nil {
		ServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"state": state})
}

type titleRequest struct {
	Title string `json:"title"`
}

// SelectTitle records the chosen thesis title.
func (h *FunnelHandler) SelectTitle(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if !requireUser(w, userID) {
		return
	}

	var req titleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.svc.SelectTitle(r.Context(), userID, req.Title)
	if err != nil {
		ServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"state": state})
}

// Checkout opens a payment session for the subscription.
func (h *FunnelHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if !requireUser(w, userID) {
		return
	}

	var req titleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Checkout(r.Context(), userID, req.Title)
	if err != nil {
		ServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"order_id":  result.OrderID,
		"token":     result.Token,
		"simulated": result.Simulated,
		"state":     result.State,
	})
}

type topUpRequest struct {
	Section string `json:"section"`
}

// TopUpCheckout opens a payment session for a revision top-up.
func (h *FunnelHandler) TopUpCheckout(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if !requireUser(w, userID) {
		return
	}

	var req topUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sec := domain.Section(req.Section)
	if !sec.IsValid() {
		Error(w, http.StatusBadRequest, "unknown section")
		return
	}

	result, err := h.svc.TopUpCheckout(r.Context(), userID, sec)
	if err != nil {
		ServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"order_id":  result.OrderID,
		"token":     result.Token,
		"simulated": result.Simulated,
		"state":     result.State,
	})
}
