package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/ashureev/skripsi-cepat/internal/payment"
	"github.com/go-chi/chi/v5"
)

// WebhookHandler receives payment gateway notifications.
type WebhookHandler struct {
	*Handler
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(base *Handler) *WebhookHandler {
	return &WebhookHandler{Handler: base}
}

// RegisterRoutes registers the payment notification route.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/payment/notification", h.Notification)
}

// Notification handles a gateway callback. The gateway retries on
// non-2xx responses, so every processed request is acknowledged with
// 200 regardless of internal outcome; only signature rejection (when
// enabled) answers 403.
func (h *WebhookHandler) Notification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		slog.Error("Failed to read notification body", "error", err)
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	var notif payment.Notification
	if err := json.Unmarshal(body, &notif); err != nil || notif.OrderID == "" {
		// Midtrans sends test pings with unrelated payloads; ack them.
		slog.Warn("Ignoring malformed notification", "error", err)
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	if !notif.VerifySignature(h.cfg.MidtransServerKey) {
		slog.Warn("Notification signature mismatch",
			"order_id", notif.OrderID,
			"transaction_status", notif.TransactionStatus)
		if h.cfg.RejectBadSignature {
			Error(w, http.StatusForbidden, "invalid signature")
			return
		}
	}

	if err := h.svc.HandleNotification(r.Context(),
		notif.OrderID, notif.TransactionID, notif.TransactionStatus, notif.FraudStatus); err != nil {
		// Still ack: the state is replayable from GetOrder on retry,
		// but a retry storm against a failing handler helps nobody.
		slog.Error("Failed to process notification",
			"error", err,
			"order_id", notif.OrderID,
			"transaction_status", notif.TransactionStatus)
	}

	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
