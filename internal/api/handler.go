// Package api provides HTTP handlers for the SkripsiCepat API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ashureev/skripsi-cepat/internal/config"
	"github.com/ashureev/skripsi-cepat/internal/content"
	"github.com/ashureev/skripsi-cepat/internal/domain"
	"github.com/ashureev/skripsi-cepat/internal/funnel"
	"github.com/ashureev/skripsi-cepat/internal/ledger"
	"github.com/ashureev/skripsi-cepat/internal/payment"
	"github.com/ashureev/skripsi-cepat/internal/store"
	"github.com/ashureev/skripsi-cepat/internal/thesis"
)

// Handler provides common handler utilities.
type Handler struct {
	repo   store.Repository
	svc    *thesis.Service
	ledger *ledger.Ledger
	cfg    *config.Config
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, svc *thesis.Service, ldg *ledger.Ledger, cfg *config.Config) *Handler {
	return &Handler{
		repo:   repo,
		svc:    svc,
		ledger: ldg,
		cfg:    cfg,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ErrorCode writes a JSON error response with a machine-readable code
// so the frontend can branch without parsing messages.
func ErrorCode(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, map[string]string{"error": message, "code": code})
}

// ServiceError maps service-layer errors onto HTTP responses.
func ServiceError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		ErrorCode(w, http.StatusBadRequest, "validation", ve.Error())
		return
	}

	var ce *content.Error
	if errors.As(err, &ce) {
		switch ce.Code {
		case content.CodeRateLimited:
			ErrorCode(w, http.StatusTooManyRequests, string(ce.Code), "layanan sedang sibuk, coba lagi sebentar")
		case content.CodeInvalidConfig:
			ErrorCode(w, http.StatusServiceUnavailable, string(ce.Code), "layanan penulisan belum dikonfigurasi")
		default:
			ErrorCode(w, http.StatusBadGateway, string(ce.Code), "layanan penulisan sedang bermasalah")
		}
		return
	}

	var ge *payment.GatewayError
	if errors.As(err, &ge) {
		ErrorCode(w, http.StatusBadGateway, "payment_gateway", "gagal membuka sesi pembayaran")
		return
	}

	switch {
	case errors.Is(err, domain.ErrAccessDenied):
		ErrorCode(w, http.StatusPaymentRequired, "access_denied", "akses memerlukan pembayaran")
	case errors.Is(err, domain.ErrSectionLocked):
		ErrorCode(w, http.StatusConflict, "section_locked", "bagian sebelumnya belum selesai")
	case errors.Is(err, domain.ErrQuotaExhausted):
		ErrorCode(w, http.StatusPaymentRequired, "quota_exhausted", "jatah revisi habis")
	case errors.Is(err, domain.ErrGenerationInFlight):
		ErrorCode(w, http.StatusConflict, "generation_in_flight", "penulisan sedang berjalan")
	case errors.Is(err, funnel.ErrInvalidTransition):
		ErrorCode(w, http.StatusConflict, "invalid_transition", "langkah tidak valid untuk status saat ini")
	case errors.Is(err, domain.ErrNotFound):
		Error(w, http.StatusNotFound, "not found")
	default:
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// requireUser extracts the user id or writes a 401.
func requireUser(w http.ResponseWriter, userID string) bool {
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	return true
}
