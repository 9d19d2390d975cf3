package http

import (
	"log/slog"
	"net/http"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driving"
	"github.com/custodia-labs/entra-login/internal/metrics"
)

// CallbackHandler turns provider redirects into session-establishing
// redirects. Requests that are not sign-in callbacks reach next untouched.
type CallbackHandler struct {
	service    driving.CallbackService
	tenantFrom func(*http.Request) int64
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewCallbackHandler creates a CallbackHandler. tenantFrom and m may be nil.
func NewCallbackHandler(service driving.CallbackService, tenantFrom func(*http.Request) int64, m *metrics.Metrics, logger *slog.Logger) *CallbackHandler {
	if tenantFrom == nil {
		tenantFrom = TenantFromHeader
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CallbackHandler{
		service:    service,
		tenantFrom: tenantFrom,
		metrics:    m,
		logger:     logger,
	}
}

// Wrap returns middleware in front of next.
func (h *CallbackHandler) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		result := h.service.HandleCallback(r.Context(), driving.CallbackRequest{
			Code:            q.Get("code"),
			State:           q.Get("state"),
			TenantContextID: h.tenantFrom(r),
			UserAgent:       r.UserAgent(),
			IPAddress:       clientIP(r),
		})

		if result.Outcome != domain.OutcomeNotApplicable {
			h.metrics.ObserveCallback(string(result.Surface), string(result.Outcome), string(result.ErrorCode))
		}

		if result.Outcome.PassThrough() {
			next.ServeHTTP(w, r)
			return
		}

		for name, values := range result.Header {
			for _, v := range values {
				w.Header().Add(name, v)
			}
		}
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, result.RedirectURL, http.StatusSeeOther)
	})
}
