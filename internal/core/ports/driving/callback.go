package driving

import (
	"context"

	"github.com/custodia-labs/entra-login/internal/core/domain"
)

// CallbackService drives the provider redirect back to this system.
type CallbackService interface {
	// HandleCallback runs one callback to a terminal outcome. It never
	// returns an error: failures become redirects carrying an error code,
	// and unrecognized requests come back as pass-through outcomes.
	HandleCallback(ctx context.Context, req CallbackRequest) *domain.CallbackResult
}

// CallbackRequest holds what the HTTP layer extracted from the redirect.
type CallbackRequest struct {
	Code  string
	State string
	// TenantContextID is the tenant the inbound request belongs to (0 if none).
	TenantContextID int64
	UserAgent       string
	IPAddress       string
}
