package authz

import (
	"github.com/agora-social/agora/internal/platform/httpx"
)

// Rejections produced by the gateway. Every session failure collapses to
// the same client message so callers cannot distinguish "expired" from
// "never existed".
var (
	ErrMissingToken   = httpx.Public(httpx.ErrUnauthorized, "Missing session token")
	ErrInvalidSession = httpx.Public(httpx.ErrUnauthorized, "Invalid or expired session")
	ErrForbidden      = httpx.ErrForbidden
)
