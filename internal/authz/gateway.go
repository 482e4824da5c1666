package authz

import (
	"context"
	"errors"

	"github.com/agora-social/agora/internal/platform/httpx"
)

// DecisionRecorder observes gateway outcomes, typically for metrics.
type DecisionRecorder interface {
	AuthzDecision(outcome string)
}

// Gateway composes the session validator and the role/permission resolver.
// Checks run in strict order, cheapest first: token presence, session
// validity, capability resolution, membership test. The gateway performs
// read lookups only; it writes no audit record itself.
type Gateway struct {
	validator *Validator
	resolver  *Resolver
	recorder  DecisionRecorder
}

// NewGateway constructs a Gateway. recorder may be nil.
func NewGateway(validator *Validator, resolver *Resolver, recorder DecisionRecorder) *Gateway {
	return &Gateway{validator: validator, resolver: resolver, recorder: recorder}
}

// Authorize translates a bearer token into an authenticated identity and a
// permission decision for the given requirement. On success the identity
// carries the resolved capability sets for use by the subsequent data
// operation.
func (g *Gateway) Authorize(ctx context.Context, token string, req Requirement) (*Identity, error) {
	identity, err := g.authorize(ctx, token, req)
	g.record(err)
	return identity, err
}

func (g *Gateway) authorize(ctx context.Context, token string, req Requirement) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	userID, err := g.validator.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	roles, err := g.resolver.RolesOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	identity := &Identity{UserID: userID, Roles: roles}
	ok, err := g.satisfy(ctx, identity, req)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return identity, nil
}

func (g *Gateway) satisfy(ctx context.Context, identity *Identity, req Requirement) (bool, error) {
	switch req.kind {
	case requireSession:
		return true, nil
	case requireAnyAdmin:
		return identity.Roles.IsAdmin(), nil
	case requireAdminRole:
		return identity.Roles.Has(req.role), nil
	case requireScoped:
		perms, err := g.resolver.PermissionsOf(ctx, identity.UserID, req.communityID)
		if err != nil {
			return false, err
		}
		identity.Permissions = perms
		return perms.Has(req.permission), nil
	case requireOwner:
		ownerID, err := g.resolver.OwnerOf(ctx, req.ownerKind, req.resourceID)
		if err != nil {
			return false, err
		}
		return ownerID == identity.UserID, nil
	case requireAny:
		var notFound error
		for _, alt := range req.anyOf {
			ok, err := g.satisfy(ctx, identity, alt)
			if err != nil {
				if errors.Is(err, httpx.ErrNotFound) {
					notFound = err
					continue
				}
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		if notFound != nil {
			return false, notFound
		}
		return false, nil
	}
	return false, nil
}

func (g *Gateway) record(err error) {
	if g.recorder == nil {
		return
	}
	switch {
	case err == nil:
		g.recorder.AuthzDecision("granted")
	case errors.Is(err, httpx.ErrUnauthorized):
		g.recorder.AuthzDecision("unauthorized")
	case errors.Is(err, httpx.ErrForbidden):
		g.recorder.AuthzDecision("forbidden")
	case errors.Is(err, httpx.ErrNotFound):
		g.recorder.AuthzDecision("not_found")
	default:
		g.recorder.AuthzDecision("error")
	}
}
