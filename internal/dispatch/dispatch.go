// Package dispatch implements the action-dispatch endpoint: a flat switch
// over an `action` field where every mutation is guarded by the
// authorization gateway before any row is touched.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/agora-social/agora/internal/authz"
	"github.com/agora-social/agora/internal/platform/httpx"
)

// TokenHeader carries the opaque session token. Header transport is the
// single standardized channel; tokens are never read from the body.
const TokenHeader = "X-Session-Token"

const maxBodyBytes = 1 << 20

// Action declares one dispatchable operation: its payload schema, the
// capability it demands, and the single data operation it performs.
type Action struct {
	// NewRequest returns a fresh payload struct for strict decoding.
	// Nil means the action takes no payload beyond the action field.
	NewRequest func() any
	// Require derives the authorization requirement from the decoded
	// payload. Nil defaults to a valid-session requirement.
	Require func(req any) authz.Requirement
	// Forbidden overrides the 403 message for this action.
	Forbidden string
	// Handle performs the data operation for an authorized caller.
	Handle func(ctx context.Context, actor *authz.Identity, req any) (any, error)
}

// ActionSet is a module's closed action enumeration.
type ActionSet map[string]Action

// Handler serves one module's action set over HTTP POST.
type Handler struct {
	logger   *slog.Logger
	gateway  *authz.Gateway
	actions  ActionSet
	validate *validator.Validate
}

// NewHandler constructs a dispatch handler.
func NewHandler(logger *slog.Logger, gateway *authz.Gateway, actions ActionSet) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		gateway:  gateway,
		actions:  actions,
		validate: validator.New(),
	}
}

type envelope map[string]json.RawMessage

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.Fail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	body := envelope{}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var name string
	if raw, ok := body["action"]; ok {
		if err := json.Unmarshal(raw, &name); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "Invalid action")
			return
		}
	}
	action, ok := h.actions[name]
	if !ok {
		httpx.Fail(w, http.StatusBadRequest, "Invalid action")
		return
	}
	delete(body, "action")

	req, err := h.decodePayload(action, body)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	requirement := authz.ValidSession()
	if action.Require != nil {
		requirement = action.Require(req)
	}

	actor, err := h.gateway.Authorize(r.Context(), r.Header.Get(TokenHeader), requirement)
	if err != nil {
		if errors.Is(err, httpx.ErrForbidden) && action.Forbidden != "" {
			httpx.Fail(w, http.StatusForbidden, action.Forbidden)
			return
		}
		h.respondError(w, r, name, err)
		return
	}

	data, err := action.Handle(r.Context(), actor, req)
	if err != nil {
		if errors.Is(err, httpx.ErrForbidden) && action.Forbidden != "" {
			httpx.Fail(w, http.StatusForbidden, action.Forbidden)
			return
		}
		h.respondError(w, r, name, err)
		return
	}
	httpx.OK(w, data)
}

// decodePayload re-encodes the remaining envelope fields and decodes them
// strictly into the action's request struct. Unknown or extra fields are
// rejected rather than silently ignored.
func (h *Handler) decodePayload(action Action, body envelope) (any, error) {
	if action.NewRequest == nil {
		if len(body) > 0 {
			return nil, errors.New("dispatch: unexpected payload fields")
		}
		return nil, nil
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req := action.NewRequest()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return nil, err
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, action string, err error) {
	if !errors.Is(err, httpx.ErrNotFound) &&
		!errors.Is(err, httpx.ErrValidation) &&
		!errors.Is(err, httpx.ErrDuplicate) &&
		!errors.Is(err, httpx.ErrForbidden) &&
		!errors.Is(err, httpx.ErrUnauthorized) {
		h.logger.Error("dispatch action failed",
			slog.String("action", action),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
