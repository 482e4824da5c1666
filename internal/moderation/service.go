package moderation

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/agora-social/agora/internal/authz"
	"github.com/agora-social/agora/internal/platform/httpx"
	"github.com/agora-social/agora/internal/shared"
)

// Notifier is told when a post gets auto-hidden so moderators can be
// alerted out of band. Backed by the async job queue.
type Notifier interface {
	PostHidden(ctx context.Context, postID int64) error
}

// Service wraps the reports queue and the admin surface.
type Service struct {
	repo          Repository
	audit         *shared.AuditLogger
	notifier      Notifier
	logger        *slog.Logger
	hideThreshold int
}

// NewService constructs a new Service. hideThreshold is the open-report
// count at which a post is hidden automatically.
func NewService(repo Repository, audit *shared.AuditLogger, notifier Notifier, logger *slog.Logger, hideThreshold int) *Service {
	if hideThreshold <= 0 {
		hideThreshold = 3
	}
	return &Service{repo: repo, audit: audit, notifier: notifier, logger: logger, hideThreshold: hideThreshold}
}

// Report files a complaint against a post and reports whether the post was
// hidden as a result. Satisfies the posts module's Reporter.
func (s *Service) Report(ctx context.Context, postID, reporterID int64, reason string) (bool, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return false, httpx.Public(httpx.ErrValidation, "Report reason is required")
	}
	hidden, err := s.repo.FileReport(ctx, postID, reporterID, reason, s.hideThreshold)
	if err != nil {
		return false, err
	}
	if hidden && s.notifier != nil {
		if err := s.notifier.PostHidden(ctx, postID); err != nil {
			s.logger.Warn("moderation notify enqueue failed", "post_id", postID, "error", err)
		}
	}
	return hidden, nil
}

// ReportsResult pairs a page of reports with pagination metadata.
type ReportsResult struct {
	Reports    []Report          `json:"reports"`
	Pagination shared.Pagination `json:"pagination"`
}

// ListReports returns a page of reports, optionally filtered by status.
func (s *Service) ListReports(ctx context.Context, status string, page, perPage int) (*ReportsResult, error) {
	switch status {
	case "", StatusOpen, StatusDismissed, StatusUpheld:
	default:
		return nil, httpx.Public(httpx.ErrValidation, "Unknown report status")
	}
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListReports(ctx, status, p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Report{}
	}
	return &ReportsResult{Reports: items, Pagination: shared.NewPagination(p.Page, p.PerPage, total)}, nil
}

// Resolve closes an open report. Upholding it also hides the post.
func (s *Service) Resolve(ctx context.Context, actorID, reportID int64, uphold bool) (*Report, error) {
	status := StatusDismissed
	if uphold {
		status = StatusUpheld
	}
	rep, err := s.repo.ResolveReport(ctx, reportID, actorID, status)
	if err != nil {
		return nil, err
	}
	if uphold {
		if err := s.repo.SetPostHidden(ctx, rep.PostID, true); err != nil {
			return nil, err
		}
	}
	s.recordAudit(ctx, actorID, "resolve_report", "report", rep.ID, map[string]any{"status": status})
	return rep, nil
}

// SetPostHidden hides or unhides a post on a moderator's say-so.
func (s *Service) SetPostHidden(ctx context.Context, actorID, postID int64, hidden bool) error {
	if err := s.repo.SetPostHidden(ctx, postID, hidden); err != nil {
		return err
	}
	action := "hide_post"
	if !hidden {
		action = "unhide_post"
	}
	s.recordAudit(ctx, actorID, action, "post", postID, nil)
	return nil
}

// AssignRole grants a global admin role to a user.
func (s *Service) AssignRole(ctx context.Context, actorID, userID int64, role string) error {
	if !authz.IsRecognizedRole(authz.Role(role)) {
		return httpx.Public(httpx.ErrValidation, "Unknown role")
	}
	if err := s.repo.AssignRole(ctx, userID, role); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "assign_role", "user", userID, map[string]any{"role": role})
	return nil
}

// RevokeRole removes a global admin role from a user.
func (s *Service) RevokeRole(ctx context.Context, actorID, userID int64, role string) error {
	if !authz.IsRecognizedRole(authz.Role(role)) {
		return httpx.Public(httpx.ErrValidation, "Unknown role")
	}
	if err := s.repo.RevokeRole(ctx, userID, role); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "revoke_role", "user", userID, map[string]any{"role": role})
	return nil
}

// ListAdmins returns every global role assignment.
func (s *Service) ListAdmins(ctx context.Context) ([]AdminGrant, error) {
	grants, err := s.repo.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	if grants == nil {
		grants = []AdminGrant{}
	}
	return grants, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entity string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "action", action, "entity", entity, "error", err)
	}
}
