// Package jobs defines the background task types and their handlers.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/agora-social/agora/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskSessionsPurge deletes expired or deactivated session rows.
	TaskSessionsPurge = "sessions:purge_expired"
	// TaskPromotionsExpire deactivates promotions past their end time.
	TaskPromotionsExpire = "promotions:expire"
	// TaskModerationNotify alerts moderators about an auto-hidden post.
	TaskModerationNotify = "moderation:notify"
)

// ModerationNotifyPayload identifies the post that crossed the report
// threshold.
type ModerationNotifyPayload struct {
	PostID int64 `json:"post_id"`
}

// NewSessionsPurgeTask constructs the session sweep task.
func NewSessionsPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskSessionsPurge, nil)
}

// NewPromotionsExpireTask constructs the promotion sweep task.
func NewPromotionsExpireTask() *asynq.Task {
	return asynq.NewTask(TaskPromotionsExpire, nil)
}

// NewModerationNotifyTask constructs a moderation alert task.
func NewModerationNotifyTask(payload ModerationNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskModerationNotify, data), nil
}

// SessionPurger removes sessions whose expiry has passed or that were
// deactivated.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// PromotionExpirer deactivates promotions whose window has closed.
type PromotionExpirer interface {
	ExpirePromotions(ctx context.Context, now time.Time) (int64, error)
}

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

func metricsOrDefault(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m != nil {
		return m
	}
	return defaultJobMetrics
}

// HandleSessionsPurge returns the handler for TaskSessionsPurge.
func HandleSessionsPurge(purger SessionPurger, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		tracker := metricsOrDefault(metrics).Track(TaskSessionsPurge)
		n, err := purger.PurgeExpiredSessions(ctx, time.Now())
		if err != nil {
			return tracker.End(err)
		}
		logger.Info("purged expired sessions", "count", n)
		return tracker.End(nil)
	}
}

// HandlePromotionsExpire returns the handler for TaskPromotionsExpire.
func HandlePromotionsExpire(expirer PromotionExpirer, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		tracker := metricsOrDefault(metrics).Track(TaskPromotionsExpire)
		n, err := expirer.ExpirePromotions(ctx, time.Now())
		if err != nil {
			return tracker.End(err)
		}
		logger.Info("expired promotions", "count", n)
		return tracker.End(nil)
	}
}

// HandleModerationNotify returns the handler for TaskModerationNotify.
// Delivery is a log line until a mail or webhook channel lands.
func HandleModerationNotify(logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(_ context.Context, t *asynq.Task) error {
		tracker := metricsOrDefault(metrics).Track(TaskModerationNotify)
		var payload ModerationNotifyPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return tracker.End(asynq.SkipRetry)
		}
		logger.Info("post auto-hidden by report threshold", "post_id", payload.PostID)
		return tracker.End(nil)
	}
}
