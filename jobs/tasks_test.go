package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/agora-social/agora/internal/jobs"
)

func testMetrics(t *testing.T) *jobmetrics.Metrics {
	t.Helper()
	return jobmetrics.NewMetrics(prometheus.NewRegistry())
}

type fakePurger struct {
	purged int64
	before time.Time
}

func (f *fakePurger) PurgeExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return f.purged, nil
}

type fakeExpirer struct {
	expired int64
}

func (f *fakeExpirer) ExpirePromotions(_ context.Context, _ time.Time) (int64, error) {
	return f.expired, nil
}

func TestHandleSessionsPurge(t *testing.T) {
	purger := &fakePurger{purged: 12}
	handler := HandleSessionsPurge(purger, slog.Default(), testMetrics(t))

	err := handler(context.Background(), NewSessionsPurgeTask())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), purger.before, time.Minute)
}

func TestHandlePromotionsExpire(t *testing.T) {
	handler := HandlePromotionsExpire(&fakeExpirer{expired: 3}, slog.Default(), testMetrics(t))

	err := handler(context.Background(), NewPromotionsExpireTask())
	require.NoError(t, err)
}

func TestHandleModerationNotifyBadPayload(t *testing.T) {
	handler := HandleModerationNotify(slog.Default(), testMetrics(t))

	task := asynq.NewTask(TaskModerationNotify, []byte("not-json"))
	err := handler(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleModerationNotify(t *testing.T) {
	handler := HandleModerationNotify(slog.Default(), testMetrics(t))

	task, err := NewModerationNotifyTask(ModerationNotifyPayload{PostID: 42})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
}
