package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOccurredAtDefaultsZeroTime(t *testing.T) {
	got := occurredAt(time.Time{})
	assert.WithinDuration(t, time.Now(), got, time.Minute)
}

func TestOccurredAtKeepsExplicitTime(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	assert.Equal(t, at, occurredAt(at))
}
