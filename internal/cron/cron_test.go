package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plutushq/leadstream/internal/logger"
)

func testLogger() logger.Logger {
	log := logger.NewAppLogger(&logger.Config{DevMode: true, Encoder: "console"})
	log.InitLogger()
	return log
}

func TestCronManager_RunsScheduledJob(t *testing.T) {
	manager := NewCronManager(testLogger())
	ran := make(chan struct{}, 1)

	err := manager.AddJob(GroupScraper, "test_job", "@every 100ms", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	manager.Start()
	defer manager.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job never ran")
	}
}

func TestCronManager_RejectsInvalidSchedule(t *testing.T) {
	manager := NewCronManager(testLogger())
	err := manager.AddJob(GroupScraper, "bad_job", "not a schedule", func() {})
	require.Error(t, err)
}

func TestLockForGroup_SameGroupSharesLock(t *testing.T) {
	first := lockForGroup("some-group")
	second := lockForGroup("some-group")
	other := lockForGroup("other-group")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
}
