package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicq/clinicq-backend/internal/queue/models"
)

func TestTransitionLifecycle(t *testing.T) {
	now := time.Now()
	entry := &models.QueueEntry{Status: models.StatusWaiting}

	require.NoError(t, ApplyTransition(entry, models.StatusInProgress, now))
	assert.Equal(t, models.StatusInProgress, entry.Status)
	require.NotNil(t, entry.StartTime)
	assert.Equal(t, now, *entry.StartTime)
	assert.Nil(t, entry.EndTime)

	later := now.Add(10 * time.Minute)
	require.NoError(t, ApplyTransition(entry, models.StatusCompleted, later))
	assert.Equal(t, models.StatusCompleted, entry.Status)
	require.NotNil(t, entry.EndTime)
	assert.Equal(t, later, *entry.EndTime)
}

func TestTransitionSkipIsCancellation(t *testing.T) {
	now := time.Now()

	waiting := &models.QueueEntry{Status: models.StatusWaiting}
	require.NoError(t, ApplyTransition(waiting, models.StatusCancelled, now))
	assert.Equal(t, models.StatusCancelled, waiting.Status)
	require.NotNil(t, waiting.EndTime)

	inProgress := &models.QueueEntry{Status: models.StatusInProgress}
	require.NoError(t, ApplyTransition(inProgress, models.StatusCancelled, now))
	assert.Equal(t, models.StatusCancelled, inProgress.Status)
}

func TestTransitionInvalidLeavesEntryUnchanged(t *testing.T) {
	cases := []struct {
		from, to models.Status
	}{
		{models.StatusCompleted, models.StatusWaiting},
		{models.StatusCompleted, models.StatusInProgress},
		{models.StatusCancelled, models.StatusWaiting},
		{models.StatusWaiting, models.StatusCompleted},
		{models.StatusInProgress, models.StatusWaiting},
		{models.StatusWaiting, models.StatusWaiting},
	}

	for _, tc := range cases {
		entry := &models.QueueEntry{Status: tc.from}
		err := ApplyTransition(entry, tc.to, time.Now())
		assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
		assert.Equal(t, tc.from, entry.Status, "status must not change on a refused transition")
		assert.Nil(t, entry.StartTime)
		assert.Nil(t, entry.EndTime)
	}
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"waiting", "in-progress", "completed", "cancelled"} {
		s, err := models.ParseStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, models.Status(valid), s)
	}

	_, err := models.ParseStatus("done")
	assert.Error(t, err)
}
