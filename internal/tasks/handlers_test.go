package tasks_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/hugh/meetly/internal/database/models"
	"github.com/hugh/meetly/internal/tasks"
	"github.com/hugh/meetly/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*tasks.Handler, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return tasks.NewHandler(tc.DB, logger), tc
}

func TestHandleMeetingProcess(t *testing.T) {
	t.Run("completes a processing meeting", func(t *testing.T) {
		handler, tc := newTestHandler(t)
		defer tc.Cleanup()

		agent := testutil.CreateTestAgent(t, tc.DB, tc.User.ID, "Tutor")
		meeting := testutil.CreateTestMeeting(t, tc.DB, tc.User.ID, agent.ID, "Session")
		tc.DB.Model(meeting).Update("status", models.MeetingStatusProcessing)

		task, err := tasks.NewMeetingProcessTask(tasks.MeetingProcessPayload{MeetingID: meeting.ID})
		require.NoError(t, err)

		err = handler.HandleMeetingProcess(context.Background(), task)
		require.NoError(t, err)

		var updated models.Meeting
		require.NoError(t, tc.DB.First(&updated, "id = ?", meeting.ID).Error)
		assert.Equal(t, models.MeetingStatusCompleted, updated.Status)
	})

	t.Run("skips a meeting not in processing", func(t *testing.T) {
		handler, tc := newTestHandler(t)
		defer tc.Cleanup()

		agent := testutil.CreateTestAgent(t, tc.DB, tc.User.ID, "Tutor")
		meeting := testutil.CreateTestMeeting(t, tc.DB, tc.User.ID, agent.ID, "Session")

		task, err := tasks.NewMeetingProcessTask(tasks.MeetingProcessPayload{MeetingID: meeting.ID})
		require.NoError(t, err)

		err = handler.HandleMeetingProcess(context.Background(), task)
		require.NoError(t, err)

		var updated models.Meeting
		require.NoError(t, tc.DB.First(&updated, "id = ?", meeting.ID).Error)
		assert.Equal(t, models.MeetingStatusUpcoming, updated.Status)
	})

	t.Run("skips a deleted meeting", func(t *testing.T) {
		handler, tc := newTestHandler(t)
		defer tc.Cleanup()

		task, err := tasks.NewMeetingProcessTask(tasks.MeetingProcessPayload{MeetingID: uuid.New()})
		require.NoError(t, err)

		// Not an error: the row may be gone by the time the task runs.
		err = handler.HandleMeetingProcess(context.Background(), task)
		assert.NoError(t, err)
	})
}
