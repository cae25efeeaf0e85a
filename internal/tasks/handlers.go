package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/meetly/internal/database/models"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeMeetingProcess, h.HandleMeetingProcess)
}

// HandleMeetingProcess finalizes a meeting after its call session ended.
func (h *Handler) HandleMeetingProcess(ctx context.Context, t *asynq.Task) error {
	var payload MeetingProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	h.logger.Info("processing meeting", "meeting_id", payload.MeetingID)

	var meeting models.Meeting
	if err := h.db.WithContext(ctx).First(&meeting, "id = ?", payload.MeetingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Row was deleted while the task sat in the queue; nothing to do.
			h.logger.Warn("meeting gone, skipping", "meeting_id", payload.MeetingID)
			return nil
		}
		return err
	}

	if meeting.Status != models.MeetingStatusProcessing {
		h.logger.Warn("meeting not in processing state, skipping",
			"meeting_id", payload.MeetingID,
			"status", meeting.Status,
		)
		return nil
	}

	// TODO: fetch the call transcript from Stream and store a summary on the
	// meeting before completing it.

	if err := h.db.WithContext(ctx).
		Model(&models.Meeting{}).
		Where("id = ?", payload.MeetingID).
		Updates(map[string]interface{}{
			"status":     models.MeetingStatusCompleted,
			"updated_at": time.Now(),
		}).Error; err != nil {
		return err
	}

	h.logger.Info("completed meeting", "meeting_id", payload.MeetingID)
	return nil
}
