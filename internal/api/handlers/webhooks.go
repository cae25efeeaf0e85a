package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/hugh/meetly/internal/api/dto"
	"github.com/hugh/meetly/internal/database/models"
	"github.com/hugh/meetly/internal/tasks"
	"gorm.io/gorm"
)

// WebhookHandler receives call lifecycle events from Stream. Events are
// authenticated with an HMAC-SHA256 signature over the raw body.
type WebhookHandler struct {
	db        *gorm.DB
	apiSecret []byte
	queue     *asynq.Client
	logger    *slog.Logger
}

func NewWebhookHandler(db *gorm.DB, apiSecret string, queue *asynq.Client, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		db:        db,
		apiSecret: []byte(apiSecret),
		queue:     queue,
		logger:    logger,
	}
}

type streamEvent struct {
	Type    string `json:"type"`
	CallCID string `json:"call_cid"`
}

// HandleStream handles POST /api/v1/webhooks/stream
func (h *WebhookHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to read body"})
		return
	}

	if !h.verifySignature(body, r.Header.Get("X-Signature")) {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid signature"})
		return
	}

	var event streamEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid payload"})
		return
	}

	switch event.Type {
	case "call.session_started":
		h.handleSessionStarted(w, r, event)
	case "call.session_ended":
		h.handleSessionEnded(w, r, event)
	default:
		// Stream sends many event types we don't act on. Acknowledge them so
		// it doesn't retry.
		h.logger.Debug("ignoring stream event", "type", event.Type)
		writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "ignored"})
	}
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, h.apiSecret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// meetingIDFromCID extracts the meeting ID from a call CID of the form
// "default:<meeting-id>".
func meetingIDFromCID(cid string) (uuid.UUID, bool) {
	_, id, found := strings.Cut(cid, ":")
	if !found {
		return uuid.Nil, false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, false
	}
	return parsed, true
}

func (h *WebhookHandler) handleSessionStarted(w http.ResponseWriter, r *http.Request, event streamEvent) {
	meetingID, ok := meetingIDFromCID(event.CallCID)
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid call CID"})
		return
	}

	var meeting models.Meeting
	if err := h.db.First(&meeting, "id = ?", meetingID).Error; err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Meeting not found"})
		return
	}

	now := time.Now()
	meeting.Status = models.MeetingStatusActive
	meeting.StartedAt = &now

	if err := h.db.Save(&meeting).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update meeting"})
		return
	}

	h.logger.Info("meeting session started", "meeting_id", meetingID)
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "ok"})
}

func (h *WebhookHandler) handleSessionEnded(w http.ResponseWriter, r *http.Request, event streamEvent) {
	meetingID, ok := meetingIDFromCID(event.CallCID)
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid call CID"})
		return
	}

	var meeting models.Meeting
	if err := h.db.First(&meeting, "id = ?", meetingID).Error; err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Meeting not found"})
		return
	}

	now := time.Now()
	meeting.Status = models.MeetingStatusProcessing
	meeting.EndedAt = &now

	if err := h.db.Save(&meeting).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update meeting"})
		return
	}

	if h.queue != nil {
		task, err := tasks.NewMeetingProcessTask(tasks.MeetingProcessPayload{MeetingID: meetingID})
		if err == nil {
			if _, err := h.queue.EnqueueContext(r.Context(), task); err != nil {
				h.logger.Error("failed to enqueue meeting processing", "meeting_id", meetingID, "error", err)
			}
		}
	}

	h.logger.Info("meeting session ended", "meeting_id", meetingID)
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "ok"})
}
