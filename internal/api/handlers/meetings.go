package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/meetly/internal/api/dto"
	"github.com/hugh/meetly/internal/api/middleware"
	"github.com/hugh/meetly/internal/database/models"
	"github.com/hugh/meetly/internal/stream"
	"github.com/hugh/meetly/pkg/util"
	"gorm.io/gorm"
)

type MeetingHandler struct {
	db     *gorm.DB
	stream stream.Service
}

func NewMeetingHandler(db *gorm.DB, streamService stream.Service) *MeetingHandler {
	return &MeetingHandler{db: db, stream: streamService}
}

// CreateMeetingRequest represents the request to create a meeting
type CreateMeetingRequest struct {
	Name    string `json:"name"`
	AgentID string `json:"agent_id"`
}

func (r CreateMeetingRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	if r.AgentID == "" {
		errors["agent_id"] = "Agent is required"
	} else if _, err := uuid.Parse(r.AgentID); err != nil {
		errors["agent_id"] = "Invalid agent ID"
	}
	return errors
}

// UpdateMeetingRequest carries partial updates: nil fields are untouched,
// present fields overwrite.
type UpdateMeetingRequest struct {
	Name    *string `json:"name,omitempty"`
	AgentID *string `json:"agent_id,omitempty"`
}

func (r UpdateMeetingRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name != nil && *r.Name == "" {
		errors["name"] = "Name is required"
	}
	if r.AgentID != nil {
		if *r.AgentID == "" {
			errors["agent_id"] = "Agent is required"
		} else if _, err := uuid.Parse(*r.AgentID); err != nil {
			errors["agent_id"] = "Invalid agent ID"
		}
	}
	return errors
}

// MeetingResponse represents a meeting in API responses
type MeetingResponse struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	AgentID   string         `json:"agent_id"`
	Name      string         `json:"name"`
	Status    string         `json:"status"`
	StartedAt *time.Time     `json:"started_at,omitempty"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
	Duration  *float64       `json:"duration,omitempty"`
	Agent     *AgentResponse `json:"agent,omitempty"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

func meetingToResponse(m *models.Meeting) MeetingResponse {
	resp := MeetingResponse{
		ID:        m.ID.String(),
		UserID:    m.UserID.String(),
		AgentID:   m.AgentID.String(),
		Name:      m.Name,
		Status:    string(m.Status),
		StartedAt: m.StartedAt,
		EndedAt:   m.EndedAt,
		Duration:  m.Duration(),
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
		UpdatedAt: m.UpdatedAt.Format(time.RFC3339),
	}
	if m.Agent != nil {
		agent := agentToResponse(m.Agent)
		resp.Agent = &agent
	}
	return resp
}

// meetingQuery holds the filters for meeting reads: a conjunctive predicate
// list always anchored on the owner.
type meetingQuery struct {
	userID  uuid.UUID
	search  string
	agentID *uuid.UUID
	status  models.MeetingStatus
}

func (q meetingQuery) apply(db *gorm.DB) *gorm.DB {
	// Inner join: a row whose agent is gone (the non-atomic create can leave
	// one behind) is never surfaced by reads.
	db = db.InnerJoins("Agent").Where("meetings.user_id = ?", q.userID)
	if q.search != "" {
		// ILIKE is Postgres-only; lower/LIKE behaves the same on Postgres and
		// the SQLite test store.
		db = db.Where("lower(meetings.name) LIKE ?", "%"+strings.ToLower(q.search)+"%")
	}
	if q.status != "" {
		db = db.Where("meetings.status = ?", q.status)
	}
	if q.agentID != nil {
		db = db.Where("meetings.agent_id = ?", *q.agentID)
	}
	return db
}

// List handles GET /api/v1/meetings
func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	// Parse pagination
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	pagination := dto.PaginationParams{Page: page, PageSize: pageSize}
	pagination.Normalize()

	// Parse filters
	query := meetingQuery{
		userID: userID,
		search: r.URL.Query().Get("search"),
	}

	if status := r.URL.Query().Get("status"); status != "" {
		if !models.ValidMeetingStatus(status) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid status"})
			return
		}
		query.status = models.MeetingStatus(status)
	}

	if agentIDStr := r.URL.Query().Get("agent_id"); agentIDStr != "" {
		agentID, err := uuid.Parse(agentIDStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid agent ID"})
			return
		}
		query.agentID = &agentID
	}

	// Total is a separate count over the identical predicate so it stays
	// correct regardless of the requested page.
	var total int64
	if err := query.apply(h.db.Model(&models.Meeting{})).Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count meetings"})
		return
	}

	// Id is the tiebreak so pagination stays stable when creation timestamps
	// collide.
	var meetings []models.Meeting
	if err := query.apply(h.db).
		Order("meetings.created_at DESC, meetings.id DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PageSize).
		Find(&meetings).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list meetings"})
		return
	}

	items := make([]MeetingResponse, len(meetings))
	for i, m := range meetings {
		items[i] = meetingToResponse(&m)
	}

	writeJSON(w, http.StatusOK, dto.ListResponse{
		Items:      items,
		Total:      total,
		TotalPages: pagination.TotalPages(total),
	})
}

// Get handles GET /api/v1/meetings/:id
func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid meeting ID"})
		return
	}

	// The id+owner predicate makes "doesn't exist" and "not yours"
	// indistinguishable on purpose. The agent join also hides rows left
	// orphaned by a failed create.
	var meeting models.Meeting
	if err := h.db.InnerJoins("Agent").
		Where("meetings.id = ? AND meetings.user_id = ?", id, userID).
		First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Meeting not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get meeting"})
		return
	}

	writeJSON(w, http.StatusOK, meetingToResponse(&meeting))
}

// Create handles POST /api/v1/meetings
func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	agentID, _ := uuid.Parse(req.AgentID)

	meeting := models.Meeting{
		UserID:  userID,
		AgentID: agentID,
		Name:    req.Name,
		Status:  models.MeetingStatusUpcoming,
	}

	if err := h.db.Create(&meeting).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create meeting"})
		return
	}

	// The insert and the call provisioning below are not atomic: if Stream
	// rejects the call or the agent turns out not to exist, the row above
	// stays behind. No compensating delete is performed.
	// TODO: add a reconciliation task that re-provisions or removes meetings
	// whose call setup failed.
	if h.stream != nil {
		err := h.stream.CreateCall(r.Context(), "default", meeting.ID.String(), stream.CallData{
			CreatedByID: userID.String(),
			Custom: map[string]interface{}{
				"meeting_id":   meeting.ID.String(),
				"meeting_name": meeting.Name,
			},
			SettingsOverride: &stream.CallSettings{
				Transcription: &stream.TranscriptionSettings{
					Language:          "en",
					Mode:              "auto-on",
					ClosedCaptionMode: "auto-on",
				},
				Recording: &stream.RecordingSettings{
					Mode:    "auto-on",
					Quality: "1080p",
				},
			},
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to provision call"})
			return
		}
	}

	var agent models.Agent
	if err := h.db.First(&agent, "id = ?", agentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Agent not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create meeting"})
		return
	}

	if h.stream != nil {
		err := h.stream.UpsertUsers(r.Context(), []stream.User{
			{
				ID:    agent.ID.String(),
				Name:  agent.Name,
				Role:  "user",
				Image: util.AvatarURI(agent.Name),
			},
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to register agent participant"})
			return
		}
	}

	meeting.Agent = &agent
	writeJSON(w, http.StatusCreated, meetingToResponse(&meeting))
}

// Update handles PUT /api/v1/meetings/:id
func (h *MeetingHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid meeting ID"})
		return
	}

	var meeting models.Meeting
	if err := h.db.Where("id = ? AND user_id = ?", id, userID).
		First(&meeting).Error; err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Meeting not found"})
		return
	}

	var req UpdateMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	// Apply updates
	if req.Name != nil {
		meeting.Name = *req.Name
	}
	if req.AgentID != nil {
		agentID, _ := uuid.Parse(*req.AgentID)
		meeting.AgentID = agentID
	}

	if err := h.db.Save(&meeting).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update meeting"})
		return
	}

	writeJSON(w, http.StatusOK, meetingToResponse(&meeting))
}

// Delete handles DELETE /api/v1/meetings/:id. The deleted row's snapshot is
// returned to the caller.
func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid meeting ID"})
		return
	}

	var meeting models.Meeting
	if err := h.db.Preload("Agent").
		Where("id = ? AND user_id = ?", id, userID).
		First(&meeting).Error; err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Meeting not found"})
		return
	}

	if err := h.db.Delete(&meeting).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete meeting"})
		return
	}

	writeJSON(w, http.StatusOK, meetingToResponse(&meeting))
}

// GenerateToken handles POST /api/v1/meetings/token. It registers the caller
// with Stream and returns a short-lived client token for joining calls.
func (h *MeetingHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if h.stream == nil {
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Call service not configured"})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		return
	}

	name := user.Name
	if name == "" {
		name = user.Email
	}
	image := user.Image
	if image == "" {
		image = util.AvatarURI(name)
	}

	err := h.stream.UpsertUsers(r.Context(), []stream.User{
		{
			ID:    user.ID.String(),
			Name:  name,
			Role:  "admin",
			Image: image,
		},
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to register participant"})
		return
	}

	now := time.Now()
	token, err := h.stream.GenerateUserToken(user.ID.String(), now.Add(-time.Minute), now.Add(time.Hour))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to generate token"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
