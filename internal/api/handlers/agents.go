package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/meetly/internal/api/dto"
	"github.com/hugh/meetly/internal/api/middleware"
	"github.com/hugh/meetly/internal/database/models"
	"gorm.io/gorm"
)

type AgentHandler struct {
	db *gorm.DB
}

func NewAgentHandler(db *gorm.DB) *AgentHandler {
	return &AgentHandler{db: db}
}

// CreateAgentRequest represents the request to create an agent
type CreateAgentRequest struct {
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
}

func (r CreateAgentRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	if r.Instructions == "" {
		errors["instructions"] = "Instructions are required"
	}
	return errors
}

// AgentResponse represents an agent in API responses
type AgentResponse struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func agentToResponse(a *models.Agent) AgentResponse {
	return AgentResponse{
		ID:           a.ID.String(),
		UserID:       a.UserID.String(),
		Name:         a.Name,
		Instructions: a.Instructions,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    a.UpdatedAt.Format(time.RFC3339),
	}
}

// Create handles POST /api/v1/agents
func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	agent := models.Agent{
		UserID:       userID,
		Name:         req.Name,
		Instructions: req.Instructions,
	}

	if err := h.db.Create(&agent).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create agent"})
		return
	}

	writeJSON(w, http.StatusCreated, agentToResponse(&agent))
}

// List handles GET /api/v1/agents. Reads are not scoped to an owner; see the
// TODO on the route registration.
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	var agents []models.Agent
	if err := h.db.Order("created_at DESC").Find(&agents).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list agents"})
		return
	}

	response := make([]AgentResponse, len(agents))
	for i, a := range agents {
		response[i] = agentToResponse(&a)
	}

	writeJSON(w, http.StatusOK, response)
}

// Get handles GET /api/v1/agents/:id
func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid agent ID"})
		return
	}

	var agent models.Agent
	if err := h.db.First(&agent, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Agent not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get agent"})
		return
	}

	writeJSON(w, http.StatusOK, agentToResponse(&agent))
}
