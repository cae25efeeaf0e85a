package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/meetly/internal/api/handlers"
	"github.com/hugh/meetly/internal/api/middleware"
	"github.com/hugh/meetly/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAgentTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	r := chi.NewRouter()
	handler := handlers.NewAgentHandler(tc.DB)

	// Reads are public, creation requires auth
	r.Get("/api/v1/agents", handler.List)
	r.Get("/api/v1/agents/{id}", handler.Get)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Post("/api/v1/agents", handler.Create)
	})

	return r, tc
}

func TestAgentHandler_Create(t *testing.T) {
	router, tc := setupAgentTestRouter(t)
	defer tc.Cleanup()

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
	}{
		{
			name: "create agent",
			body: map[string]interface{}{
				"name":         "Language Tutor",
				"instructions": "Help the user practice conversational Spanish.",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "missing name",
			body: map[string]interface{}{
				"instructions": "No name given.",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "missing instructions",
			body: map[string]interface{}{
				"name": "Nameless",
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/agents", tt.body, tc.Token)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code, "Body: %s", rr.Body.String())

			if tt.wantStatus == http.StatusCreated {
				var resp handlers.AgentResponse
				err := json.Unmarshal(rr.Body.Bytes(), &resp)
				require.NoError(t, err)
				assert.NotEmpty(t, resp.ID)
				assert.Equal(t, tt.body["name"], resp.Name)
				assert.Equal(t, tt.body["instructions"], resp.Instructions)
				assert.Equal(t, tc.User.ID.String(), resp.UserID)
			}
		})
	}

	t.Run("requires auth", func(t *testing.T) {
		body := map[string]interface{}{
			"name":         "Sneaky",
			"instructions": "Created without a token.",
		}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/agents", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAgentHandler_List(t *testing.T) {
	router, tc := setupAgentTestRouter(t)
	defer tc.Cleanup()

	testutil.CreateTestAgent(t, tc.DB, tc.User.ID, "Agent One")
	testutil.CreateTestAgent(t, tc.DB, tc.User.ID, "Agent Two")

	// Agents owned by another user show up too: reads aren't scoped yet.
	otherUser := testutil.CreateTestUser(t, tc.DB)
	testutil.CreateTestAgent(t, tc.DB, otherUser.ID, "Other Agent")

	t.Run("list without a token", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/agents", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp []handlers.AgentResponse
		err := json.Unmarshal(rr.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Len(t, resp, 3)
	})
}

func TestAgentHandler_Get(t *testing.T) {
	router, tc := setupAgentTestRouter(t)
	defer tc.Cleanup()

	agent := testutil.CreateTestAgent(t, tc.DB, tc.User.ID, "Math Tutor")

	t.Run("get without a token", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/agents/"+agent.ID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp handlers.AgentResponse
		err := json.Unmarshal(rr.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, agent.ID.String(), resp.ID)
		assert.Equal(t, "Math Tutor", resp.Name)
	})

	t.Run("get non-existent agent", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/agents/"+uuid.New().String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid uuid", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/agents/not-a-uuid", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
