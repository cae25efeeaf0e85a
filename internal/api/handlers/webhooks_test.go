package handlers_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/meetly/internal/api/handlers"
	"github.com/hugh/meetly/internal/database/models"
	"github.com/hugh/meetly/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "webhook-test-secret"

func setupWebhookTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := handlers.NewWebhookHandler(tc.DB, testWebhookSecret, nil, logger)

	r := chi.NewRouter()
	r.Post("/api/v1/webhooks/stream", handler.HandleStream)

	return r, tc
}

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func webhookRequest(body []byte, signature string) *http.Request {
	req := httptest.NewRequest("POST", "/api/v1/webhooks/stream", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Signature", signature)
	}
	return req
}

func TestWebhookHandler_Signature(t *testing.T) {
	router, tc := setupWebhookTestRouter(t)
	defer tc.Cleanup()

	body := []byte(`{"type":"call.session_started","call_cid":"default:` + uuid.New().String() + `"}`)

	t.Run("missing signature", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, webhookRequest(body, ""))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrong signature", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, webhookRequest(body, "deadbeef"))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestWebhookHandler_SessionStarted(t *testing.T) {
	router, tc := setupWebhookTestRouter(t)
	defer tc.Cleanup()

	agent := testutil.CreateTestAgent(t, tc.DB, tc.User.ID, "Tutor")
	meeting := testutil.CreateTestMeeting(t, tc.DB, tc.User.ID, agent.ID, "Session")

	body := []byte(fmt.Sprintf(`{"type":"call.session_started","call_cid":"default:%s"}`, meeting.ID))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, webhookRequest(body, signBody(body)))

	assert.Equal(t, http.StatusOK, rr.Code, "Body: %s", rr.Body.String())

	var updated models.Meeting
	require.NoError(t, tc.DB.First(&updated, "id = ?", meeting.ID).Error)
	assert.Equal(t, models.MeetingStatusActive, updated.Status)
	assert.NotNil(t, updated.StartedAt)
	assert.Nil(t, updated.EndedAt)
}

func TestWebhookHandler_SessionEnded(t *testing.T) {
	router, tc := setupWebhookTestRouter(t)
	defer tc.Cleanup()

	agent := testutil.CreateTestAgent(t, tc.DB, tc.User.ID, "Tutor")
	meeting := testutil.CreateTestMeeting(t, tc.DB, tc.User.ID, agent.ID, "Session")
	tc.DB.Model(meeting).Update("status", models.MeetingStatusActive)

	body := []byte(fmt.Sprintf(`{"type":"call.session_ended","call_cid":"default:%s"}`, meeting.ID))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, webhookRequest(body, signBody(body)))

	assert.Equal(t, http.StatusOK, rr.Code, "Body: %s", rr.Body.String())

	var updated models.Meeting
	require.NoError(t, tc.DB.First(&updated, "id = ?", meeting.ID).Error)
	assert.Equal(t, models.MeetingStatusProcessing, updated.Status)
	assert.NotNil(t, updated.EndedAt)
}

func TestWebhookHandler_EdgeCases(t *testing.T) {
	router, tc := setupWebhookTestRouter(t)
	defer tc.Cleanup()

	t.Run("unknown event type is acknowledged", func(t *testing.T) {
		body := []byte(`{"type":"call.reaction_new","call_cid":"default:whatever"}`)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, webhookRequest(body, signBody(body)))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("malformed call cid", func(t *testing.T) {
		body := []byte(`{"type":"call.session_started","call_cid":"garbage"}`)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, webhookRequest(body, signBody(body)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown meeting", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"type":"call.session_ended","call_cid":"default:%s"}`, uuid.New()))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, webhookRequest(body, signBody(body)))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		body := []byte(`{nope`)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, webhookRequest(body, signBody(body)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
