package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hugh/meetly/internal/api/handlers"
	"github.com/hugh/meetly/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Health(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	handler := handlers.NewHealthHandler(tc.DB, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	handler.Health(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp handlers.HealthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "meetly", resp.Service)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Services["database"])
}

func TestHealthHandler_Ready(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	handler := handlers.NewHealthHandler(tc.DB, nil)

	req := httptest.NewRequest("GET", "/ready", nil)
	rr := httptest.NewRecorder()
	handler.Ready(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
