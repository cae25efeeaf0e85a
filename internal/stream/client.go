package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hugh/meetly/pkg/config"
)

// User is a participant record pushed to Stream before a call. Both the
// meeting owner and the agent persona are registered this way.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Image string `json:"image,omitempty"`
}

type TranscriptionSettings struct {
	Language          string `json:"language"`
	Mode              string `json:"mode"`
	ClosedCaptionMode string `json:"closed_caption_mode"`
}

type RecordingSettings struct {
	Mode    string `json:"mode"`
	Quality string `json:"quality"`
}

type CallSettings struct {
	Transcription *TranscriptionSettings `json:"transcription,omitempty"`
	Recording     *RecordingSettings     `json:"recording,omitempty"`
}

// CallData is the payload for call creation.
type CallData struct {
	CreatedByID      string                 `json:"created_by_id"`
	Custom           map[string]interface{} `json:"custom,omitempty"`
	SettingsOverride *CallSettings          `json:"settings_override,omitempty"`
}

type Client struct {
	apiKey     string
	apiSecret  []byte
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg *config.StreamConfig) *Client {
	return &Client{
		apiKey:    cfg.APIKey,
		apiSecret: []byte(cfg.APISecret),
		baseURL:   cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// UpsertUsers creates or updates users on the Stream side.
func (c *Client) UpsertUsers(ctx context.Context, users []User) error {
	byID := make(map[string]User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	return c.post(ctx, "/api/v2/video/users", map[string]interface{}{
		"users": byID,
	})
}

// CreateCall provisions a call of the given type and id. Call ids mirror
// meeting ids so webhooks can be mapped back to a row.
func (c *Client) CreateCall(ctx context.Context, callType, callID string, data CallData) error {
	path := fmt.Sprintf("/api/v2/video/call/%s/%s", callType, callID)
	return c.post(ctx, path, map[string]interface{}{
		"data": data,
	})
}

// GenerateUserToken issues a client-side Stream token for the given user.
// Stream user tokens are plain HS256 JWTs signed with the API secret.
func (c *Client) GenerateUserToken(userID string, issuedAt, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     issuedAt.Unix(),
		"exp":     expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.apiSecret)
}

// serverToken signs the server-to-server JWT used on REST calls.
func (c *Client) serverToken() (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"server": true,
		"iat":    time.Now().Unix(),
	})
	return token.SignedString(c.apiSecret)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path+"?api_key="+c.apiKey, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	token, err := c.serverToken()
	if err != nil {
		return fmt.Errorf("sign server token: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("stream-auth-type", "jwt")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("stream %s returned %d: %s", path, resp.StatusCode, snippet)
	}

	return nil
}
