package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/careerforge/careerforge/models"
)

// API is the server contract the store reconciles against
type API interface {
	SendMessage(ctx context.Context, req models.ChatRequest) (*models.ChatReply, error)
	ListSessions(ctx context.Context) ([]models.SessionView, error)
	GetSession(ctx context.Context, id string) (*models.SessionView, error)
	EndSession(ctx context.Context, id string) (*models.SessionView, error)
	DeleteSession(ctx context.Context, id string) error
}

// HTTPClient talks to the chat API over HTTP
type HTTPClient struct {
	BaseURL string // e.g. http://localhost:8080/api
	UserID  string
	HTTP    *http.Client
}

// NewHTTPClient creates a client for the API at baseURL acting as userID
func NewHTTPClient(baseURL, userID string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		UserID:  userID,
		HTTP:    &http.Client{Timeout: 2 * time.Minute},
	}
}

// SendMessage posts a chat turn. Requests carrying document text go to the
// document endpoint.
func (c *HTTPClient) SendMessage(ctx context.Context, req models.ChatRequest) (*models.ChatReply, error) {
	path := "/chat"
	if strings.TrimSpace(req.DocumentText) != "" {
		path = "/chat/document"
	}
	var reply models.ChatReply
	if err := c.do(ctx, http.MethodPost, path, req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context) ([]models.SessionView, error) {
	var list models.SessionList
	if err := c.do(ctx, http.MethodGet, "/chat/sessions", nil, &list); err != nil {
		return nil, err
	}
	return list.Sessions, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, id string) (*models.SessionView, error) {
	var view models.SessionView
	if err := c.do(ctx, http.MethodGet, "/chat/session/"+url.PathEscape(id), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) EndSession(ctx context.Context, id string) (*models.SessionView, error) {
	var view models.SessionView
	if err := c.do(ctx, http.MethodPut, "/chat/session/"+url.PathEscape(id)+"/end", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/chat/session/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-User-ID", c.UserID)

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
		}
	}

	if resp.StatusCode >= 300 || env.Status == models.StatusError {
		return newAPIError(resp.StatusCode, env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s %s: decoding data: %w", method, path, err)
		}
	}
	return nil
}
