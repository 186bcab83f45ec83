// Package api is the client for the time-tracking REST contract: JWT login
// and refresh, monthly entry listing, and entry create/update/delete. The
// wire format keeps the backend's French field names (projet, temps, nom).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/existflow/timegrid/internal/config"
	"github.com/existflow/timegrid/internal/logger"
	"github.com/existflow/timegrid/internal/model"
)

// ErrNotLoggedIn is returned when a call needs a session and none exists or
// the refresh token was rejected.
var ErrNotLoggedIn = errors.New("not logged in, run 'timegrid auth login'")

// Client talks to the time-tracking server. The session (access + refresh
// token and user identity) is persisted under ~/.timegrid/session.json so it
// survives restarts.
type Client struct {
	baseURL     string
	sessionPath string
	session     *model.Session
	httpClient  *http.Client

	// onLogout, when set, is invoked after a failed token refresh tears the
	// session down. The TUI uses it to clear its cache and bail out.
	onLogout func()
}

// NewClient creates a client for the given base URL and loads any persisted
// session.
func NewClient(baseURL string) (*Client, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:     baseURL,
		sessionPath: filepath.Join(dir, "session.json"),
		session:     &model.Session{},
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	c.loadSession()
	return c, nil
}

// OnLogout registers the session-teardown callback.
func (c *Client) OnLogout(fn func()) { c.onLogout = fn }

// Session returns the current session.
func (c *Client) Session() *model.Session { return c.session }

// IsLoggedIn reports whether a token pair is present.
func (c *Client) IsLoggedIn() bool { return c.session.LoggedIn() }

func (c *Client) loadSession() {
	data, err := os.ReadFile(c.sessionPath)
	if err != nil {
		return
	}
	json.Unmarshal(data, c.session)
}

func (c *Client) saveSession() error {
	if err := os.MkdirAll(filepath.Dir(c.sessionPath), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.session, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.sessionPath, data, 0600)
}

// Login authenticates against /api/auth/login/ and persists the session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/auth/login/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: %w", newError(resp.StatusCode, respBody))
	}

	var result struct {
		Access   string `json:"access"`
		Refresh  string `json:"refresh"`
		ID       int    `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("decoding login response: %w", err)
	}

	*c.session = model.Session{
		Access:   result.Access,
		Refresh:  result.Refresh,
		UserID:   result.ID,
		Username: result.Username,
		Role:     result.Role,
	}
	logger.Info("logged in", logger.F("user", result.Username), logger.F("role", result.Role))
	return c.saveSession()
}

// Logout clears the persisted session.
func (c *Client) Logout() error {
	*c.session = model.Session{}
	return c.saveSession()
}

// refresh exchanges the refresh token for a new access token. A rejected
// refresh tears the session down and fires the logout callback.
func (c *Client) refresh(ctx context.Context) error {
	if c.session.Refresh == "" {
		return ErrNotLoggedIn
	}

	body, _ := json.Marshal(map[string]string{"refresh": c.session.Refresh})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/auth/refresh/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("token refresh rejected", logger.F("status", resp.StatusCode))
		_ = c.Logout()
		if c.onLogout != nil {
			c.onLogout()
		}
		return ErrNotLoggedIn
	}

	var result struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding refresh response: %w", err)
	}
	c.session.Access = result.Access
	return c.saveSession()
}

// do issues an authenticated request and decodes the JSON response into out
// (which may be nil). A 401 triggers one token refresh followed by one
// replay; 4xx/5xx responses become *Error values.
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	if !c.IsLoggedIn() {
		return ErrNotLoggedIn
	}

	send := func() (*http.Response, error) {
		var body io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, err
			}
			body = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Authorization", "Bearer "+c.session.Access)
		return c.httpClient.Do(req)
	}

	resp, err := send()
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if err := c.refresh(ctx); err != nil {
			return err
		}
		resp, err = send()
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return newError(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.do(ctx, http.MethodGet, "/api/users/me/", nil, &u)
	return u, err
}

// Users lists the users visible to the session (self, managed users, or
// everyone, depending on role).
func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := c.do(ctx, http.MethodGet, "/api/users/", nil, &users)
	return users, err
}

// Projects lists the projects visible to the session.
func (c *Client) Projects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	err := c.do(ctx, http.MethodGet, "/api/projets/", nil, &projects)
	return projects, err
}
