// Package cloudsync talks to the Supabase-style backend that stores one
// Backup Payload per user: email/password auth plus a user_data REST table.
package cloudsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/asifrahman2003/devpulse/internal/backup"
	"github.com/asifrahman2003/devpulse/internal/config"
	"github.com/asifrahman2003/devpulse/internal/store"
)

// SessionStore persists the signed-in account. *store.Store satisfies it.
type SessionStore interface {
	CloudSession() (*store.CloudSession, error)
	SaveCloudSession(cs store.CloudSession) error
	ClearCloudSession() error
}

// Snapshot is the most recent payload stored for the user.
type Snapshot struct {
	Payload   json.RawMessage
	UpdatedAt time.Time
}

type Client struct {
	cfg        config.SyncConfig
	baseURL    string
	anonKey    string
	httpClient *http.Client
	sessions   SessionStore
	logger     *slog.Logger
	now        func() time.Time
}

func New(cfg config.SyncConfig, sessions SessionStore, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		anonKey: strings.TrimSpace(cfg.AnonKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// Configured reports whether the sync endpoint is usable. It shares its
// definition with config.SyncConfig.Enabled.
func (c *Client) Configured() bool {
	return c.cfg.Enabled()
}

// Session returns the signed-in account, or nil.
func (c *Client) Session() (*store.CloudSession, error) {
	return c.sessions.CloudSession()
}

// SignUp creates an account. When the backend returns a session right away
// it is persisted; with email confirmation on, the result has no token.
func (c *Client) SignUp(ctx context.Context, email, password string) (*store.CloudSession, error) {
	return c.auth(ctx, "signup", "signup", email, password)
}

// SignIn exchanges email and password for a session and persists it.
func (c *Client) SignIn(ctx context.Context, email, password string) (*store.CloudSession, error) {
	return c.auth(ctx, "sign in", "token?grant_type=password", email, password)
}

func (c *Client) SignOut() error {
	return c.sessions.ClearCloudSession()
}

func (c *Client) auth(ctx context.Context, op, path, email, password string) (*store.CloudSession, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/"+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)

	data, err := c.do(req, op, "Authentication failed.")
	if err != nil {
		return nil, err
	}

	var cs store.CloudSession
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, &Error{Op: op, Message: "Authentication failed."}
	}
	if cs.AccessToken == "" || cs.User.ID == "" {
		c.logger.Info("auth succeeded without a session", "op", op)
		return &cs, nil
	}
	if err := c.sessions.SaveCloudSession(cs); err != nil {
		return nil, fmt.Errorf("persist cloud session: %w", err)
	}
	c.logger.Info("signed in", "user", cs.User.ID)
	return &cs, nil
}

type userDataRow struct {
	UserID    string         `json:"user_id"`
	Payload   backup.Payload `json:"payload"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Upload upserts p as the user's stored payload.
func (c *Client) Upload(ctx context.Context, p backup.Payload) error {
	cs, err := c.requireSession()
	if err != nil {
		return err
	}

	body, err := json.Marshal([]userDataRow{{
		UserID:    cs.User.ID,
		Payload:   p,
		UpdatedAt: c.now().UTC().Truncate(time.Millisecond),
	}})
	if err != nil {
		return fmt.Errorf("marshal upload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/v1/user_data", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	c.restHeaders(req, cs)
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=representation")

	if _, err := c.do(req, "upload", "Cloud upload failed."); err != nil {
		return err
	}
	c.logger.Info("uploaded payload", "sessions", len(p.Sessions))
	return nil
}

// Download fetches the user's most recent payload. It returns nil, nil when
// nothing is stored.
func (c *Client) Download(ctx context.Context) (*Snapshot, error) {
	cs, err := c.requireSession()
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("select", "payload,updated_at")
	q.Set("user_id", "eq."+cs.User.ID)
	q.Set("order", "updated_at.desc")
	q.Set("limit", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/v1/user_data?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	c.restHeaders(req, cs)

	data, err := c.do(req, "download", "Cloud download failed.")
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Payload   json.RawMessage `json:"payload"`
		UpdatedAt string          `json:"updated_at"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, &Error{Op: "download", Message: "Cloud download failed."}
	}
	if len(rows) == 0 || len(rows[0].Payload) == 0 || string(rows[0].Payload) == "null" {
		return nil, nil
	}

	snap := &Snapshot{Payload: rows[0].Payload}
	if t, err := time.Parse(time.RFC3339Nano, rows[0].UpdatedAt); err == nil {
		snap.UpdatedAt = t
	} else if rows[0].UpdatedAt != "" {
		c.logger.Warn("unreadable updated_at in download", "value", rows[0].UpdatedAt)
	}
	return snap, nil
}

func (c *Client) requireSession() (*store.CloudSession, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	cs, err := c.sessions.CloudSession()
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, ErrNotSignedIn
	}
	return cs, nil
}

func (c *Client) restHeaders(req *http.Request, cs *store.CloudSession) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+cs.AccessToken)
}

// do sends req and returns the response body. Transport failures and non-2xx
// responses become *Error with the best message the body offers.
func (c *Client) do(req *http.Request, op, fallback string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("sync request failed", "op", op, "error", err)
		return nil, &Error{Op: op, Message: fmt.Sprintf("%s %v", fallback, err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, Status: resp.StatusCode, Message: fallback}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(data, fallback)
		c.logger.Error("sync request rejected", "op", op, "status", resp.StatusCode, "message", msg)
		return nil, &Error{Op: op, Status: resp.StatusCode, Message: msg}
	}
	return data, nil
}

// errorMessage picks the first non-empty string among the fields the
// backend uses for errors.
func errorMessage(body []byte, fallback string) string {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return fallback
	}
	for _, k := range []string{"msg", "error_description", "message", "error"} {
		if s, ok := fields[k].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
