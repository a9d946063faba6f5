package client

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn authenticates with email and password. On success the session is
// kept in memory and persisted to the session file so the next splash
// check finds it.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var sess Session
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/login", "", credentials{Email: email, Password: password}, &sess)
	if err != nil {
		return nil, err
	}

	c.session = &sess
	// persistence is best-effort: a read-only config dir degrades to a
	// per-process session, not a failed login
	_ = c.saveSession(&sess)
	return &sess, nil
}

// CreateAccount registers a new identity. The returned session is NOT
// persisted: sign-up finishes by sending the user back to the login
// screen, so the token only lives long enough for the profile writes
// that follow registration.
func (c *Client) CreateAccount(ctx context.Context, email, password string) (*Session, error) {
	var sess Session
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/register", "", credentials{Email: email, Password: password}, &sess)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// SignOut forgets the session in memory and on disk.
func (c *Client) SignOut() {
	c.session = nil
	if c.sessionFile != "" {
		_ = os.Remove(c.sessionFile)
	}
}

// CurrentSession performs the one-shot session check the splash screen
// routes on: load the persisted session, confirm it with the backend,
// and return it — or nil for "not logged in". An unreachable backend is
// answered with nil too; the check is never retried and never surfaces
// an error.
func (c *Client) CurrentSession(ctx context.Context) *Session {
	sess := c.loadSession()
	if sess == nil {
		return nil
	}
	if !sess.ExpiresAt.IsZero() && time.Now().After(sess.ExpiresAt) {
		return nil
	}

	if err := c.doJSON(ctx, http.MethodGet, "/v1/session", sess.Token, nil, nil); err != nil {
		return nil
	}

	c.session = sess
	return sess
}

func (c *Client) loadSession() *Session {
	if c.sessionFile == "" {
		return nil
	}
	data, err := os.ReadFile(c.sessionFile)
	if err != nil {
		return nil
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil
	}
	return &sess
}

func (c *Client) saveSession(sess *Session) error {
	if c.sessionFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.sessionFile), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return os.WriteFile(c.sessionFile, data, 0o600)
}
