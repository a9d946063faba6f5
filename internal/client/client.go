// Package client is the SDK the terminal UI talks to the backend
// through. It exposes exactly the collaborator surfaces the UI consumes:
// the identity provider (sign in, create account, sign out, current
// session), the path-keyed user directory, and the shared room's message
// log with its live subscription.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Session is the authenticated user context, or its absence (nil). It is
// only ever mutated by explicit sign-in and sign-out; every other caller
// just observes it.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Client talks to one backend. It is used from the UI's event loop and
// its command goroutines; the mutable session pointer is only touched by
// the sign-in/sign-out/current-session calls, which the UI serializes.
type Client struct {
	baseURL     string
	httpc       *http.Client
	sessionFile string
	session     *Session
}

// New returns a Client for the backend at baseURL. sessionFile is where
// the signed-in session is persisted between runs; pass the result of
// DefaultSessionFile outside of tests.
func New(baseURL string, sessionFile string) *Client {
	return &Client{
		baseURL:     baseURL,
		httpc:       &http.Client{Timeout: 15 * time.Second},
		sessionFile: sessionFile,
	}
}

// DefaultSessionFile returns the session path under the user config dir.
func DefaultSessionFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "heloha", "session.json"), nil
}

// apiError is the backend's error body. Its text is surfaced verbatim in
// notifications, so it is the error string here too.
type apiError struct {
	Error string `json:"error"`
}

// doJSON performs a request with optional bearer token and JSON body,
// decodes a 2xx JSON response into out (when non-nil), and turns any
// other status into an error carrying the backend's message.
func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func errorFromResponse(resp *http.Response) error {
	var ae apiError
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&ae); err == nil && ae.Error != "" {
		return fmt.Errorf("%s", ae.Error)
	}
	return fmt.Errorf("server returned %s", resp.Status)
}

// token returns the current session token, or "".
func (c *Client) token() string {
	if c.session == nil {
		return ""
	}
	return c.session.Token
}
