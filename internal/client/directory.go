package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// Read fetches the value stored at a directory path. Absence is not an
// error: it returns ok == false, which for a reservation check is the
// answer "this name is free".
func (c *Client) Read(ctx context.Context, path string) (json.RawMessage, bool, error) {
	return c.readWithToken(ctx, path, c.token())
}

func (c *Client) readWithToken(ctx context.Context, path, token string) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/db/"+path, nil)
	if err != nil {
		return nil, false, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, false, err
		}
		return json.RawMessage(raw), true, nil
	case http.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, errorFromResponse(resp)
	}
}

// Write upserts a JSON value at a directory path.
func (c *Client) Write(ctx context.Context, path string, value interface{}) error {
	return c.writeWithToken(ctx, path, c.token(), value)
}

func (c *Client) writeWithToken(ctx context.Context, path, token string, value interface{}) error {
	buf, err := json.Marshal(value)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/v1/db/"+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
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
	return nil
}
