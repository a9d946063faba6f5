package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/heloha-app/heloha/internal/chat"
)

// GenerateKey asks the store for a fresh message key. The key is minted
// before the write so the message can be stored under its own id.
func (c *Client) GenerateKey(ctx context.Context) (string, error) {
	var resp struct {
		Key string `json:"key"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/chat/keys", c.token(), nil, &resp); err != nil {
		return "", err
	}
	return resp.Key, nil
}

// WriteMessage appends a message keyed by its own id, fire-and-forget:
// the call returns immediately, no acknowledgment is awaited and a failed
// write is not retried or reported. The subscription delivering the
// committed entry back is the only confirmation the UI ever sees.
func (c *Client) WriteMessage(msg chat.Message) {
	token := c.token()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = c.doJSON(ctx, http.MethodPut, "/v1/chat/messages/"+msg.ID, token, msg, nil)
	}()
}

// Subscription is a live feed of appended room entries. It stays active
// from SubscribeAppended until Close; Close is safe to call more than
// once and from any goroutine.
type Subscription struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	done      chan struct{}
}

// Close releases the subscription. When it returns, the callback will not
// run again: it waits for the delivery goroutine to finish, so a screen
// being torn down cannot receive an entry afterwards.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
	<-s.done
}

// SubscribeAppended opens a live subscription to the room log. onEntry is
// invoked sequentially, one entry at a time, in the order the store
// committed them: the existing log first, then each new append. Entries
// that fail to decode are dropped without signal — the feed keeps going.
//
// The subscription must be released with Close when the owning screen
// goes away; ctx only bounds the dial, not the subscription's lifetime.
// onEntry must not block indefinitely: Close waits for an in-flight call
// to return before it reports the feed torn down.
func (c *Client) SubscribeAppended(ctx context.Context, onEntry func(chat.Message)) (*Subscription, error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/v1/chat/stream?token=" + c.token()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}

	sub := &Subscription{conn: conn, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				// closed locally or by the server; either way the
				// subscription is over
				return
			}
			var msg chat.Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue // malformed entry: silently dropped
			}
			onEntry(msg)
		}
	}()

	return sub, nil
}
