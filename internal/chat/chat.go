// Package chat defines the wire-level types shared by the API server,
// the client SDK and the terminal UI.
package chat

// Room is the database key of the single shared chat room. There is no
// multi-room support; every message lives under this key.
const Room = "group_chat"

// Message is one chat room entry. Messages are append-only: once written
// under their own id they are never mutated or deleted.
type Message struct {
	// ID is the store-generated key the message is written under.
	// Keys are unique and monotonically orderable by generation time.
	ID string `json:"id"`

	// Text is the message body. Blank messages are never written.
	Text string `json:"text"`

	// SenderName is the display name the sender resolved at send time.
	// It labels the message but never decides ownership.
	SenderName string `json:"senderName"`

	// SenderID references the sender's user id. Rendering a message as
	// "mine" compares this against the current session id, so display
	// name collisions cannot misattribute messages.
	SenderID string `json:"senderId"`

	// Timestamp is client wall-clock milliseconds at send time.
	Timestamp int64 `json:"timestamp"`
}

// Profile is the user document kept in the directory under users/<uid>.
type Profile struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	NotifyToken string `json:"notifyToken,omitempty"`
}
