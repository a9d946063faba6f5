package tui

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/heloha-app/heloha/internal/chat"
	"github.com/heloha-app/heloha/internal/client"
)

// Subscription is a live message feed the chat screen owns and must
// release when it goes away.
type Subscription interface {
	Close()
}

// Backend is everything the UI asks of the outside world. The real
// implementation wraps client.Client; tests plug in fakes.
type Backend interface {
	CurrentSession(ctx context.Context) *client.Session
	SignIn(ctx context.Context, email, password string) (*client.Session, error)
	SignUp(ctx context.Context, name, email, password string) error
	SignOut()
	Read(ctx context.Context, path string) (json.RawMessage, bool, error)
	GenerateKey(ctx context.Context) (string, error)
	WriteMessage(msg chat.Message)
	SubscribeAppended(ctx context.Context, onEntry func(chat.Message)) (Subscription, error)
}

type clientBackend struct {
	*client.Client
}

func (b clientBackend) SubscribeAppended(ctx context.Context, onEntry func(chat.Message)) (Subscription, error) {
	sub, err := b.Client.SubscribeAppended(ctx, onEntry)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// NewBackend adapts a client.Client to the Backend the UI runs on.
func NewBackend(c *client.Client) Backend {
	return clientBackend{Client: c}
}

// --- Messages ---

type splashDoneMsg struct{}

type sessionCheckedMsg struct {
	sess *client.Session
}

type signInResultMsg struct {
	sess *client.Session
	err  error
}

type signUpResultMsg struct {
	err error
}

type subscribedMsg struct {
	sub     Subscription
	entries chan chat.Message
	err     error
}

type entryArrivedMsg struct {
	msg chat.Message
}

type displayNameMsg struct {
	name string
}

type toastClearMsg struct {
	seq int
}

// --- Commands ---

func checkSessionCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return sessionCheckedMsg{sess: b.CurrentSession(ctx)}
	}
}

func signInCmd(b Backend, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		sess, err := b.SignIn(ctx, email, password)
		return signInResultMsg{sess: sess, err: err}
	}
}

func signUpCmd(b Backend, name, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return signUpResultMsg{err: b.SignUp(ctx, name, email, password)}
	}
}

// feedSub pairs the backend subscription with the done channel that
// unblocks a delivery callback parked on a full entries channel. done
// closes before the inner Close: the inner Close waits for the delivery
// goroutine, and a callback still blocked on the send would hold that
// goroutine forever.
type feedSub struct {
	sub  Subscription
	done chan struct{}
	once sync.Once
}

func (f *feedSub) Close() {
	f.once.Do(func() { close(f.done) })
	f.sub.Close()
}

// subscribeCmd opens the room feed. Entries land on a buffered channel
// that waitForEntry drains back into the event loop one at a time, which
// keeps delivery order intact. Once the subscription is closed, pending
// entries are abandoned instead of blocking the sender.
func subscribeCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		entries := make(chan chat.Message, 64)
		done := make(chan struct{})
		sub, err := b.SubscribeAppended(context.Background(), func(m chat.Message) {
			select {
			case entries <- m:
			case <-done:
			}
		})
		if err != nil {
			return subscribedMsg{err: err}
		}
		return subscribedMsg{sub: &feedSub{sub: sub, done: done}, entries: entries}
	}
}

func waitForEntry(entries <-chan chat.Message) tea.Cmd {
	return func() tea.Msg {
		return entryArrivedMsg{msg: <-entries}
	}
}

// fetchDisplayNameCmd resolves the signed-in user's name once. Absent or
// empty resolves to "Anonymous"; a failed read resolves to nothing and
// the placeholder stays.
func fetchDisplayNameCmd(b Backend, uid string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		raw, ok, err := b.Read(ctx, "users/"+uid+"/name")
		if err != nil {
			return nil
		}
		if !ok {
			return displayNameMsg{name: "Anonymous"}
		}
		var name string
		if err := json.Unmarshal(raw, &name); err != nil || name == "" {
			return displayNameMsg{name: "Anonymous"}
		}
		return displayNameMsg{name: name}
	}
}

// sendMessageCmd generates a key and fires off the write. Nothing is
// reported back: the message shows up when the subscription delivers it.
func sendMessageCmd(b Backend, text, senderName, senderID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		key, err := b.GenerateKey(ctx)
		if err != nil {
			return nil
		}
		b.WriteMessage(chat.Message{
			ID:         key,
			Text:       text,
			SenderName: senderName,
			SenderID:   senderID,
			Timestamp:  time.Now().UnixMilli(),
		})
		return nil
	}
}
