package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/heloha-app/heloha/internal/auth"
	"github.com/heloha-app/heloha/internal/chat"
	"github.com/heloha-app/heloha/internal/data"
	"github.com/heloha-app/heloha/internal/middleware"
	"github.com/heloha-app/heloha/internal/normalize"
)

// fakeAccounts provides the subset of AccountsStore used by the handlers.
type fakeAccounts struct {
	byEmail map[string]*data.Account
	creates int
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byEmail: map[string]*data.Account{}}
}

func (f *fakeAccounts) CreateAccount(ctx context.Context, email, hashedPassword string) (*data.Account, error) {
	f.creates++
	email = normalize.Email(email)
	if _, ok := f.byEmail[email]; ok {
		return nil, data.ErrEmailTaken
	}
	a := &data.Account{ID: bson.NewObjectID(), Email: email, Password: hashedPassword}
	f.byEmail[email] = a
	return a, nil
}

func (f *fakeAccounts) GetByEmail(ctx context.Context, email string) (*data.Account, error) {
	a, ok := f.byEmail[normalize.Email(email)]
	if !ok {
		return nil, fmt.Errorf("account not found")
	}
	return a, nil
}

// fakeDirectory stores values by exact path.
type fakeDirectory struct {
	values map[string]string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{values: map[string]string{}}
}

func (f *fakeDirectory) Read(ctx context.Context, path string) (json.RawMessage, error) {
	v, ok := f.values[path]
	if !ok {
		return nil, data.ErrAbsent
	}
	return json.RawMessage(v), nil
}

func (f *fakeDirectory) Write(ctx context.Context, path string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("directory: invalid value for %q", path)
	}
	f.values[path] = string(value)
	return nil
}

// fakeMessages records appended messages and mints sequential keys.
type fakeMessages struct {
	appended []chat.Message
	nextKey  int
}

func (f *fakeMessages) NewKey() string {
	f.nextKey++
	return bson.NewObjectID().Hex()
}

func (f *fakeMessages) Append(ctx context.Context, msg chat.Message) (bool, error) {
	for _, m := range f.appended {
		if m.ID == msg.ID {
			return false, nil // idempotent
		}
	}
	f.appended = append(f.appended, msg)
	return true, nil
}

type testEnv struct {
	ts       *httptest.Server
	accounts *fakeAccounts
	dir      *fakeDirectory
	msgs     *fakeMessages
	hub      *RoomHub
	jwt      *auth.JWTManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	accounts := newFakeAccounts()
	dir := newFakeDirectory()
	msgs := &fakeMessages{}
	hub := NewRoomHub()
	jwtMgr := auth.NewJWTManager("test-secret", time.Hour)

	limiter := middleware.NewLimiterStore(6000, 1000, time.Minute)
	t.Cleanup(limiter.Stop)

	srv := newServer(accounts, dir, msgs, jwtMgr, hub)
	ts := httptest.NewServer(srv.routes(limiter))
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, accounts: accounts, dir: dir, msgs: msgs, hub: hub, jwt: jwtMgr}
}

func (e *testEnv) register(t *testing.T, email, password string) sessionResponse {
	t.Helper()
	body, _ := json.Marshal(credentials{Email: email, Password: password})
	resp, err := http.Post(e.ts.URL+"/v1/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register returned %d", resp.StatusCode)
	}
	var sr sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return sr
}

func (e *testEnv) do(t *testing.T, method, path, token string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.ts.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

func TestRegisterValidation(t *testing.T) {
	e := newTestEnv(t)

	body, _ := json.Marshal(credentials{Email: "", Password: "pw"})
	resp, err := http.Post(e.ts.URL+"/v1/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank email: got %d, want 400", resp.StatusCode)
	}
	if e.accounts.creates != 0 {
		t.Fatalf("CreateAccount was called despite validation failure")
	}
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t)

	sr := e.register(t, "Ada@Example.com", "pw-123")
	if sr.Token == "" || sr.UserID == "" {
		t.Fatalf("register response incomplete: %+v", sr)
	}
	// email comes back normalized
	if sr.Email != "ada@example.com" {
		t.Fatalf("email = %s, want ada@example.com", sr.Email)
	}

	// issued token carries the account identity
	claims, err := e.jwt.VerifyToken(sr.Token)
	if err != nil {
		t.Fatalf("register token invalid: %v", err)
	}
	if claims.UserID != sr.UserID {
		t.Fatalf("token user id %s != %s", claims.UserID, sr.UserID)
	}

	// duplicate registration is refused
	body, _ := json.Marshal(credentials{Email: "ada@example.com", Password: "other"})
	resp, _ := http.Post(e.ts.URL+"/v1/auth/register", "application/json", bytes.NewReader(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: got %d, want 409", resp.StatusCode)
	}

	// wrong password rejected, right password accepted
	body, _ = json.Marshal(credentials{Email: "ada@example.com", Password: "nope"})
	resp, _ = http.Post(e.ts.URL+"/v1/auth/login", "application/json", bytes.NewReader(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: got %d, want 401", resp.StatusCode)
	}

	body, _ = json.Marshal(credentials{Email: "ada@example.com", Password: "pw-123"})
	resp, err = http.Post(e.ts.URL+"/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: got %d, want 200", resp.StatusCode)
	}
}

func TestSessionEndpoint(t *testing.T) {
	e := newTestEnv(t)
	sr := e.register(t, "ada@example.com", "pw")

	resp := e.do(t, http.MethodGet, "/v1/session", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: got %d, want 401", resp.StatusCode)
	}

	resp = e.do(t, http.MethodGet, "/v1/session", sr.Token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("with token: got %d, want 200", resp.StatusCode)
	}
	var got map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&got)
	if got["user_id"] != sr.UserID {
		t.Fatalf("session user_id = %s, want %s", got["user_id"], sr.UserID)
	}
}

func TestDirectoryEndpoints(t *testing.T) {
	e := newTestEnv(t)
	sr := e.register(t, "ada@example.com", "pw")

	resp := e.do(t, http.MethodGet, "/v1/db/usernames/ada", sr.Token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("absent path: got %d, want 404", resp.StatusCode)
	}

	resp = e.do(t, http.MethodPut, "/v1/db/usernames/ada", sr.Token, []byte("true"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("write: got %d, want 204", resp.StatusCode)
	}

	resp = e.do(t, http.MethodGet, "/v1/db/usernames/ada", sr.Token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("read: got %d, want 200", resp.StatusCode)
	}
	var reserved bool
	if err := json.NewDecoder(resp.Body).Decode(&reserved); err != nil || !reserved {
		t.Fatalf("reservation value wrong: %v %v", reserved, err)
	}

	// reads need no token: the sign-up name check runs pre-session
	resp = e.do(t, http.MethodGet, "/v1/db/usernames/ada", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tokenless read: got %d, want 200", resp.StatusCode)
	}

	// writes do
	resp = e.do(t, http.MethodPut, "/v1/db/usernames/eve", "", []byte("true"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("tokenless write: got %d, want 401", resp.StatusCode)
	}
}

func TestPutMessage(t *testing.T) {
	e := newTestEnv(t)
	sr := e.register(t, "ada@example.com", "pw")

	key := e.msgs.NewKey()
	msg := chat.Message{ID: key, Text: "hello", SenderName: "ada", SenderID: sr.UserID, Timestamp: 42}
	body, _ := json.Marshal(msg)

	// key mismatch refused
	resp := e.do(t, http.MethodPut, "/v1/chat/messages/"+e.msgs.NewKey(), sr.Token, body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("key mismatch: got %d, want 400", resp.StatusCode)
	}

	// blank text refused
	blank := msg
	blank.Text = "   "
	blankBody, _ := json.Marshal(blank)
	resp = e.do(t, http.MethodPut, "/v1/chat/messages/"+key, sr.Token, blankBody)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank text: got %d, want 400", resp.StatusCode)
	}

	// a sender id that is not the session is refused
	forged := msg
	forged.SenderID = "someone-else"
	forgedBody, _ := json.Marshal(forged)
	resp = e.do(t, http.MethodPut, "/v1/chat/messages/"+key, sr.Token, forgedBody)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("forged sender: got %d, want 403", resp.StatusCode)
	}

	resp = e.do(t, http.MethodPut, "/v1/chat/messages/"+key, sr.Token, body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("append: got %d, want 204", resp.StatusCode)
	}

	if len(e.msgs.appended) != 1 || e.msgs.appended[0].ID != key {
		t.Fatalf("store did not record the message: %+v", e.msgs.appended)
	}
	if e.hub.Len() != 1 {
		t.Fatalf("hub did not commit the message")
	}

	// a retried key succeeds but is neither re-stored nor re-broadcast
	resp = e.do(t, http.MethodPut, "/v1/chat/messages/"+key, sr.Token, body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("retry: got %d, want 204", resp.StatusCode)
	}
	if len(e.msgs.appended) != 1 || e.hub.Len() != 1 {
		t.Fatalf("retry duplicated the message: store=%d hub=%d", len(e.msgs.appended), e.hub.Len())
	}
}

func TestStreamReplayAndLive(t *testing.T) {
	e := newTestEnv(t)
	sr := e.register(t, "ada@example.com", "pw")

	// one message exists before the subscriber attaches
	first := chat.Message{ID: e.msgs.NewKey(), Text: "old", SenderName: "ada", SenderID: sr.UserID, Timestamp: 1}
	firstBody, _ := json.Marshal(first)
	resp := e.do(t, http.MethodPut, "/v1/chat/messages/"+first.ID, sr.Token, firstBody)
	resp.Body.Close()

	wsURL := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/v1/chat/stream?token=" + sr.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	// replayed entry arrives first
	var got chat.Message
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read replay: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("replayed %s, want %s", got.ID, first.ID)
	}

	// then a live append
	second := chat.Message{ID: e.msgs.NewKey(), Text: "new", SenderName: "ada", SenderID: sr.UserID, Timestamp: 2}
	secondBody, _ := json.Marshal(second)
	resp = e.do(t, http.MethodPut, "/v1/chat/messages/"+second.ID, sr.Token, secondBody)
	resp.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read live append: %v", err)
	}
	if got.ID != second.ID {
		t.Fatalf("live entry %s, want %s", got.ID, second.ID)
	}
}

func TestStreamRequiresToken(t *testing.T) {
	e := newTestEnv(t)

	wsURL := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/v1/chat/stream"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected dial to fail without a token")
	}
	if resp != nil && resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("handshake status = %d, want 401", resp.StatusCode)
	}
}
