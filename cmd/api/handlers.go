package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/heloha-app/heloha/internal/auth"
	"github.com/heloha-app/heloha/internal/chat"
	"github.com/heloha-app/heloha/internal/data"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorJSON writes {"error": msg}. The message text is what clients show
// to users, so it should read like a sentence, not an internal code.
func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// credentials is the request body shared by register and login.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is the response body shared by register and login.
type sessionResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleRegister creates an identity: hashes the password, stores the
// account and returns a session token.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		errorJSON(w, http.StatusBadRequest, "email and password are required")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to process password")
		return
	}

	account, err := s.accounts.CreateAccount(r.Context(), req.Email, hashed)
	if err != nil {
		if errors.Is(err, data.ErrEmailTaken) {
			errorJSON(w, http.StatusConflict, err.Error())
			return
		}
		log.Printf("create account failed: %v", err)
		errorJSON(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	token, expiresAt, err := s.auth.GenerateToken(account.ID, account.Email)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		Token:     token,
		UserID:    account.ID.Hex(),
		Email:     account.Email,
		ExpiresAt: expiresAt,
	})
}

// handleLogin authenticates an account and returns a session token. Both
// unknown email and wrong password answer the same way so the endpoint
// does not leak which emails exist.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "malformed request body")
		return
	}

	account, err := s.accounts.GetByEmail(r.Context(), req.Email)
	if err != nil {
		errorJSON(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err := auth.CheckPassword(account.Password, req.Password); err != nil {
		errorJSON(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, expiresAt, err := s.auth.GenerateToken(account.ID, account.Email)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     token,
		UserID:    account.ID.Hex(),
		Email:     account.Email,
		ExpiresAt: expiresAt,
	})
}

// handleSession answers the one-shot session check the client splash
// screen performs: a valid token gets the identity back, anything else
// was already rejected by requireAuth.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(r.Context())
	if !ok {
		errorJSON(w, http.StatusUnauthorized, "missing auth claims")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id": claims.UserID,
		"email":   claims.Email,
	})
}

// handleDirectoryRead serves GET /v1/db/{path}: the stored JSON value, or
// 404 when the path is absent.
func (s *Server) handleDirectoryRead(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")

	raw, err := s.dir.Read(r.Context(), path)
	if err != nil {
		if errors.Is(err, data.ErrAbsent) {
			errorJSON(w, http.StatusNotFound, "not found")
			return
		}
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// handleDirectoryWrite serves PUT /v1/db/{path}: upserts the JSON body at
// the path.
func (s *Server) handleDirectoryWrite(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := s.dir.Write(r.Context(), path, body); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleNewKey mints a message key ahead of the write that will use it.
func (s *Server) handleNewKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"key": s.msgs.NewKey()})
}

// handlePutMessage appends a message keyed by its own id: persist first,
// then commit to the hub so subscribers see it. The write is idempotent —
// a retried key neither duplicates the entry nor re-broadcasts it.
func (s *Server) handlePutMessage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var msg chat.Message
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&msg); err != nil {
		errorJSON(w, http.StatusBadRequest, "malformed message body")
		return
	}
	if msg.ID != key {
		errorJSON(w, http.StatusBadRequest, "message id must match the key it is written under")
		return
	}
	if strings.TrimSpace(msg.Text) == "" {
		errorJSON(w, http.StatusBadRequest, "message text is required")
		return
	}

	claims, ok := getClaims(r.Context())
	if !ok || claims.UserID != msg.SenderID {
		errorJSON(w, http.StatusForbidden, "sender id does not match the session")
		return
	}

	inserted, err := s.msgs.Append(r.Context(), msg)
	if err != nil {
		log.Printf("append message failed: %v", err)
		errorJSON(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	// only a fresh commit reaches the hub; a deduped retry is already in
	// every subscriber's log
	if inserted {
		s.hub.Append(msg)
	}
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// the terminal client is not a browser; no Origin policy applies
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsSender adapts a WebSocket connection to the hub's EntrySender. The
// hub's per-subscriber delivery goroutine serializes Send calls, so no
// extra write lock is needed.
type wsSender struct {
	conn *websocket.Conn
}

func (s *wsSender) Send(m chat.Message) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := s.conn.WriteJSON(m); err != nil {
		// the write path is dead; closing the conn unblocks the read
		// loop keeping the handler open
		_ = s.conn.Close()
		return err
	}
	return nil
}

// handleStream upgrades to a WebSocket and subscribes the connection to
// the room: full replay first, then live appends, until the client goes
// away. Unsubscribe is deferred so every exit path releases the
// subscription.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	id := s.hub.Subscribe(&wsSender{conn: conn})
	defer s.hub.Unsubscribe(id)

	// the read loop only exists to notice the peer closing
	conn.SetReadLimit(maxBodyBytes)
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
