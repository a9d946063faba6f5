package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/heloha-app/heloha/internal/auth"
	"github.com/heloha-app/heloha/internal/chat"
	"github.com/heloha-app/heloha/internal/data"
	"github.com/heloha-app/heloha/internal/middleware"
)

// accountsStore is the subset of data.AccountsStore the handlers use.
type accountsStore interface {
	CreateAccount(ctx context.Context, email, hashedPassword string) (*data.Account, error)
	GetByEmail(ctx context.Context, email string) (*data.Account, error)
}

// directoryStore is the subset of data.DirectoryStore the handlers use.
type directoryStore interface {
	Read(ctx context.Context, path string) (json.RawMessage, error)
	Write(ctx context.Context, path string, value json.RawMessage) error
}

// messagesStore is the subset of data.MessagesStore the handlers use.
type messagesStore interface {
	NewKey() string
	Append(ctx context.Context, msg chat.Message) (inserted bool, err error)
}

// Server holds the stores, auth manager and room hub behind the HTTP API.
type Server struct {
	accounts accountsStore
	dir      directoryStore
	msgs     messagesStore
	auth     *auth.JWTManager
	hub      *RoomHub
}

// newServer returns a ready-to-use Server wired with stores, auth manager
// and hub.
func newServer(accounts accountsStore, dir directoryStore, msgs messagesStore, authMgr *auth.JWTManager, hub *RoomHub) *Server {
	return &Server{accounts: accounts, dir: dir, msgs: msgs, auth: authMgr, hub: hub}
}

// routes assembles the router. Register and login sit behind the rate
// limiter and need no token. Directory reads are open too — the sign-up
// flow checks name reservations before any session exists — but every
// write and the chat surface require a valid session.
func (s *Server) routes(limiter *middleware.LimiterStore) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return middleware.RateLimit(limiter, next)
		})
		r.Post("/v1/auth/register", s.handleRegister)
		r.Post("/v1/auth/login", s.handleLogin)
	})

	r.Get("/v1/db/*", s.handleDirectoryRead)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/v1/session", s.handleSession)
		r.Put("/v1/db/*", s.handleDirectoryWrite)
		r.Post("/v1/chat/keys", s.handleNewKey)
		r.Put("/v1/chat/messages/{key}", s.handlePutMessage)
		r.Get("/v1/chat/stream", s.handleStream)
	})

	return r
}
