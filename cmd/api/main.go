package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/heloha-app/heloha/internal/auth"
	"github.com/heloha-app/heloha/internal/data"
	"github.com/heloha-app/heloha/internal/db"
	"github.com/heloha-app/heloha/internal/middleware"
)

func main() {
	// .env is a development convenience; absence is not an error
	_ = godotenv.Load()

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		log.Fatal("MONGODB_URI must be set")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	addr := ":" + getenv("PORT", "8080")

	// RATE_LIMIT_RPM controls requests per minute for register/login.
	rateRPM := 10
	if v := os.Getenv("RATE_LIMIT_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			rateRPM = n
		}
	}

	ctx := context.Background()

	dbClient, err := db.New(ctx, mongoURI)
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}
	defer func() {
		_ = dbClient.Close(context.Background())
	}()

	if err := dbClient.CreateIndexes(ctx); err != nil {
		log.Fatalf("failed to create indexes: %v", err)
	}

	accounts := data.NewAccountsStore(dbClient.AccountsCollection())
	dir := data.NewDirectoryStore(dbClient.UsersCollection(), dbClient.UsernamesCollection())
	msgs := data.NewMessagesStore(dbClient.MessagesCollection())

	// tokens stay valid for 24 hours; the splash check treats an expired
	// token the same as no session
	jwtMgr := auth.NewJWTManager(jwtSecret, 24*time.Hour)

	// seed the hub with the persisted room log so new subscribers replay
	// history in key order
	hub := NewRoomHub()
	backlog, err := msgs.LoadLog(ctx)
	if err != nil {
		log.Fatalf("failed to load room log: %v", err)
	}
	hub.Seed(backlog)
	log.Printf("room log loaded: %d messages", len(backlog))

	// small burst so a couple of quick retries still get through
	limiter := middleware.NewLimiterStore(rateRPM, 3, 1*time.Minute)
	defer limiter.Stop()

	srv := newServer(accounts, dir, msgs, jwtMgr, hub)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("API server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server exit: %v", err)
		}
	}()

	// graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
