package data

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/heloha-app/heloha/internal/chat"
	"github.com/heloha-app/heloha/internal/db"
)

func setupDB(t *testing.T) *db.Client {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}

	ctx := context.Background()
	c, err := db.New(ctx, uri)
	if err != nil {
		t.Fatalf("db.New failed: %v", err)
	}

	// ensure clean collections in case previous runs left data
	_ = c.AccountsCollection().Drop(ctx)
	_ = c.UsersCollection().Drop(ctx)
	_ = c.UsernamesCollection().Drop(ctx)
	_ = c.MessagesCollection().Drop(ctx)

	if err := c.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes failed: %v", err)
	}

	return c
}

func TestAccountsCreateAndGet(t *testing.T) {
	c := setupDB(t)
	defer func() { _ = c.Close(context.Background()) }()

	accounts := NewAccountsStore(c.AccountsCollection())

	ctx := context.Background()
	email := time.Now().UTC().Format("20060102-150405") + "-integration@example.com"

	account, err := accounts.CreateAccount(ctx, email, "hashed-password")
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if account.Email != email {
		t.Fatalf("expected email %s got %s", email, account.Email)
	}

	ok, err := accounts.Exists(ctx, email)
	if err != nil || !ok {
		t.Fatalf("Exists failed: ok=%v err=%v", ok, err)
	}

	got, err := accounts.GetByEmail(ctx, email)
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.Email != email {
		t.Fatalf("GetByEmail returned wrong email: %s", got.Email)
	}

	byID, err := accounts.GetByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.Email != email {
		t.Fatalf("GetByID returned wrong email: %s", byID.Email)
	}

	// the unique index must refuse a second registration for the email
	if _, err := accounts.CreateAccount(ctx, email, "other-hash"); err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken for duplicate email, got %v", err)
	}
}

func TestDirectoryReadWrite(t *testing.T) {
	c := setupDB(t)
	defer func() { _ = c.Close(context.Background()) }()

	dir := NewDirectoryStore(c.UsersCollection(), c.UsernamesCollection())
	ctx := context.Background()

	// absent until written
	if _, err := dir.Read(ctx, "usernames/ada"); err != ErrAbsent {
		t.Fatalf("expected ErrAbsent for unset reservation, got %v", err)
	}

	if err := dir.Write(ctx, "usernames/ada", json.RawMessage("true")); err != nil {
		t.Fatalf("Write reservation failed: %v", err)
	}
	raw, err := dir.Read(ctx, "usernames/ada")
	if err != nil {
		t.Fatalf("Read reservation failed: %v", err)
	}
	if string(raw) != "true" {
		t.Fatalf("reservation value = %s, want true", raw)
	}

	profile := chat.Profile{UID: "u1", Name: "ada", Email: "ada@example.com"}
	buf, _ := json.Marshal(profile)
	if err := dir.Write(ctx, "users/u1", buf); err != nil {
		t.Fatalf("Write profile failed: %v", err)
	}

	// whole-document read round-trips
	raw, err = dir.Read(ctx, "users/u1")
	if err != nil {
		t.Fatalf("Read profile failed: %v", err)
	}
	var got chat.Profile
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("profile did not round-trip: %v", err)
	}
	if got.Name != "ada" {
		t.Fatalf("profile name = %s, want ada", got.Name)
	}

	// single-field read
	raw, err = dir.Read(ctx, "users/u1/name")
	if err != nil {
		t.Fatalf("Read field failed: %v", err)
	}
	if string(raw) != `"ada"` {
		t.Fatalf("field value = %s, want \"ada\"", raw)
	}

	// missing field and unsupported path
	if _, err := dir.Read(ctx, "users/u1/notifyToken"); err != ErrAbsent {
		t.Fatalf("expected ErrAbsent for missing field, got %v", err)
	}
	if _, err := dir.Read(ctx, "rooms/x"); err == nil {
		t.Fatal("expected error for unsupported path")
	}
}

func TestMessagesAppendIdempotentAndOrdered(t *testing.T) {
	c := setupDB(t)
	defer func() { _ = c.Close(context.Background()) }()

	msgs := NewMessagesStore(c.MessagesCollection())
	ctx := context.Background()

	first := chat.Message{ID: msgs.NewKey(), Text: "hello", SenderName: "ada", SenderID: "u1", Timestamp: 1}
	second := chat.Message{ID: msgs.NewKey(), Text: "hi", SenderName: "bob", SenderID: "u2", Timestamp: 2}

	if inserted, err := msgs.Append(ctx, first); err != nil || !inserted {
		t.Fatalf("Append = (%v, %v), want fresh insert", inserted, err)
	}
	if inserted, err := msgs.Append(ctx, second); err != nil || !inserted {
		t.Fatalf("Append = (%v, %v), want fresh insert", inserted, err)
	}

	// re-appending the same key must succeed without duplicating
	if inserted, err := msgs.Append(ctx, first); err != nil || inserted {
		t.Fatalf("re-append = (%v, %v), want deduped success", inserted, err)
	}

	log, err := msgs.LoadLog(ctx)
	if err != nil {
		t.Fatalf("LoadLog failed: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(log))
	}
	if log[0].ID != first.ID || log[1].ID != second.ID {
		t.Fatalf("messages out of key order: %s then %s", log[0].ID, log[1].ID)
	}

	// a made-up key that is not an ObjectID is rejected
	if _, err := msgs.Append(ctx, chat.Message{ID: "not-a-key", Text: "x"}); err == nil {
		t.Fatal("expected error for invalid key")
	}
}
