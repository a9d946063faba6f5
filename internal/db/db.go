// Package db manages MongoDB connections and collections.
package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/heloha-app/heloha/internal/chat"
)

// Client wraps mongo.Client and exposes the application collections.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB, verifies the connection and returns a Client.
func New(ctx context.Context, mongoURI string) (*Client, error) {
	opts := options.Client().
		ApplyURI(mongoURI).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// ping with its own timeout so an unreachable server fails fast
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{
		client: client,
		db:     client.Database("heloha_db"),
	}, nil
}

// AccountsCollection returns the accounts collection (identity records:
// email plus password hash).
func (c *Client) AccountsCollection() *mongo.Collection {
	return c.db.Collection("accounts")
}

// UsersCollection returns the users collection (directory profiles keyed
// by account id).
func (c *Client) UsersCollection() *mongo.Collection {
	return c.db.Collection("users")
}

// UsernamesCollection returns the usernames collection (display-name
// reservation flags keyed by the name itself).
func (c *Client) UsernamesCollection() *mongo.Collection {
	return c.db.Collection("usernames")
}

// MessagesCollection returns the shared room's message log, named after
// the room key itself. Messages are keyed by their client-supplied
// ObjectID, so the natural _id order is also generation order; no extra
// index is needed.
func (c *Client) MessagesCollection() *mongo.Collection {
	return c.db.Collection(chat.Room)
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// CreateIndexes creates the indexes the stores rely on. The unique email
// index is what actually enforces "one account per email"; CreateAccount
// only translates the duplicate-key error it produces.
func (c *Client) CreateIndexes(ctx context.Context) error {
	accountsIndex := mongo.IndexModel{
		Keys:    map[string]int{"email": 1},
		Options: options.Index().SetUnique(true),
	}

	if _, err := c.AccountsCollection().Indexes().CreateOne(ctx, accountsIndex); err != nil {
		return fmt.Errorf("failed to create accounts index: %w", err)
	}
	return nil
}
