// Package data provides DB models and stores.
package data

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/heloha-app/heloha/internal/normalize"
)

// AccountsStore performs identity record operations.
type AccountsStore struct {
	coll *mongo.Collection
}

// NewAccountsStore returns an AccountsStore using the provided collection.
func NewAccountsStore(coll *mongo.Collection) *AccountsStore {
	return &AccountsStore{coll: coll}
}

// ErrEmailTaken reports a registration attempt for an email that already
// has an account. Its text is surfaced verbatim to the user.
var ErrEmailTaken = errors.New("an account with this email already exists")

// CreateAccount inserts a new account document with an already-hashed
// password. Emails are stored normalized; the unique index on email turns
// a duplicate registration into ErrEmailTaken.
func (a *AccountsStore) CreateAccount(ctx context.Context, email, hashedPassword string) (*Account, error) {
	account := &Account{
		Email:     normalize.Email(email),
		Password:  hashedPassword,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	result, err := a.coll.InsertOne(ctx, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	// Mongo generated the _id; hand it back so the caller can mint a token
	account.ID = result.InsertedID.(bson.ObjectID)
	return account, nil
}

// GetByEmail finds an account by its normalized email.
func (a *AccountsStore) GetByEmail(ctx context.Context, email string) (*Account, error) {
	var account Account
	err := a.coll.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("account not found")
		}
		return nil, err
	}
	return &account, nil
}

// GetByID finds an account by ObjectID.
func (a *AccountsStore) GetByID(ctx context.Context, id bson.ObjectID) (*Account, error) {
	var account Account
	err := a.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("account not found")
		}
		return nil, err
	}
	return &account, nil
}

// Exists checks whether an account exists for the given email.
func (a *AccountsStore) Exists(ctx context.Context, email string) (bool, error) {
	count, err := a.coll.CountDocuments(ctx, bson.M{"email": normalize.Email(email)})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
