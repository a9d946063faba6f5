package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ErrAbsent is returned when a directory path has no value. Callers branch
// on it: for a reservation check "absent" is the success case.
var ErrAbsent = errors.New("directory: path absent")

// DirectoryStore serves the path-keyed user directory. Two key spaces are
// supported:
//
//	usernames/<name>       reservation flag for a claimed display name
//	users/<uid>            full profile document
//	users/<uid>/<field>    single field of a profile (read only)
//
// Uniqueness of names is by convention only: the reservation write is a
// plain upsert, not a conditional insert, so two racing claims both land.
type DirectoryStore struct {
	users     *mongo.Collection
	usernames *mongo.Collection
}

// NewDirectoryStore returns a DirectoryStore over the given collections.
func NewDirectoryStore(users, usernames *mongo.Collection) *DirectoryStore {
	return &DirectoryStore{users: users, usernames: usernames}
}

// resolve maps a directory path onto a collection, document key and
// optional sub-field.
func (d *DirectoryStore) resolve(path string) (*mongo.Collection, string, string, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 2 && parts[0] == "usernames" && parts[1] != "":
		return d.usernames, parts[1], "", nil
	case len(parts) == 2 && parts[0] == "users" && parts[1] != "":
		return d.users, parts[1], "", nil
	case len(parts) == 3 && parts[0] == "users" && parts[1] != "" && parts[2] != "":
		return d.users, parts[1], parts[2], nil
	}
	return nil, "", "", fmt.Errorf("directory: unsupported path %q", path)
}

// Read returns the JSON value stored at path, or ErrAbsent.
func (d *DirectoryStore) Read(ctx context.Context, path string) (json.RawMessage, error) {
	coll, key, field, err := d.resolve(path)
	if err != nil {
		return nil, err
	}

	var doc entry
	if err := coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrAbsent
		}
		return nil, err
	}

	if field == "" {
		return json.RawMessage(doc.Value), nil
	}

	// sub-field read: the stored value must be a JSON object
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(doc.Value), &fields); err != nil {
		return nil, ErrAbsent
	}
	raw, ok := fields[field]
	if !ok {
		return nil, ErrAbsent
	}
	return raw, nil
}

// Write upserts the JSON value at path. Sub-field writes are not
// supported; nothing in the application writes below a whole document.
func (d *DirectoryStore) Write(ctx context.Context, path string, value json.RawMessage) error {
	coll, key, field, err := d.resolve(path)
	if err != nil {
		return err
	}
	if field != "" {
		return fmt.Errorf("directory: sub-field writes not supported at %q", path)
	}

	// reject malformed payloads before they hit storage
	if !json.Valid(value) {
		return fmt.Errorf("directory: invalid value for %q", path)
	}

	_, err = coll.ReplaceOne(ctx,
		bson.M{"_id": key},
		entry{Key: key, Value: string(value)},
		options.Replace().SetUpsert(true))
	return err
}
