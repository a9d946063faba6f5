package data

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/heloha-app/heloha/internal/chat"
)

// MessagesStore persists the shared room's append-only message log.
type MessagesStore struct {
	coll *mongo.Collection
}

// NewMessagesStore returns a MessagesStore using the given collection.
func NewMessagesStore(coll *mongo.Collection) *MessagesStore {
	return &MessagesStore{coll: coll}
}

// NewKey mints a fresh message key. ObjectIDs embed their creation time,
// so keys sort in generation order.
func (m *MessagesStore) NewKey() string {
	return bson.NewObjectID().Hex()
}

// Append inserts a message keyed by its own id. Writing the same message
// twice hits the _id primary key and is reported as success with
// inserted == false, which makes the append idempotent under client
// retries: the caller can tell a fresh commit from a replayed one.
func (m *MessagesStore) Append(ctx context.Context, msg chat.Message) (inserted bool, err error) {
	key, err := bson.ObjectIDFromHex(msg.ID)
	if err != nil {
		return false, fmt.Errorf("invalid message key %q: %w", msg.ID, err)
	}

	doc := messageDoc{
		ID:         key,
		Text:       msg.Text,
		SenderName: msg.SenderName,
		SenderID:   msg.SenderID,
		Timestamp:  msg.Timestamp,
		CreatedAt:  time.Now(),
	}

	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// LoadLog returns every message in key order (oldest first). The room log
// is loaded once at startup to seed the hub; it is never paginated.
func (m *MessagesStore) LoadLog(ctx context.Context) ([]chat.Message, error) {
	opts := options.Find().SetSort(bson.M{"_id": 1})

	cursor, err := m.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	msgs := make([]chat.Message, 0, len(docs))
	for _, d := range docs {
		msgs = append(msgs, chat.Message{
			ID:         d.ID.Hex(),
			Text:       d.Text,
			SenderName: d.SenderName,
			SenderID:   d.SenderID,
			Timestamp:  d.Timestamp,
		})
	}
	return msgs, nil
}
