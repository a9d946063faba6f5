package data

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Account maps to the accounts collection (identity records: the id the
// rest of the system references, the login email and the password hash).
type Account struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

// entry is the generic directory document: a JSON value stored verbatim
// under a string key. Both users/<uid> profiles and usernames/<name>
// reservation flags are kept in this shape. Storing the JSON text rather
// than a BSON document keeps reads byte-for-byte what was written.
type entry struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

// messageDoc maps a chat.Message onto the messages collection. The _id is
// the client-supplied key, so inserting the same message twice trips the
// primary key instead of duplicating the entry.
type messageDoc struct {
	ID         bson.ObjectID `bson:"_id"`
	Text       string        `bson:"text"`
	SenderName string        `bson:"sender_name"`
	SenderID   string        `bson:"sender_id"`
	Timestamp  int64         `bson:"timestamp"`
	CreatedAt  time.Time     `bson:"created_at"`
}
