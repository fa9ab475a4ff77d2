package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grocery-planner/internal/apperr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionsCollection = "sessions"

type mongoSession struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	ExpiresAt time.Time `bson:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt"`
}

// MongoStore keeps sessions in a MongoDB collection. A TTL index on
// expiresAt lets the server remove expired sessions on its own.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// ConnectMongo dials uri, checks the connection and prepares the store.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping error: %w", err)
	}

	store := &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(sessionsCollection),
	}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("failed to create session ttl index: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Create creates a new session for userID that lives for ttl.
func (s *MongoStore) Create(ctx context.Context, userID string, ttl time.Duration) (*Session, error) {
	sess, err := newSession(userID, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	_, err = s.coll.InsertOne(ctx, mongoSession{
		ID:        sess.ID,
		UserID:    sess.UserID,
		ExpiresAt: sess.ExpiresAt,
		CreatedAt: sess.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return sess, nil
}

// Get retrieves a non-expired session. The TTL monitor runs about once a
// minute, so expiry is also checked here.
func (s *MongoStore) Get(ctx context.Context, id string, now time.Time) (*Session, error) {
	var doc mongoSession
	err := s.coll.FindOne(ctx, bson.M{"_id": id, "expiresAt": bson.M{"$gt": now}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("Session not found")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &Session{
		ID:        doc.ID,
		UserID:    doc.UserID,
		ExpiresAt: doc.ExpiresAt.UTC(),
		CreatedAt: doc.CreatedAt.UTC(),
	}, nil
}

// Touch moves the expiry of a session.
func (s *MongoStore) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"expiresAt": expiresAt}})
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Destroy removes a session.
func (s *MongoStore) Destroy(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupExpired removes expired sessions the TTL monitor has not reached yet.
func (s *MongoStore) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	return res.DeletedCount, nil
}
