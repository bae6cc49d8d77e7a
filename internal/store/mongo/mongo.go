// Package mongo stores participants and messages in MongoDB collections.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
)

// DefaultDatabase is used when neither the URI nor the caller names one.
const DefaultDatabase = "batepapo"

type participantDoc struct {
	Name     string    `bson:"name"`
	LastSeen time.Time `bson:"lastSeen"`
}

type messageDoc struct {
	ID        string    `bson:"_id"`
	From      string    `bson:"from"`
	To        string    `bson:"to"`
	Text      string    `bson:"text"`
	Type      string    `bson:"type"`
	Time      string    `bson:"time"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d messageDoc) message() chat.Message {
	return chat.Message{
		ID:        d.ID,
		From:      d.From,
		To:        d.To,
		Text:      d.Text,
		Kind:      chat.Kind(d.Type),
		Time:      d.Time,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// Store implements chat.Store on MongoDB. Names are unique through an index on
// participants.name; messages are ordered by their ULID _id. BSON dates keep
// millisecond precision.
type Store struct {
	client       *mongo.Client
	participants *mongo.Collection
	messages     *mongo.Collection
}

var _ chat.Store = (*Store)(nil)

// Open connects to uri, pings the server and ensures the indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	if database == "" {
		database = DefaultDatabase
	}
	db := client.Database(database)
	s := &Store{
		client:       client,
		participants: db.Collection("participants"),
		messages:     db.Collection("messages"),
	}

	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.participants, mongo.IndexModel{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.participants, mongo.IndexModel{Keys: bson.D{{Key: "lastSeen", Value: 1}}}},
		{s.messages, mongo.IndexModel{Keys: bson.D{{Key: "to", Value: 1}}}},
		{s.messages, mongo.IndexModel{Keys: bson.D{{Key: "from", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo: create index: %w", err)
		}
	}
	return s, nil
}

func (s *Store) FindParticipant(ctx context.Context, name string) (chat.Participant, error) {
	var doc participantDoc
	err := s.participants.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return chat.Participant{}, chat.ErrParticipantNotFound
	}
	if err != nil {
		return chat.Participant{}, fmt.Errorf("mongo: find participant: %w", err)
	}
	return chat.Participant{Name: doc.Name, LastSeen: doc.LastSeen.UTC()}, nil
}

func (s *Store) ListParticipants(ctx context.Context, q chat.ParticipantQuery) ([]chat.Participant, error) {
	filter := bson.M{}
	if !q.SeenBefore.IsZero() {
		filter["lastSeen"] = bson.M{"$lt": q.SeenBefore}
	}

	cur, err := s.participants.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongo: list participants: %w", err)
	}
	var docs []participantDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: list participants: %w", err)
	}

	out := make([]chat.Participant, 0, len(docs))
	for _, d := range docs {
		out = append(out, chat.Participant{Name: d.Name, LastSeen: d.LastSeen.UTC()})
	}
	return out, nil
}

func (s *Store) InsertParticipant(ctx context.Context, p chat.Participant) error {
	_, err := s.participants.InsertOne(ctx, participantDoc{Name: p.Name, LastSeen: p.LastSeen})
	if mongo.IsDuplicateKeyError(err) {
		return chat.ErrParticipantExists
	}
	if err != nil {
		return fmt.Errorf("mongo: insert participant: %w", err)
	}
	return nil
}

func (s *Store) TouchParticipant(ctx context.Context, name string, at time.Time) error {
	res, err := s.participants.UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{"$set": bson.M{"lastSeen": at}},
	)
	if err != nil {
		return fmt.Errorf("mongo: touch participant: %w", err)
	}
	if res.MatchedCount == 0 {
		return chat.ErrParticipantNotFound
	}
	return nil
}

func (s *Store) DeleteParticipant(ctx context.Context, name string, seenBefore time.Time) (bool, error) {
	filter := bson.M{"name": name}
	if !seenBefore.IsZero() {
		filter["lastSeen"] = bson.M{"$lt": seenBefore}
	}
	res, err := s.participants.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("mongo: delete participant: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) AppendMessage(ctx context.Context, m chat.Message) error {
	_, err := s.messages.InsertOne(ctx, messageDoc{
		ID:        m.ID,
		From:      m.From,
		To:        m.To,
		Text:      m.Text,
		Type:      string(m.Kind),
		Time:      m.Time,
		CreatedAt: m.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("mongo: append message: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, q chat.MessageQuery) ([]chat.Message, error) {
	filter := bson.M{}
	if !q.Empty() {
		or := bson.A{}
		if len(q.To) > 0 {
			or = append(or, bson.M{"to": bson.M{"$in": q.To}})
		}
		if q.From != "" {
			or = append(or, bson.M{"from": q.From})
		}
		filter["$or"] = or
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: list messages: %w", err)
	}
	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: list messages: %w", err)
	}

	out := make([]chat.Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.message())
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Drop removes the whole database. Used to clean up test databases.
func (s *Store) Drop(ctx context.Context) error {
	return s.participants.Database().Drop(ctx)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
