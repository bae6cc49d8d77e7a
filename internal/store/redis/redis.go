// Package redis stores participants in a hash and messages in a list.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
)

// DefaultPrefix namespaces every key the store touches.
const DefaultPrefix = "batepapo:"

// lastSeen values are Unix microseconds so Lua compares them exactly.
var touchScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
return 1
`)

var deleteScript = redis.NewScript(`
local seen = redis.call('HGET', KEYS[1], ARGV[1])
if not seen then
	return 0
end
if ARGV[2] ~= '' and tonumber(seen) >= tonumber(ARGV[2]) then
	return 0
end
return redis.call('HDEL', KEYS[1], ARGV[1])
`)

// Store implements chat.Store on Redis.
type Store struct {
	client       *redis.Client
	participants string
	messages     string
}

var _ chat.Store = (*Store)(nil)

// record is the stored form of a message; chat.Message hides createdAt from JSON.
type record struct {
	chat.Message
	CreatedAt time.Time `json:"createdAt"`
}

// Open connects to the Redis URL and pings it. An empty prefix uses
// DefaultPrefix.
func Open(ctx context.Context, url, prefix string) (*Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return New(client, prefix), nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		client:       client,
		participants: prefix + "participants",
		messages:     prefix + "messages",
	}
}

func (s *Store) FindParticipant(ctx context.Context, name string) (chat.Participant, error) {
	raw, err := s.client.HGet(ctx, s.participants, name).Result()
	if errors.Is(err, redis.Nil) {
		return chat.Participant{}, chat.ErrParticipantNotFound
	}
	if err != nil {
		return chat.Participant{}, fmt.Errorf("redis: find participant: %w", err)
	}
	seen, err := parseMicros(raw)
	if err != nil {
		return chat.Participant{}, fmt.Errorf("redis: participant %q: %w", name, err)
	}
	return chat.Participant{Name: name, LastSeen: seen}, nil
}

func (s *Store) ListParticipants(ctx context.Context, q chat.ParticipantQuery) ([]chat.Participant, error) {
	all, err := s.client.HGetAll(ctx, s.participants).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list participants: %w", err)
	}

	out := make([]chat.Participant, 0, len(all))
	for name, raw := range all {
		seen, err := parseMicros(raw)
		if err != nil {
			return nil, fmt.Errorf("redis: participant %q: %w", name, err)
		}
		p := chat.Participant{Name: name, LastSeen: seen}
		if q.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) InsertParticipant(ctx context.Context, p chat.Participant) error {
	ok, err := s.client.HSetNX(ctx, s.participants, p.Name, p.LastSeen.UnixMicro()).Result()
	if err != nil {
		return fmt.Errorf("redis: insert participant: %w", err)
	}
	if !ok {
		return chat.ErrParticipantExists
	}
	return nil
}

func (s *Store) TouchParticipant(ctx context.Context, name string, at time.Time) error {
	n, err := touchScript.Run(ctx, s.client, []string{s.participants}, name, at.UnixMicro()).Int()
	if err != nil {
		return fmt.Errorf("redis: touch participant: %w", err)
	}
	if n == 0 {
		return chat.ErrParticipantNotFound
	}
	return nil
}

func (s *Store) DeleteParticipant(ctx context.Context, name string, seenBefore time.Time) (bool, error) {
	cutoff := ""
	if !seenBefore.IsZero() {
		cutoff = strconv.FormatInt(seenBefore.UnixMicro(), 10)
	}
	n, err := deleteScript.Run(ctx, s.client, []string{s.participants}, name, cutoff).Int()
	if err != nil {
		return false, fmt.Errorf("redis: delete participant: %w", err)
	}
	return n > 0, nil
}

func (s *Store) AppendMessage(ctx context.Context, m chat.Message) error {
	value, err := json.Marshal(record{Message: m, CreatedAt: m.CreatedAt})
	if err != nil {
		return fmt.Errorf("redis: marshal message: %w", err)
	}
	if err := s.client.RPush(ctx, s.messages, value).Err(); err != nil {
		return fmt.Errorf("redis: append message: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, q chat.MessageQuery) ([]chat.Message, error) {
	values, err := s.client.LRange(ctx, s.messages, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list messages: %w", err)
	}

	out := make([]chat.Message, 0, len(values))
	for _, v := range values {
		var r record
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			return nil, fmt.Errorf("redis: decode message: %w", err)
		}
		r.Message.CreatedAt = r.CreatedAt
		if q.Matches(r.Message) {
			out = append(out, r.Message)
		}
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func parseMicros(raw string) (time.Time, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMicro(n).UTC(), nil
}
