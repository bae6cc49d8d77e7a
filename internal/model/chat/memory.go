package chat

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory. Every method holds the lock
// for its whole body, so each call is atomic.
type MemoryStore struct {
	mu           sync.RWMutex
	participants map[string]Participant
	messages     []Message
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		participants: make(map[string]Participant),
		messages:     make([]Message, 0, 64),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) FindParticipant(_ context.Context, name string) (Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participants[name]
	if !ok {
		return Participant{}, ErrParticipantNotFound
	}
	return p, nil
}

func (s *MemoryStore) ListParticipants(_ context.Context, q ParticipantQuery) ([]Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Participant, 0, len(s.participants))
	for _, p := range s.participants {
		if q.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) InsertParticipant(_ context.Context, p Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[p.Name]; ok {
		return ErrParticipantExists
	}
	s.participants[p.Name] = p
	return nil
}

func (s *MemoryStore) TouchParticipant(_ context.Context, name string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[name]
	if !ok {
		return ErrParticipantNotFound
	}
	p.LastSeen = at
	s.participants[name] = p
	return nil
}

func (s *MemoryStore) DeleteParticipant(_ context.Context, name string, seenBefore time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[name]
	if !ok {
		return false, nil
	}
	if !(ParticipantQuery{SeenBefore: seenBefore}).Matches(p) {
		return false, nil
	}
	delete(s.participants, name)
	return true, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, m Message) error {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, q MessageQuery) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, 0, len(s.messages))
	for _, m := range s.messages {
		if q.Matches(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
