package chat

import (
	"context"
	"errors"
	"time"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantExists   = errors.New("participant already exists")
)

// ParticipantStore persists presence records keyed by participant name.
type ParticipantStore interface {
	// FindParticipant returns ErrParticipantNotFound when name is absent.
	FindParticipant(ctx context.Context, name string) (Participant, error)
	// ListParticipants returns matching participants in no particular order.
	ListParticipants(ctx context.Context, q ParticipantQuery) ([]Participant, error)
	// InsertParticipant returns ErrParticipantExists when the name is taken.
	// The check and the insert are a single atomic operation.
	InsertParticipant(ctx context.Context, p Participant) error
	// TouchParticipant sets LastSeen. Returns ErrParticipantNotFound when absent.
	TouchParticipant(ctx context.Context, name string, at time.Time) error
	// DeleteParticipant removes name only while its LastSeen is before
	// seenBefore; a zero seenBefore deletes unconditionally. It reports whether
	// a record was removed.
	DeleteParticipant(ctx context.Context, name string, seenBefore time.Time) (bool, error)
}

// MessageStore persists the append-only message log.
type MessageStore interface {
	AppendMessage(ctx context.Context, m Message) error
	// ListMessages returns matching messages in insertion order.
	ListMessages(ctx context.Context, q MessageQuery) ([]Message, error)
}

// Store is the persistence layer shared by the presence registry, the message
// relay and the sweeper. Implementations must be safe for concurrent use.
type Store interface {
	ParticipantStore
	MessageStore
	Ping(ctx context.Context) error
	Close() error
}
