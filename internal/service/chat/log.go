package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/events"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
)

// Option customises a Log or Service.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Log is the single insertion path into the message store. Every appended
// message is stamped, persisted and then published.
type Log struct {
	store     chat.MessageStore
	publisher events.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewLog creates a Log. A nil publisher discards events.
func NewLog(store chat.MessageStore, publisher events.Publisher, log zerolog.Logger, opts ...Option) *Log {
	if publisher == nil {
		publisher = events.Discard
	}
	o := buildOptions(opts)
	return &Log{
		store:     store,
		publisher: publisher,
		log:       log,
		now:       o.now,
	}
}

// Append stamps m with an ID and the current time and stores it. Publishing is
// best effort: once the message is stored, a publish failure is only logged.
func (l *Log) Append(ctx context.Context, m chat.Message) (chat.Message, error) {
	now := l.now().UTC()
	m.ID = ulid.Make().String()
	m.CreatedAt = now
	m.Time = now.Format(chat.TimeLayout)

	if err := l.store.AppendMessage(ctx, m); err != nil {
		return chat.Message{}, fmt.Errorf("%w: append message: %v", ErrPersistence, err)
	}

	if err := l.publisher.Publish(ctx, m); err != nil {
		l.log.Warn().Err(err).Str("message", m.ID).Msg("publish message")
	}
	return m, nil
}

// Announce appends a broadcast status message on behalf of from. It is not
// gated by presence.
func (l *Log) Announce(ctx context.Context, from, text string) (chat.Message, error) {
	return l.Append(ctx, chat.Message{
		From: from,
		To:   chat.Broadcast,
		Text: text,
		Kind: chat.KindStatus,
	})
}
