package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/validate"
)

var (
	ErrSenderNotPresent = errors.New("sender is not a participant")
	ErrViewerNotPresent = errors.New("viewer is not a participant")
	ErrPersistence      = errors.New("message store failure")
)

// Presence answers whether a name currently belongs to a participant.
type Presence interface {
	Exists(ctx context.Context, name string) (bool, error)
}

// Service relays user messages. Presence is the only authorization check.
type Service struct {
	log      *Log
	store    chat.MessageStore
	presence Presence
	logger   zerolog.Logger
}

// NewService wires the relay on top of the message log.
func NewService(log *Log, store chat.MessageStore, presence Presence, logger zerolog.Logger) *Service {
	return &Service{
		log:      log,
		store:    store,
		presence: presence,
		logger:   logger,
	}
}

// Send appends a message from a present participant. It does not refresh the
// sender's lastSeen.
func (s *Service) Send(ctx context.Context, from string, draft chat.Draft) (chat.Message, error) {
	if err := validate.CheckDraft(draft); err != nil {
		return chat.Message{}, err
	}

	ok, err := s.presence.Exists(ctx, from)
	if err != nil {
		return chat.Message{}, err
	}
	if !ok {
		return chat.Message{}, ErrSenderNotPresent
	}

	m, err := s.log.Append(ctx, chat.Message{
		From: from,
		To:   draft.To,
		Text: draft.Text,
		Kind: draft.Kind,
	})
	if err != nil {
		return chat.Message{}, err
	}

	s.logger.Debug().Str("from", from).Str("to", m.To).Str("type", string(m.Kind)).Msg("message sent")
	return m, nil
}

// ListFor returns the messages visible to viewer in chronological order. A
// non-empty limit keeps only the newest limit messages.
func (s *Service) ListFor(ctx context.Context, viewer, limit string) ([]chat.Message, error) {
	ok, err := s.presence.Exists(ctx, viewer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrViewerNotPresent
	}

	n, err := validate.Limit(limit)
	if err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessages(ctx, Visibility(viewer))
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", ErrPersistence, err)
	}

	if n > 0 && n < len(messages) {
		messages = messages[len(messages)-n:]
	}
	return messages, nil
}

// Visibility is the store query for everything viewer may read: broadcasts,
// messages addressed to viewer and viewer's own messages.
func Visibility(viewer string) chat.MessageQuery {
	return chat.MessageQuery{
		To:   []string{chat.Broadcast, viewer},
		From: viewer,
	}
}

// Visible reports whether viewer may read m.
func Visible(viewer string, m chat.Message) bool {
	return Visibility(viewer).Matches(m)
}
