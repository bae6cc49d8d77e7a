// Package events fans appended chat messages out to live consumers.
package events

import (
	"context"
	"errors"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
)

// Publisher receives every message after it has been persisted.
type Publisher interface {
	Publish(ctx context.Context, m chat.Message) error
}

// Discard drops every message.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, chat.Message) error { return nil }

// Fanout publishes to every publisher in order and joins their errors.
func Fanout(pubs ...Publisher) Publisher {
	return fanout(pubs)
}

type fanout []Publisher

func (f fanout) Publish(ctx context.Context, m chat.Message) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
