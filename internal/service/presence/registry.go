// Package presence owns the participant registry: unique names, liveness
// refresh and stale eviction.
package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/validate"
)

var (
	ErrAlreadyExists = errors.New("participant already exists")
	ErrNotFound      = errors.New("participant not found")
	ErrPersistence   = errors.New("participant store failure")
)

// Announcer appends a broadcast status message.
type Announcer interface {
	Announce(ctx context.Context, from, text string) (chat.Message, error)
}

// JoinText is the announcement appended when name joins.
func JoinText(name string) string {
	return name + " entra na sala..."
}

// LeaveText is the announcement appended when name is evicted.
func LeaveText(name string) string {
	return name + " sai da sala..."
}

// Option customises a Registry.
type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// Registry is the only writer of participant records.
type Registry struct {
	store     chat.ParticipantStore
	announcer Announcer
	log       zerolog.Logger
	now       func() time.Time
}

// NewRegistry creates a registry on top of store.
func NewRegistry(store chat.ParticipantStore, announcer Announcer, log zerolog.Logger, opts ...Option) *Registry {
	r := &Registry{
		store:     store,
		announcer: announcer,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Join registers name and announces it to everyone. The insert and the
// announcement are separate writes; a failed announcement leaves the
// participant registered.
func (r *Registry) Join(ctx context.Context, name string) error {
	if err := validate.CheckName(name); err != nil {
		return err
	}

	_, err := r.store.FindParticipant(ctx, name)
	switch {
	case err == nil:
		return ErrAlreadyExists
	case !errors.Is(err, chat.ErrParticipantNotFound):
		return fmt.Errorf("%w: find participant: %v", ErrPersistence, err)
	}

	err = r.store.InsertParticipant(ctx, chat.Participant{Name: name, LastSeen: r.now().UTC()})
	if errors.Is(err, chat.ErrParticipantExists) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("%w: insert participant: %v", ErrPersistence, err)
	}

	if _, err := r.announcer.Announce(ctx, name, JoinText(name)); err != nil {
		return fmt.Errorf("%w: announce join: %v", ErrPersistence, err)
	}

	r.log.Info().Str("participant", name).Msg("participant joined")
	return nil
}

// List returns every current participant in no particular order.
func (r *Registry) List(ctx context.Context) ([]chat.Participant, error) {
	participants, err := r.store.ListParticipants(ctx, chat.ParticipantQuery{})
	if err != nil {
		return nil, fmt.Errorf("%w: list participants: %v", ErrPersistence, err)
	}
	return participants, nil
}

// Refresh marks name as seen now.
func (r *Registry) Refresh(ctx context.Context, name string) error {
	err := r.store.TouchParticipant(ctx, name, r.now().UTC())
	if errors.Is(err, chat.ErrParticipantNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: touch participant: %v", ErrPersistence, err)
	}
	return nil
}

// Exists reports whether name is a current participant.
func (r *Registry) Exists(ctx context.Context, name string) (bool, error) {
	_, err := r.store.FindParticipant(ctx, name)
	if errors.Is(err, chat.ErrParticipantNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: find participant: %v", ErrPersistence, err)
	}
	return true, nil
}

// SweepStale removes every participant idle for longer than threshold and
// returns the ones actually removed. Each delete is conditional on the row
// still being stale, so a refresh that lands first keeps the participant.
// A failed delete is logged and skipped.
func (r *Registry) SweepStale(ctx context.Context, threshold time.Duration) ([]chat.Participant, error) {
	cutoff := r.now().UTC().Add(-threshold)

	stale, err := r.store.ListParticipants(ctx, chat.ParticipantQuery{SeenBefore: cutoff})
	if err != nil {
		return nil, fmt.Errorf("%w: list stale participants: %v", ErrPersistence, err)
	}

	var (
		mu      sync.Mutex
		removed = make([]chat.Participant, 0, len(stale))
	)
	p := pool.New()
	for _, participant := range stale {
		p.Go(func() {
			ok, err := r.store.DeleteParticipant(ctx, participant.Name, cutoff)
			if err != nil {
				r.log.Error().Err(err).Str("participant", participant.Name).Msg("delete stale participant")
				return
			}
			if !ok {
				r.log.Debug().Str("participant", participant.Name).Msg("participant refreshed before eviction")
				return
			}
			mu.Lock()
			removed = append(removed, participant)
			mu.Unlock()
		})
	}
	p.Wait()

	return removed, nil
}
