// Package sweeper evicts idle participants on a fixed period.
package sweeper

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/service/presence"
)

const (
	DefaultInterval   = 15 * time.Second
	DefaultStaleAfter = 10 * time.Second
)

// Registry is the presence surface the sweeper needs.
type Registry interface {
	SweepStale(ctx context.Context, threshold time.Duration) ([]chat.Participant, error)
}

// Result summarises one tick.
type Result struct {
	Evicted   int
	Announced int
	Failed    int
}

// Sweeper periodically evicts stale participants and announces each departure.
type Sweeper struct {
	registry   Registry
	announcer  presence.Announcer
	interval   time.Duration
	staleAfter time.Duration
	log        zerolog.Logger
}

// New creates a Sweeper. Non-positive durations fall back to the defaults.
func New(registry Registry, announcer presence.Announcer, interval, staleAfter time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Sweeper{
		registry:   registry,
		announcer:  announcer,
		interval:   interval,
		staleAfter: staleAfter,
		log:        log,
	}
}

// Run ticks until ctx is cancelled. A failed tick is logged and the loop
// carries on.
func (s *Sweeper) Run(ctx context.Context) error {
	s.log.Info().
		Dur("interval", s.interval).
		Dur("stale_after", s.staleAfter).
		Msg("sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("sweeper stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one sweep. Departures are announced concurrently; one failure
// does not hold up the others.
func (s *Sweeper) Tick(ctx context.Context) Result {
	evicted, err := s.registry.SweepStale(ctx, s.staleAfter)
	if err != nil {
		s.log.Error().Err(err).Msg("sweep stale participants")
		return Result{}
	}
	if len(evicted) == 0 {
		return Result{}
	}

	var announced, failed atomic.Int64
	p := pool.New()
	for _, participant := range evicted {
		p.Go(func() {
			_, err := s.announcer.Announce(ctx, participant.Name, presence.LeaveText(participant.Name))
			if err != nil {
				failed.Add(1)
				s.log.Error().Err(err).Str("participant", participant.Name).Msg("announce departure")
				return
			}
			announced.Add(1)
		})
	}
	p.Wait()

	res := Result{
		Evicted:   len(evicted),
		Announced: int(announced.Load()),
		Failed:    int(failed.Load()),
	}
	s.log.Info().
		Int("evicted", res.Evicted).
		Int("announced", res.Announced).
		Int("failed", res.Failed).
		Msg("sweep finished")
	return res
}
