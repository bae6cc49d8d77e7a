// Package storetest holds the behavioural contract every chat.Store backend
// must satisfy. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) chat.Store

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Run executes the conformance suite against stores produced by open.
func Run(t *testing.T, open Factory) {
	t.Helper()

	t.Run("insert and find participant", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.InsertParticipant(ctx, chat.Participant{Name: "ana", LastSeen: base}))

		got, err := s.FindParticipant(ctx, "ana")
		require.NoError(t, err)
		assert.Equal(t, "ana", got.Name)
		assert.True(t, base.Equal(got.LastSeen), "lastSeen = %s, want %s", got.LastSeen, base)

		_, err = s.FindParticipant(ctx, "bia")
		assert.ErrorIs(t, err, chat.ErrParticipantNotFound)
	})

	t.Run("duplicate insert is rejected", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.InsertParticipant(ctx, chat.Participant{Name: "ana", LastSeen: base}))
		err := s.InsertParticipant(ctx, chat.Participant{Name: "ana", LastSeen: base.Add(time.Second)})
		assert.ErrorIs(t, err, chat.ErrParticipantExists)

		got, err := s.FindParticipant(ctx, "ana")
		require.NoError(t, err)
		assert.True(t, base.Equal(got.LastSeen), "original record must survive")
	})

	t.Run("concurrent inserts keep one record", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		const workers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.InsertParticipant(ctx, chat.Participant{Name: "ana", LastSeen: base}); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
		all, err := s.ListParticipants(ctx, chat.ParticipantQuery{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("touch updates last seen", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.InsertParticipant(ctx, chat.Participant{Name: "ana", LastSeen: base}))
		later := base.Add(5 * time.Second)
		require.NoError(t, s.TouchParticipant(ctx, "ana", later))

		got, err := s.FindParticipant(ctx, "ana")
		require.NoError(t, err)
		assert.True(t, later.Equal(got.LastSeen))

		assert.ErrorIs(t, s.TouchParticipant(ctx, "bia", later), chat.ErrParticipantNotFound)
	})

	t.Run("list filters by last seen", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		for i, name := range []string{"ana", "bia", "caio"} {
			p := chat.Participant{Name: name, LastSeen: base.Add(time.Duration(i) * 10 * time.Second)}
			require.NoError(t, s.InsertParticipant(ctx, p))
		}

		all, err := s.ListParticipants(ctx, chat.ParticipantQuery{})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"ana", "bia", "caio"}, names(all))

		stale, err := s.ListParticipants(ctx, chat.ParticipantQuery{SeenBefore: base.Add(15 * time.Second)})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"ana", "bia"}, names(stale))
	})

	t.Run("conditional delete", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.InsertParticipant(ctx, chat.Participant{Name: "ana", LastSeen: base}))

		removed, err := s.DeleteParticipant(ctx, "ana", base)
		require.NoError(t, err)
		assert.False(t, removed, "lastSeen equal to the cutoff is not stale")

		removed, err = s.DeleteParticipant(ctx, "ana", base.Add(time.Millisecond))
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = s.DeleteParticipant(ctx, "ana", base.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, removed, "second delete finds nothing")

		_, err = s.FindParticipant(ctx, "ana")
		assert.ErrorIs(t, err, chat.ErrParticipantNotFound)
	})

	t.Run("unconditional delete", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.InsertParticipant(ctx, chat.Participant{Name: "ana", LastSeen: base}))
		removed, err := s.DeleteParticipant(ctx, "ana", time.Time{})
		require.NoError(t, err)
		assert.True(t, removed)
	})

	t.Run("refresh before delete keeps participant", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.InsertParticipant(ctx, chat.Participant{Name: "ana", LastSeen: base}))
		cutoff := base.Add(10 * time.Second)
		require.NoError(t, s.TouchParticipant(ctx, "ana", cutoff.Add(time.Second)))

		removed, err := s.DeleteParticipant(ctx, "ana", cutoff)
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("messages keep insertion order", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		want := []chat.Message{
			msg(0, "ana", chat.Broadcast, "oi", chat.KindMessage),
			msg(1, "bia", "ana", "psiu", chat.KindPrivateMessage),
			msg(2, "caio", "bia", "segredo", chat.KindPrivateMessage),
			msg(3, "ana", "caio", "oi caio", chat.KindPrivateMessage),
			msg(4, "bia", chat.Broadcast, "bia sai da sala...", chat.KindStatus),
		}
		for _, m := range want {
			require.NoError(t, s.AppendMessage(ctx, m))
		}

		all, err := s.ListMessages(ctx, chat.MessageQuery{})
		require.NoError(t, err)
		assert.Equal(t, texts(want), texts(all))

		visible, err := s.ListMessages(ctx, chat.MessageQuery{To: []string{chat.Broadcast, "ana"}, From: "ana"})
		require.NoError(t, err)
		assert.Equal(t, []string{"oi", "psiu", "oi caio", "bia sai da sala..."}, texts(visible))

		first := visible[0]
		assert.Equal(t, want[0].ID, first.ID)
		assert.Equal(t, chat.KindMessage, first.Kind)
		assert.Equal(t, "12:00:00", first.Time)
	})
}

func msg(i int, from, to, text string, kind chat.Kind) chat.Message {
	at := base.Add(time.Duration(i) * time.Second)
	return chat.Message{
		ID:        fmt.Sprintf("01HQ0000000000000000000%03d", i),
		From:      from,
		To:        to,
		Text:      text,
		Kind:      kind,
		Time:      at.Format(chat.TimeLayout),
		CreatedAt: at,
	}
}

func names(ps []chat.Participant) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func texts(ms []chat.Message) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Text)
	}
	return out
}
