package chat_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/events"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
	chatservice "github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/service/chat"
)

type presentSet map[string]bool

func (p presentSet) Exists(_ context.Context, name string) (bool, error) {
	return p[name], nil
}

type brokenStore struct{ chat.MessageStore }

func (brokenStore) AppendMessage(context.Context, chat.Message) error {
	return errors.New("disk full")
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC)
}

func newService(t *testing.T, present presentSet) (*chatservice.Service, *chatservice.Log, *chat.MemoryStore) {
	t.Helper()
	store := chat.NewMemoryStore()
	log := chatservice.NewLog(store, nil, zerolog.New(io.Discard), chatservice.WithClock(fixedClock))
	return chatservice.NewService(log, store, present, zerolog.New(io.Discard)), log, store
}

func TestLogAppendStampsMessage(t *testing.T) {
	store := chat.NewMemoryStore()
	hub := events.NewHub(zerolog.New(io.Discard))
	sub := hub.Subscribe(1)
	defer sub.Close()

	log := chatservice.NewLog(store, hub, zerolog.New(io.Discard), chatservice.WithClock(fixedClock))
	m, err := log.Announce(context.Background(), "ana", "ana entra na sala...")
	require.NoError(t, err)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "09:05:07", m.Time)
	assert.Equal(t, chat.KindStatus, m.Kind)
	assert.Equal(t, chat.Broadcast, m.To)
	assert.Equal(t, fixedClock(), m.CreatedAt)

	stored, err := store.ListMessages(context.Background(), chat.MessageQuery{})
	require.NoError(t, err)
	assert.Equal(t, []chat.Message{m}, stored)
	assert.Equal(t, m, <-sub.C)
}

func TestLogAppendStoreFailure(t *testing.T) {
	log := chatservice.NewLog(brokenStore{}, nil, zerolog.New(io.Discard))
	_, err := log.Announce(context.Background(), "ana", "oi")
	assert.ErrorIs(t, err, chatservice.ErrPersistence)
}

func TestSend(t *testing.T) {
	ctx := context.Background()

	t.Run("present sender", func(t *testing.T) {
		svc, _, store := newService(t, presentSet{"ana": true})
		m, err := svc.Send(ctx, "ana", chat.Draft{To: chat.Broadcast, Text: "hi", Kind: chat.KindMessage})
		require.NoError(t, err)
		assert.Equal(t, "ana", m.From)
		assert.Equal(t, "hi", m.Text)

		stored, err := store.ListMessages(ctx, chat.MessageQuery{})
		require.NoError(t, err)
		assert.Len(t, stored, 1)
	})

	t.Run("absent sender produces no message", func(t *testing.T) {
		svc, _, store := newService(t, presentSet{})
		_, err := svc.Send(ctx, "ghost", chat.Draft{To: chat.Broadcast, Text: "hi", Kind: chat.KindMessage})
		assert.ErrorIs(t, err, chatservice.ErrSenderNotPresent)

		stored, err := store.ListMessages(ctx, chat.MessageQuery{})
		require.NoError(t, err)
		assert.Empty(t, stored)
	})

	t.Run("status kind is rejected", func(t *testing.T) {
		svc, _, _ := newService(t, presentSet{"ana": true})
		_, err := svc.Send(ctx, "ana", chat.Draft{To: chat.Broadcast, Text: "hi", Kind: chat.KindStatus})

		var fe criterio.FieldErrors
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "type", fe[0].Field)
	})

	t.Run("invalid draft is reported before presence", func(t *testing.T) {
		svc, _, _ := newService(t, presentSet{})
		_, err := svc.Send(ctx, "ghost", chat.Draft{Kind: chat.KindMessage})

		var fe criterio.FieldErrors
		require.ErrorAs(t, err, &fe)
		assert.Len(t, fe, 2)
	})
}

func TestListFor(t *testing.T) {
	ctx := context.Background()
	present := presentSet{"ana": true, "bia": true, "caio": true}
	svc, log, _ := newService(t, present)

	_, err := log.Announce(ctx, "ana", "ana entra na sala...")
	require.NoError(t, err)
	sends := []struct {
		from string
		to   string
		text string
		kind chat.Kind
	}{
		{"ana", chat.Broadcast, "hi", chat.KindMessage},
		{"bia", "caio", "segredo", chat.KindPrivateMessage},
		{"bia", "ana", "psiu", chat.KindPrivateMessage},
		{"ana", "caio", "oi caio", chat.KindPrivateMessage},
	}
	for _, s := range sends {
		_, err := svc.Send(ctx, s.from, chat.Draft{To: s.to, Text: s.text, Kind: s.kind})
		require.NoError(t, err)
	}

	texts := func(ms []chat.Message) []string {
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.Text
		}
		return out
	}

	t.Run("visibility", func(t *testing.T) {
		got, err := svc.ListFor(ctx, "ana", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"ana entra na sala...", "hi", "psiu", "oi caio"}, texts(got))

		got, err = svc.ListFor(ctx, "caio", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"ana entra na sala...", "hi", "segredo", "oi caio"}, texts(got))
	})

	t.Run("limit keeps the tail in order", func(t *testing.T) {
		got, err := svc.ListFor(ctx, "ana", "2")
		require.NoError(t, err)
		assert.Equal(t, []string{"psiu", "oi caio"}, texts(got))

		got, err = svc.ListFor(ctx, "ana", "50")
		require.NoError(t, err)
		assert.Len(t, got, 4)

		got, err = svc.ListFor(ctx, "ana", "99999999999999999999999")
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})

	t.Run("invalid limit", func(t *testing.T) {
		for _, raw := range []string{"0", "-1", "abc", "01"} {
			_, err := svc.ListFor(ctx, "ana", raw)
			var fe criterio.FieldErrors
			assert.ErrorAs(t, err, &fe, raw)
		}
	})

	t.Run("absent viewer", func(t *testing.T) {
		_, err := svc.ListFor(ctx, "ghost", "abc")
		assert.ErrorIs(t, err, chatservice.ErrViewerNotPresent)
	})
}

func TestVisible(t *testing.T) {
	m := chat.Message{From: "bia", To: "caio", Kind: chat.KindPrivateMessage}
	assert.True(t, chatservice.Visible("bia", m))
	assert.True(t, chatservice.Visible("caio", m))
	assert.False(t, chatservice.Visible("ana", m))
	assert.True(t, chatservice.Visible("ana", chat.Message{From: "bia", To: chat.Broadcast}))
}
