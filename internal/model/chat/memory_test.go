package chat_test

import (
	"testing"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) chat.Store {
		return chat.NewMemoryStore()
	})
}
