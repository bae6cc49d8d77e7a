package mongo_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/store/mongo"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/store/storetest"
)

func TestStore(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URL")
	if uri == "" {
		t.Skip("TEST_MONGO_URL not set")
	}

	storetest.Run(t, func(t *testing.T) chat.Store {
		db := "batepapo_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		s, err := mongo.Open(context.Background(), uri, db)
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = s.Drop(context.Background())
			_ = s.Close()
		})
		return s
	})
}
