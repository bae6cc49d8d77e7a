package redis_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/store/redis"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/store/storetest"
)

func TestStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	storetest.Run(t, func(t *testing.T) chat.Store {
		ctx := context.Background()
		prefix := "batepapo-test:" + strings.ReplaceAll(uuid.NewString(), "-", "") + ":"

		s, err := redis.Open(ctx, url, prefix)
		require.NoError(t, err)

		t.Cleanup(func() {
			opt, err := goredis.ParseURL(url)
			if err == nil {
				c := goredis.NewClient(opt)
				c.Del(ctx, prefix+"participants", prefix+"messages")
				_ = c.Close()
			}
			_ = s.Close()
		})
		return s
	})
}
