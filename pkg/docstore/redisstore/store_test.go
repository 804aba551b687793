package redisstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/docstore/docstoretest"
	"github.com/dmitrymomot/sessionkit/pkg/docstore/redisstore"
)

func TestStore_Conformance(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	store, err := redisstore.NewFromConfig(ctx, redisstore.Config{
		ConnectionURL:  url,
		KeyPrefix:      "sessionkit_test:",
		MaxAttempts:    50,
		RetryAttempts:  1,
		RetryInterval:  time.Second,
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Client().Close() })

	require.NoError(t, redisstore.Healthcheck(store.Client())(ctx))
	docstoretest.Run(t, store)
}

func TestConnect_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := redisstore.Connect(context.Background(), redisstore.Config{
		ConnectionURL:  "://not-a-url",
		ConnectTimeout: time.Second,
	})
	require.ErrorIs(t, err, redisstore.ErrFailedToParseConnString)
}
