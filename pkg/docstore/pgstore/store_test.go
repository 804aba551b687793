package pgstore_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/docstore/docstoretest"
	"github.com/dmitrymomot/sessionkit/pkg/docstore/pgstore"
)

func TestStore_Conformance(t *testing.T) {
	url := os.Getenv("PG_CONN_URL")
	if url == "" {
		t.Skip("PG_CONN_URL not set")
	}

	ctx := context.Background()
	cfg := pgstore.Config{
		ConnectionString: url,
		MaxOpenConns:     10,
		MaxIdleConns:     1,
		RetryAttempts:    1,
		RetryInterval:    time.Second,
		TxMaxAttempts:    50,
		MigrationsTable:  "schema_migrations",
	}

	pool, err := pgstore.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, pgstore.Migrate(ctx, pool, cfg, log))
	require.NoError(t, pgstore.Healthcheck(pool)(ctx))

	docstoretest.Run(t, pgstore.New(pool, cfg.TxMaxAttempts))
}

func TestConnect_InvalidConnectionString(t *testing.T) {
	t.Parallel()

	_, err := pgstore.Connect(context.Background(), pgstore.Config{ConnectionString: "postgres://%zz"})
	require.ErrorIs(t, err, pgstore.ErrFailedToParseConfig)
}
