package kvstore

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store/storetest"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/redis"
)

// sharedTables lets several Directories use one connection; closing a
// Directory leaves it open.
type sharedTables struct {
	Tables
}

func (sharedTables) Close() error { return nil }

func TestMemoryConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) func() store.Directory {
		tables := NewMemoryTables()
		return func() store.Directory { return New(tables) }
	})
}

func TestRedisConformance(t *testing.T) {
	client := skipIfNoRedis(t)
	storetest.Run(t, func(t *testing.T) func() store.Directory {
		tables := NewRedisTables(client, "invindex-test:"+uuid.NewString())
		t.Cleanup(func() { _ = tables.DropAll(context.Background()) })
		return func() store.Directory { return New(sharedTables{tables}) }
	})
}

func TestPostgresConformance(t *testing.T) {
	client := skipIfNoPostgres(t)
	storetest.Run(t, func(t *testing.T) func() store.Directory {
		tables := NewPostgresTables(client, uuid.NewString())
		require.NoError(t, tables.EnsureSchema(context.Background()))
		t.Cleanup(func() { _ = tables.DropAll(context.Background()) })
		return func() store.Directory { return New(sharedTables{tables}) }
	})
}

func TestLayout(t *testing.T) {
	ctx := context.Background()
	tables := NewMemoryTables()
	require.NoError(t, New(tables).Write(ctx, storetest.Sample()))

	assert.ElementsMatch(t, []string{
		"meta",
		"norms.body", "norms.title",
		"postings.body", "postings.title",
		"stored.body",
	}, tables.TableNames())

	raw, ok, err := tables.Get(ctx, "postings.body", "quick")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[["1",2]]`, string(raw))

	raw, _, _ = tables.Get(ctx, "norms.body", "1")
	assert.Equal(t, "4", string(raw))
}

func TestDropsTablesOfRemovedFields(t *testing.T) {
	ctx := context.Background()
	tables := NewMemoryTables()
	dir := New(tables)
	require.NoError(t, dir.Write(ctx, storetest.Sample()))

	idx := index.New()
	idx.AddOccurrence(index.NewTerm("body", "fox"), "1")
	idx.SetNorm("body", "1", 1)
	require.NoError(t, dir.Write(ctx, idx))

	assert.ElementsMatch(t, []string{"meta", "norms.body", "postings.body"}, tables.TableNames())
}

func TestCorruptMetadata(t *testing.T) {
	tables := NewMemoryTables()
	tables.Set(MetaTable, FieldsKey, []byte("not json"))

	err := New(tables).Read(context.Background(), index.New())
	assert.ErrorIs(t, err, apperrors.ErrCorruptIndex)
}

func TestCorruptNorm(t *testing.T) {
	ctx := context.Background()
	tables := NewMemoryTables()
	require.NoError(t, New(tables).Write(ctx, storetest.Sample()))
	tables.Set("norms.body", "1", []byte("four"))

	err := New(tables).Read(ctx, index.New())
	assert.ErrorIs(t, err, apperrors.ErrCorruptIndex)
}

func TestCorruptPostings(t *testing.T) {
	ctx := context.Background()
	tables := NewMemoryTables()
	dir := New(tables)
	require.NoError(t, dir.Write(ctx, storetest.Sample()))
	tables.Set("postings.body", "quick", []byte("{"))

	idx := index.New()
	require.NoError(t, dir.Read(ctx, idx))
	dict, _ := idx.Dictionary("body")
	err := dir.ReadPostingsBlock(ctx, dict, "body", "quick")
	assert.ErrorIs(t, err, apperrors.ErrDecodePostings)
	assert.ErrorIs(t, dir.ReadPostings(ctx, dict, "body"), apperrors.ErrDecodePostings)
}

func TestMemoryTablesCopyValues(t *testing.T) {
	ctx := context.Background()
	tables := NewMemoryTables()
	value := []byte("abc")
	require.NoError(t, tables.Replace(ctx, "t", map[string][]byte{"k": value}))
	value[0] = 'x'

	got, ok, err := tables.Get(ctx, "t", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", string(got))

	require.NoError(t, tables.Replace(ctx, "t", nil))
	_, ok, _ = tables.Get(ctx, "t", "k")
	assert.False(t, ok)
}

func skipIfNoRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("skipping: TEST_REDIS_ADDR not set")
	}
	client, err := redis.NewClient(context.Background(), config.RedisConfig{Addr: addr, PoolSize: 4})
	if err != nil {
		t.Skipf("skipping: redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	host := os.Getenv("TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("skipping: TEST_POSTGRES_HOST not set")
	}
	port, err := strconv.Atoi(envOrDefault("TEST_POSTGRES_PORT", "5432"))
	require.NoError(t, err)
	client, err := postgres.New(context.Background(), config.PostgresConfig{
		Host:            host,
		Port:            port,
		Database:        envOrDefault("TEST_POSTGRES_DB", "invindex_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "invindex"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		t.Skipf("skipping: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
