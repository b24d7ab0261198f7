package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store/blockfile"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store/kvstore"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()

	cfg.Index.Path = filepath.Join(t.TempDir(), "idx")
	dir, err := Open(ctx, cfg)
	require.NoError(t, err)
	bf, ok := dir.(*blockfile.Directory)
	require.True(t, ok)
	assert.Equal(t, cfg.Index.Path, bf.Path())

	cfg.Index.Backend = config.BackendMemory
	dir, err = Open(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &kvstore.Directory{}, dir)
	assert.NoError(t, dir.Close())

	cfg.Index.Backend = "tape"
	_, err = Open(ctx, cfg)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestOpenRetriesUnreachableRedis(t *testing.T) {
	cfg := config.Default()
	cfg.Index.Backend = config.BackendRedis
	cfg.Index.ConnectAttempts = 2
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 attempts failed for redis connect")
}
