package kvstore

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/redis"
)

// RedisTables stores each table as a Redis hash under
// "<prefix>:<table>".
type RedisTables struct {
	client *redis.Client
	prefix string
}

var _ Tables = (*RedisTables)(nil)

func NewRedisTables(client *redis.Client, prefix string) *RedisTables {
	return &RedisTables{client: client, prefix: prefix}
}

func (r *RedisTables) key(table string) string {
	return r.prefix + ":" + table
}

func (r *RedisTables) Get(ctx context.Context, table, key string) ([]byte, bool, error) {
	return r.client.HashGet(ctx, r.key(table), key)
}

func (r *RedisTables) All(ctx context.Context, table string) (map[string][]byte, error) {
	values, err := r.client.HashGetAll(ctx, r.key(table))
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(values))
	for k, v := range values {
		out[k] = []byte(v)
	}
	return out, nil
}

func (r *RedisTables) Replace(ctx context.Context, table string, entries map[string][]byte) error {
	return r.client.ReplaceHash(ctx, r.key(table), entries)
}

func (r *RedisTables) DropAll(ctx context.Context) error {
	if _, err := r.client.FlushByPattern(ctx, r.prefix+":*"); err != nil {
		return fmt.Errorf("dropping tables under %s: %w", r.prefix, err)
	}
	return nil
}

func (r *RedisTables) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

func (r *RedisTables) Close() error {
	return r.client.Close()
}
