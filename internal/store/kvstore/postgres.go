package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	ns  TEXT  NOT NULL,
	tbl TEXT  NOT NULL,
	k   TEXT  NOT NULL,
	v   BYTEA NOT NULL,
	PRIMARY KEY (ns, tbl, k)
)`

// PostgresTables stores every table in one kv_entries relation, scoped by
// a namespace so several indexes can share a database.
type PostgresTables struct {
	client    *postgres.Client
	namespace string
}

var _ Tables = (*PostgresTables)(nil)

func NewPostgresTables(client *postgres.Client, namespace string) *PostgresTables {
	return &PostgresTables{client: client, namespace: namespace}
}

// EnsureSchema creates the kv_entries relation if it does not exist.
func (p *PostgresTables) EnsureSchema(ctx context.Context) error {
	return p.client.Exec(ctx, schema)
}

func (p *PostgresTables) Get(ctx context.Context, table, key string) ([]byte, bool, error) {
	var v []byte
	err := p.client.DB.QueryRowContext(ctx,
		`SELECT v FROM kv_entries WHERE ns = $1 AND tbl = $2 AND k = $3`,
		p.namespace, table, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s[%s]: %w", table, key, err)
	}
	return v, true, nil
}

func (p *PostgresTables) All(ctx context.Context, table string) (map[string][]byte, error) {
	rows, err := p.client.DB.QueryContext(ctx,
		`SELECT k, v FROM kv_entries WHERE ns = $1 AND tbl = $2`,
		p.namespace, table,
	)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var (
			k string
			v []byte
		)
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", table, err)
	}
	return out, nil
}

func (p *PostgresTables) Replace(ctx context.Context, table string, entries map[string][]byte) error {
	return p.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM kv_entries WHERE ns = $1 AND tbl = $2`,
			p.namespace, table,
		); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
		if len(entries) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO kv_entries (ns, tbl, k, v) VALUES ($1, $2, $3, $4)`,
		)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()
		for _, k := range store.SortedKeys(entries) {
			if _, err := stmt.ExecContext(ctx, p.namespace, table, k, entries[k]); err != nil {
				return fmt.Errorf("inserting %s[%s]: %w", table, k, err)
			}
		}
		return nil
	})
}

func (p *PostgresTables) DropAll(ctx context.Context) error {
	if _, err := p.client.DB.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE ns = $1`, p.namespace,
	); err != nil {
		return fmt.Errorf("dropping namespace %s: %w", p.namespace, err)
	}
	return nil
}

func (p *PostgresTables) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func (p *PostgresTables) Close() error {
	return p.client.Close()
}
