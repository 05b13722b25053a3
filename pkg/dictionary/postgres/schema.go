// Package postgres provides a PostgreSQL-backed pronunciation dictionary.
//
// Entries are stored with their load ordinal so that [Store.Load] returns them
// in the same order they were imported; the confabulation ranker relies on a
// stable order for deterministic results.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer store.Close()
//
//	_, _ = store.Import(ctx, entries)
//	dict, _ := dictionary.Load(ctx, store)
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlDictionaryEntries = `
CREATE TABLE IF NOT EXISTS dictionary_entries (
    word       TEXT     PRIMARY KEY,
    ordinal    INTEGER  NOT NULL,
    phonetics  TEXT[]   NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_dictionary_entries_ordinal
    ON dictionary_entries (ordinal);
`

// Migrate creates the dictionary table if it does not exist. It is
// idempotent and safe to call on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlDictionaryEntries); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}
