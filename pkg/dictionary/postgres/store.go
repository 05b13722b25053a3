package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/confab/pkg/dictionary"
	"github.com/MrWong99/confab/pkg/phoneme"
)

var _ dictionary.Loader = (*Store)(nil)

// Store is a [dictionary.Loader] backed by a single [pgxpool.Pool]. It is
// safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database at dsn, verifies connectivity and runs
// [Migrate].
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases all pooled connections.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies the database is reachable. Used as a readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Import replaces the stored dictionary with entries, preserving their order.
// Duplicate words keep their first occurrence. The replacement is atomic: on
// error the previous contents are left untouched.
func (s *Store) Import(ctx context.Context, entries []dictionary.Entry) (int, error) {
	rows := make([][]any, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		word := strings.ToUpper(strings.TrimSpace(e.Word))
		if word == "" || len(e.Phonetics) == 0 {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		rows = append(rows, []any{word, len(rows), e.Phonetics.Strings()})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres store: begin import: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, "TRUNCATE dictionary_entries"); err != nil {
		return 0, fmt.Errorf("postgres store: truncate: %w", err)
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"dictionary_entries"},
		[]string{"word", "ordinal", "phonetics"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("postgres store: copy entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres store: commit import: %w", err)
	}
	return int(n), nil
}

// Load implements [dictionary.Loader], returning entries in import order.
func (s *Store) Load(ctx context.Context) ([]dictionary.Entry, error) {
	rows, err := s.pool.Query(ctx, `SELECT word, phonetics FROM dictionary_entries ORDER BY ordinal`)
	if err != nil {
		return nil, fmt.Errorf("postgres store: query entries: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (dictionary.Entry, error) {
		var (
			word   string
			labels []string
		)
		if err := row.Scan(&word, &labels); err != nil {
			return dictionary.Entry{}, err
		}
		seq := make(phoneme.Sequence, len(labels))
		for i, l := range labels {
			seq[i] = phoneme.Unit(l)
		}
		return dictionary.Entry{Word: word, Phonetics: seq}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres store: scan entries: %w", err)
	}
	return entries, nil
}

// Lookup returns the stored pronunciation for word, ignoring case. It backs
// the per-word "postgres" converter.
func (s *Store) Lookup(ctx context.Context, word string) (dictionary.Entry, bool, error) {
	var labels []string
	err := s.pool.QueryRow(ctx,
		`SELECT phonetics FROM dictionary_entries WHERE word = $1`,
		strings.ToUpper(strings.TrimSpace(word)),
	).Scan(&labels)
	if errors.Is(err, pgx.ErrNoRows) {
		return dictionary.Entry{}, false, nil
	}
	if err != nil {
		return dictionary.Entry{}, false, fmt.Errorf("postgres store: lookup %q: %w", word, err)
	}
	seq := make(phoneme.Sequence, len(labels))
	for i, l := range labels {
		seq[i] = phoneme.Unit(l)
	}
	return dictionary.Entry{Word: strings.ToUpper(word), Phonetics: seq}, true, nil
}
