package lexicon

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS synonyms (
	word    TEXT    NOT NULL,
	rank    INTEGER NOT NULL,
	synonym TEXT    NOT NULL,
	PRIMARY KEY (word, rank)
)`

// SQLiteLexicon reads ranked synonyms from a `synonyms(word, rank, synonym)`
// table.
type SQLiteLexicon struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the lexicon database at path.
func OpenSQLite(path string) (*SQLiteLexicon, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("lexicon: create schema: %w", err)
	}
	return &SQLiteLexicon{db: db}, nil
}

func (s *SQLiteLexicon) Synonyms(ctx context.Context, word string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT synonym FROM synonyms WHERE word = ? ORDER BY rank`,
		strings.ToLower(word))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var syn string
		if err := rows.Scan(&syn); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrUnavailable, err)
		}
		out = append(out, syn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

// Import replaces the candidate lists of every word in entries. Words are
// written in sorted order in a single transaction; progress, if set, is
// called after each word.
func (s *SQLiteLexicon) Import(ctx context.Context, entries map[string][]string, progress func(done int)) (int, error) {
	normalized := NewMapLexicon(entries).entries
	words := make([]string, 0, len(normalized))
	for w := range normalized {
		words = append(words, w)
	}
	sort.Strings(words)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("lexicon: begin: %w", err)
	}
	defer tx.Rollback()

	del, err := tx.PrepareContext(ctx, `DELETE FROM synonyms WHERE word = ?`)
	if err != nil {
		return 0, fmt.Errorf("lexicon: prepare delete: %w", err)
	}
	defer del.Close()
	ins, err := tx.PrepareContext(ctx, `INSERT INTO synonyms (word, rank, synonym) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("lexicon: prepare insert: %w", err)
	}
	defer ins.Close()

	for i, w := range words {
		if _, err := del.ExecContext(ctx, w); err != nil {
			return 0, fmt.Errorf("lexicon: delete %q: %w", w, err)
		}
		for rank, syn := range normalized[w] {
			if _, err := ins.ExecContext(ctx, w, rank, syn); err != nil {
				return 0, fmt.Errorf("lexicon: insert %q: %w", w, err)
			}
		}
		if progress != nil {
			progress(i + 1)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("lexicon: commit: %w", err)
	}
	return len(words), nil
}

// Len returns the number of distinct head words.
func (s *SQLiteLexicon) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT word) FROM synonyms`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n, nil
}

func (s *SQLiteLexicon) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteLexicon) Close() error {
	return s.db.Close()
}
