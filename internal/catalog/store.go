// Package catalog keeps a SQLite record of every normalized citation seen,
// so repeated authorities share one stable ID and an occurrence count.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ziadkadry99/lexsearch/internal/citation"
	"github.com/ziadkadry99/lexsearch/internal/db"
)

// Entry is a catalogued citation.
type Entry struct {
	citation.Citation
	Occurrences int       `json:"occurrences"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
}

// ListFilter controls which entries List returns.
type ListFilter struct {
	Type         citation.Type
	Jurisdiction string // Case-insensitive.
	Limit        int
	Offset       int
}

// Store provides catalog operations over a db.DB.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Record upserts citations. A citation already in the catalog has its
// occurrence count bumped and its last_seen time refreshed; the first
// source and fields are kept. Citations without an ID are skipped.
func (s *Store) Record(ctx context.Context, cits []citation.Citation) error {
	if len(cits) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO citations (id, text, type, jurisdiction, source, url, fields, occurrences, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			occurrences = occurrences + 1,
			last_seen = excluded.last_seen,
			url = CASE WHEN citations.url = '' THEN excluded.url ELSE citations.url END`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC().Format(time.DateTime)
	for _, c := range cits {
		if c.ID == "" {
			continue
		}
		fields, err := marshalFields(c)
		if err != nil {
			return fmt.Errorf("marshalling fields for %q: %w", c.Text, err)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.Text, string(c.Type), c.Jurisdiction, c.Source, c.URL, fields, now, now,
		); err != nil {
			return fmt.Errorf("recording citation %q: %w", c.Text, err)
		}
	}

	return tx.Commit()
}

// Get returns the entry with the given ID, or nil if it is not catalogued.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, text, type, jurisdiction, source, url, fields, occurrences, first_seen, last_seen
		FROM citations WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting citation %s: %w", id, err)
	}
	return e, nil
}

// List returns entries matching the filter, most frequent first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Jurisdiction != "" {
		clauses = append(clauses, "jurisdiction = ? COLLATE NOCASE")
		args = append(args, filter.Jurisdiction)
	}

	query := "SELECT id, text, type, jurisdiction, source, url, fields, occurrences, first_seen, last_seen FROM citations"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY occurrences DESC, text ASC"

	switch {
	case filter.Limit > 0:
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	case filter.Offset > 0:
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing citations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func marshalFields(c citation.Citation) (string, error) {
	f := c.Fields()
	if f == nil {
		return "{}", nil
	}
	data, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*Entry, error) {
	var (
		e                   Entry
		typ, fields         string
		firstSeen, lastSeen string
	)
	err := sc.Scan(&e.ID, &e.Text, &typ, &e.Jurisdiction, &e.Source, &e.URL,
		&fields, &e.Occurrences, &firstSeen, &lastSeen)
	if err != nil {
		return nil, err
	}

	e.Type = citation.Type(typ)
	e.FirstSeen = parseTime(firstSeen)
	e.LastSeen = parseTime(lastSeen)

	var target any
	switch e.Type {
	case citation.TypeCaseLaw:
		e.CaseLaw = &citation.CaseLaw{}
		target = e.CaseLaw
	case citation.TypeStatute:
		e.Statute = &citation.Statute{}
		target = e.Statute
	case citation.TypeRegulation:
		e.Regulation = &citation.Regulation{}
		target = e.Regulation
	case citation.TypeConstitution:
		e.Constitution = &citation.Constitution{}
		target = e.Constitution
	}
	if target != nil {
		if err := json.Unmarshal([]byte(fields), target); err != nil {
			return nil, fmt.Errorf("decoding fields for %s: %w", e.ID, err)
		}
	}
	return &e, nil
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.DateTime, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
