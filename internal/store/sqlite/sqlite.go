// Package sqlite stores participants and messages in a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
)

const schema = `
CREATE TABLE IF NOT EXISTS participants (
	name      TEXT PRIMARY KEY,
	last_seen INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	from_name  TEXT NOT NULL,
	to_name    TEXT NOT NULL,
	text       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	time       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_to_name ON messages (to_name);
CREATE INDEX IF NOT EXISTS messages_from_name ON messages (from_name);
`

// Store implements chat.Store on database/sql with the go-sqlite3 driver.
// Timestamps are kept as Unix nanoseconds.
type Store struct {
	db *sql.DB
}

var _ chat.Store = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// SQLite allows one writer; a single connection serialises every call.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
}

func (s *Store) FindParticipant(ctx context.Context, name string) (chat.Participant, error) {
	var lastSeen int64
	err := s.db.QueryRowContext(ctx,
		`SELECT last_seen FROM participants WHERE name = ?`, name,
	).Scan(&lastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return chat.Participant{}, chat.ErrParticipantNotFound
	}
	if err != nil {
		return chat.Participant{}, fmt.Errorf("sqlite: find participant: %w", err)
	}
	return chat.Participant{Name: name, LastSeen: fromNanos(lastSeen)}, nil
}

func (s *Store) ListParticipants(ctx context.Context, q chat.ParticipantQuery) ([]chat.Participant, error) {
	query := `SELECT name, last_seen FROM participants`
	var args []any
	if !q.SeenBefore.IsZero() {
		query += ` WHERE last_seen < ?`
		args = append(args, q.SeenBefore.UnixNano())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list participants: %w", err)
	}
	defer rows.Close()

	out := make([]chat.Participant, 0)
	for rows.Next() {
		var (
			p        chat.Participant
			lastSeen int64
		)
		if err := rows.Scan(&p.Name, &lastSeen); err != nil {
			return nil, fmt.Errorf("sqlite: scan participant: %w", err)
		}
		p.LastSeen = fromNanos(lastSeen)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list participants: %w", err)
	}
	return out, nil
}

func (s *Store) InsertParticipant(ctx context.Context, p chat.Participant) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO participants (name, last_seen) VALUES (?, ?)`,
		p.Name, p.LastSeen.UnixNano(),
	)
	if isUniqueViolation(err) {
		return chat.ErrParticipantExists
	}
	if err != nil {
		return fmt.Errorf("sqlite: insert participant: %w", err)
	}
	return nil
}

func (s *Store) TouchParticipant(ctx context.Context, name string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE participants SET last_seen = ? WHERE name = ?`,
		at.UnixNano(), name,
	)
	if err != nil {
		return fmt.Errorf("sqlite: touch participant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: touch participant: %w", err)
	}
	if n == 0 {
		return chat.ErrParticipantNotFound
	}
	return nil
}

func (s *Store) DeleteParticipant(ctx context.Context, name string, seenBefore time.Time) (bool, error) {
	query := `DELETE FROM participants WHERE name = ?`
	args := []any{name}
	if !seenBefore.IsZero() {
		query += ` AND last_seen < ?`
		args = append(args, seenBefore.UnixNano())
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("sqlite: delete participant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: delete participant: %w", err)
	}
	return n > 0, nil
}

func (s *Store) AppendMessage(ctx context.Context, m chat.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, from_name, to_name, text, kind, time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.From, m.To, m.Text, string(m.Kind), m.Time, m.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: append message: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, q chat.MessageQuery) ([]chat.Message, error) {
	query := `SELECT id, from_name, to_name, text, kind, time, created_at FROM messages`
	var (
		conds []string
		args  []any
	)
	if q.From != "" {
		conds = append(conds, `from_name = ?`)
		args = append(args, q.From)
	}
	if len(q.To) > 0 {
		conds = append(conds, `to_name IN (?`+strings.Repeat(`, ?`, len(q.To)-1)+`)`)
		for _, to := range q.To {
			args = append(args, to)
		}
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` OR `)
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list messages: %w", err)
	}
	defer rows.Close()

	out := make([]chat.Message, 0)
	for rows.Next() {
		var (
			m         chat.Message
			kind      string
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.From, &m.To, &m.Text, &kind, &m.Time, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan message: %w", err)
		}
		m.Kind = chat.Kind(kind)
		m.CreatedAt = fromNanos(createdAt)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list messages: %w", err)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
