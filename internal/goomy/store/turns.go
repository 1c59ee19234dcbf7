package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bdobrica/goomy/internal/goomy/dialog"
	"github.com/bdobrica/goomy/internal/goomy/session"
)

// defaultRecentLimit bounds RecentTurns when no positive limit is given.
const defaultRecentLimit = 50

// Turn is a stored audit row.
type Turn struct {
	ID string
	session.TurnRecord
}

var _ session.TurnRecorder = (*Store)(nil)

// RecordTurn appends rec to the turn audit log.
func (s *Store) RecordTurn(ctx context.Context, rec session.TurnRecord) error {
	var topic sql.NullString
	if rec.Topic != "" {
		topic = sql.NullString{String: rec.Topic, Valid: true}
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (id, turn_id, session_id, session_key, message, reply, branch,
			topic, sentiment, complexity, continuity, delay_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), rec.TurnID, rec.SessionID, rec.SessionKey, rec.Message, rec.Reply, rec.Branch,
		topic, string(rec.Sentiment), rec.Complexity, string(rec.Continuity),
		rec.Delay.Milliseconds(), createdAt.UnixNano())
	if err != nil {
		return fmt.Errorf("store: record turn %s: %w", rec.TurnID, err)
	}
	return nil
}

// CountTurns returns the number of audited turns.
func (s *Store) CountTurns(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM turns").Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count turns: %w", err)
	}
	return n, nil
}

// RecentTurns returns up to limit of the session's most recent turns, newest
// first.
func (s *Store) RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, turn_id, session_id, session_key, message, reply, branch,
			topic, sentiment, complexity, continuity, delay_ms, created_at
		FROM turns
		WHERE session_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			t          Turn
			topic      sql.NullString
			sentiment  string
			continuity string
			delayMS    int64
			createdAt  int64
		)
		if err := rows.Scan(&t.ID, &t.TurnID, &t.SessionID, &t.SessionKey, &t.Message, &t.Reply, &t.Branch,
			&topic, &sentiment, &t.Complexity, &continuity, &delayMS, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan turn: %w", err)
		}
		t.Topic = topic.String
		t.Sentiment = dialog.Mood(sentiment)
		t.Continuity = dialog.Continuity(continuity)
		t.Delay = time.Duration(delayMS) * time.Millisecond
		t.CreatedAt = time.Unix(0, createdAt).UTC()
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate turns: %w", err)
	}
	return turns, nil
}
