package matrix

// DBSyncStore persists the /sync position in the Goomy database so a
// restarted bot resumes where it left off instead of answering old messages
// a second time.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"
)

var _ mautrix.SyncStore = (*DBSyncStore)(nil)

// DBSyncStore implements mautrix.SyncStore on the matrix_sync_state table,
// one row per (user_id, key).
type DBSyncStore struct {
	db *sql.DB
}

// newDBSyncStore expects the store migrations to have been applied to db.
func newDBSyncStore(db *sql.DB) *DBSyncStore {
	return &DBSyncStore{db: db}
}

// SaveFilterID implements mautrix.SyncStore.
func (s *DBSyncStore) SaveFilterID(ctx context.Context, userID id.UserID, filterID string) error {
	return s.save(ctx, userID, "filter_id", filterID)
}

// LoadFilterID implements mautrix.SyncStore. It returns "" before the first
// save.
func (s *DBSyncStore) LoadFilterID(ctx context.Context, userID id.UserID) (string, error) {
	return s.load(ctx, userID, "filter_id")
}

// SaveNextBatch implements mautrix.SyncStore.
func (s *DBSyncStore) SaveNextBatch(ctx context.Context, userID id.UserID, nextBatchToken string) error {
	return s.save(ctx, userID, "next_batch", nextBatchToken)
}

// LoadNextBatch implements mautrix.SyncStore. It returns "" on first run.
func (s *DBSyncStore) LoadNextBatch(ctx context.Context, userID id.UserID) (string, error) {
	return s.load(ctx, userID, "next_batch")
}

func (s *DBSyncStore) save(ctx context.Context, userID id.UserID, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matrix_sync_state (user_id, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value
	`, userID.String(), key, value)
	if err != nil {
		return fmt.Errorf("matrix: save %s: %w", key, err)
	}
	return nil
}

func (s *DBSyncStore) load(ctx context.Context, userID id.UserID, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM matrix_sync_state WHERE user_id = ? AND key = ?`,
		userID.String(), key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("matrix: load %s: %w", key, err)
	}
	return value, nil
}
