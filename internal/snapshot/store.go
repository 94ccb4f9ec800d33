package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/sohan181204/collaborative-canvas/internal/protocol"
)

// Store persists a client's committed history per room, so a canvas can be
// restored when the same room is entered again. The drawing relay itself
// never writes here; this is purely client-side state.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS room_snapshots (
		room_id TEXT PRIMARY KEY,
		snapshot BLOB NOT NULL,
		path_count INTEGER DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the room's committed paths.
func (s *Store) Save(roomID string, paths []protocol.Path) error {
	data, err := json.Marshal(paths)
	if err != nil {
		return fmt.Errorf("encode snapshot for room %s: %w", roomID, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO room_snapshots (room_id, snapshot, path_count, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(room_id) DO UPDATE SET
			snapshot = excluded.snapshot,
			path_count = excluded.path_count,
			updated_at = CURRENT_TIMESTAMP
	`, roomID, data, len(paths))
	return err
}

// Load returns the stored paths for the room, or nil when no snapshot exists.
func (s *Store) Load(roomID string) ([]protocol.Path, error) {
	var data []byte
	err := s.db.QueryRow(
		"SELECT snapshot FROM room_snapshots WHERE room_id = ?", roomID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var paths []protocol.Path
	if err := json.Unmarshal(data, &paths); err != nil {
		return nil, fmt.Errorf("decode snapshot for room %s: %w", roomID, err)
	}
	return paths, nil
}

// Delete removes the room's snapshot.
func (s *Store) Delete(roomID string) error {
	_, err := s.db.Exec("DELETE FROM room_snapshots WHERE room_id = ?", roomID)
	return err
}

// Rooms returns the ids of all rooms with a stored snapshot.
func (s *Store) Rooms() ([]string, error) {
	rows, err := s.db.Query("SELECT room_id FROM room_snapshots ORDER BY room_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
