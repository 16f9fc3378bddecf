package store

import (
	"github.com/matheus3301/quill/internal/domain"
)

// AppendHistory records a message submitted at createAt (epoch millis)
// and returns its row ID.
func (db *DB) AppendHistory(text string, createAt int64) (int64, error) {
	res, err := db.Exec(`INSERT INTO history (text, create_at) VALUES (?, ?)`, text, createAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListHistory returns the newest limit entries, oldest first.
func (db *DB) ListHistory(limit int) ([]domain.HistoryItem, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := db.Query(`
		SELECT id, text, create_at FROM (
			SELECT id, text, create_at FROM history ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []domain.HistoryItem
	for rows.Next() {
		var it domain.HistoryItem
		if err := rows.Scan(&it.ID, &it.Text, &it.CreateAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// TrimHistory deletes all but the newest keep entries.
func (db *DB) TrimHistory(keep int) error {
	_, err := db.Exec(`
		DELETE FROM history WHERE id NOT IN (
			SELECT id FROM history ORDER BY id DESC LIMIT ?
		)`, keep)
	return err
}
