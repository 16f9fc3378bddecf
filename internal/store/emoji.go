package store

import "time"

// AddCustomEmoji registers a custom emoji name.
func (db *DB) AddCustomEmoji(name, creatorID string) error {
	_, err := db.Exec(`
		INSERT INTO custom_emoji (name, creator_id, create_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING`, name, creatorID, time.Now().UnixMilli())
	return err
}

// CustomEmojiNames returns all custom emoji names, sorted.
func (db *DB) CustomEmojiNames() ([]string, error) {
	rows, err := db.Query(`SELECT name FROM custom_emoji ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
