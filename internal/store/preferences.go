package store

// Preference categories.
const (
	CategoryTutorial = "tutorial_step"
	CategoryAccount  = "account"
)

// SetPreference stores a value under (category, name).
func (db *DB) SetPreference(category, name, value string) error {
	_, err := db.Exec(`
		INSERT INTO preferences (category, name, value) VALUES (?, ?, ?)
		ON CONFLICT(category, name) DO UPDATE SET value = excluded.value`,
		category, name, value)
	return err
}

// GetPreference returns a stored value or ErrNotFound.
func (db *DB) GetPreference(category, name string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM preferences WHERE category = ? AND name = ?`, category, name).Scan(&value)
	if err != nil {
		return "", notFound(err)
	}
	return value, nil
}
