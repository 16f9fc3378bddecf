package store

import (
	"time"

	"github.com/matheus3301/quill/internal/domain"
)

// UpsertUser inserts or updates a user. An empty status or timezone keeps
// the stored value.
func (db *DB) UpsertUser(u *domain.User) error {
	status := u.Status
	if status == "" {
		status = domain.StatusOffline
	}
	_, err := db.Exec(`
		INSERT INTO users (id, username, name, status, timezone, can_mention_channel, can_mention_groups, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = CASE WHEN excluded.username = '' THEN users.username ELSE excluded.username END,
			name = CASE WHEN excluded.name = '' THEN users.name ELSE excluded.name END,
			status = CASE WHEN ? = '' THEN users.status ELSE excluded.status END,
			timezone = CASE WHEN excluded.timezone = '' THEN users.timezone ELSE excluded.timezone END,
			can_mention_channel = excluded.can_mention_channel,
			can_mention_groups = excluded.can_mention_groups,
			updated_at = excluded.updated_at`,
		u.ID, u.Username, u.Name, status, u.Timezone, u.CanMentionChannel, u.CanMentionGroups, time.Now().UnixMilli(), u.Status)
	return err
}

// GetUser returns a user or ErrNotFound.
func (db *DB) GetUser(id string) (*domain.User, error) {
	var u domain.User
	err := db.QueryRow(`
		SELECT id, username, name, status, timezone, can_mention_channel, can_mention_groups
		FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.Name, &u.Status, &u.Timezone, &u.CanMentionChannel, &u.CanMentionGroups)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// SetUserStatus updates a user's status.
func (db *DB) SetUserStatus(id, status string) error {
	res, err := db.Exec(`UPDATE users SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now().UnixMilli(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
