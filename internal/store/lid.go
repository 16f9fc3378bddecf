package store

import "fmt"

// LIDMapping maps a hidden-user (LID) account to its phone number account.
type LIDMapping struct {
	LID string
	PN  string
}

// SyncLIDMap replaces the lid_map table with mappings.
func (db *DB) SyncLIDMap(mappings []LIDMapping) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM lid_map`); err != nil {
		return fmt.Errorf("clear lid_map: %w", err)
	}
	for _, m := range mappings {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO lid_map (lid, pn) VALUES (?, ?)`, m.LID, m.PN); err != nil {
			return fmt.Errorf("insert lid_map %q: %w", m.LID, err)
		}
	}
	return tx.Commit()
}

// ReconcileLIDs folds channels, posts, members and users recorded under a
// LID into their phone number equivalents and returns how many LID
// channels were merged.
func (db *DB) ReconcileLIDs() (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	steps := []struct {
		name  string
		query string
	}{
		{"ensure PN channels", `
			INSERT INTO channels (id, name, display_name, type, header, purpose, member_count, last_post_at, updated_at)
			SELECT lm.pn || '@s.whatsapp.net', c.name, c.display_name, c.type, c.header, c.purpose, c.member_count, c.last_post_at, c.updated_at
			FROM channels c
			JOIN lid_map lm ON c.id = lm.lid || '@lid'
			WHERE true
			ON CONFLICT(id) DO UPDATE SET
				last_post_at = MAX(channels.last_post_at, excluded.last_post_at),
				display_name = CASE WHEN channels.display_name = '' THEN excluded.display_name ELSE channels.display_name END,
				updated_at = excluded.updated_at`},
		{"move posts", `
			UPDATE posts SET channel_id = (
				SELECT lm.pn || '@s.whatsapp.net' FROM lid_map lm WHERE posts.channel_id = lm.lid || '@lid')
			WHERE channel_id IN (SELECT lid || '@lid' FROM lid_map)`},
		{"rewrite post authors", `
			UPDATE posts SET user_id = (
				SELECT lm.pn || '@s.whatsapp.net' FROM lid_map lm WHERE posts.user_id = lm.lid || '@lid')
			WHERE user_id IN (SELECT lid || '@lid' FROM lid_map)`},
		{"move drafts", `
			UPDATE OR IGNORE drafts SET
				channel_id = (SELECT lm.pn || '@s.whatsapp.net' FROM lid_map lm WHERE drafts.channel_id = lm.lid || '@lid'),
				key = 'draft_' || (SELECT lm.pn || '@s.whatsapp.net' FROM lid_map lm WHERE drafts.channel_id = lm.lid || '@lid')
			WHERE channel_id IN (SELECT lid || '@lid' FROM lid_map)`},
		{"merge users", `
			INSERT INTO users (id, username, name, status, timezone, can_mention_channel, can_mention_groups, updated_at)
			SELECT lm.pn || '@s.whatsapp.net', u.username, u.name, u.status, u.timezone, u.can_mention_channel, u.can_mention_groups, u.updated_at
			FROM users u
			JOIN lid_map lm ON u.id = lm.lid || '@lid'
			WHERE true
			ON CONFLICT(id) DO UPDATE SET
				name = CASE WHEN users.name = '' THEN excluded.name ELSE users.name END,
				username = CASE WHEN users.username = '' THEN excluded.username ELSE users.username END`},
		{"rewrite members", `
			UPDATE OR IGNORE channel_members SET user_id = (
				SELECT lm.pn || '@s.whatsapp.net' FROM lid_map lm WHERE channel_members.user_id = lm.lid || '@lid')
			WHERE user_id IN (SELECT lid || '@lid' FROM lid_map)`},
		{"delete LID members", `DELETE FROM channel_members WHERE user_id IN (SELECT lid || '@lid' FROM lid_map)`},
		{"delete LID users", `DELETE FROM users WHERE id IN (SELECT lid || '@lid' FROM lid_map)`},
		{"delete LID drafts", `DELETE FROM drafts WHERE channel_id IN (SELECT lid || '@lid' FROM lid_map)`},
	}
	for _, s := range steps {
		if _, err := tx.Exec(s.query); err != nil {
			return 0, fmt.Errorf("%s: %w", s.name, err)
		}
	}

	res, err := tx.Exec(`DELETE FROM channels WHERE id IN (SELECT lid || '@lid' FROM lid_map)`)
	if err != nil {
		return 0, fmt.Errorf("delete LID channels: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return res.RowsAffected()
}
