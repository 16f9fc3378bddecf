package store

import (
	"time"

	"github.com/matheus3301/quill/internal/domain"
)

const channelColumns = `id, name, display_name, type, header, purpose, member_count, last_post_at`

// UpsertChannel inserts or updates a channel. Empty header, purpose and
// display name never overwrite stored values, and member_count is only
// replaced by a positive count.
func (db *DB) UpsertChannel(c *domain.Channel) error {
	_, err := db.Exec(`
		INSERT INTO channels (`+channelColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = CASE WHEN excluded.name = '' THEN channels.name ELSE excluded.name END,
			display_name = CASE WHEN excluded.display_name = '' THEN channels.display_name ELSE excluded.display_name END,
			type = excluded.type,
			header = CASE WHEN excluded.header = '' THEN channels.header ELSE excluded.header END,
			purpose = CASE WHEN excluded.purpose = '' THEN channels.purpose ELSE excluded.purpose END,
			member_count = CASE WHEN excluded.member_count > 0 THEN excluded.member_count ELSE channels.member_count END,
			last_post_at = MAX(channels.last_post_at, excluded.last_post_at),
			updated_at = excluded.updated_at`,
		c.ID, c.Name, c.DisplayName, string(c.Type), c.Header, c.Purpose, c.MemberCount, c.LastPostAt, time.Now().UnixMilli())
	return err
}

// GetChannel returns a channel or ErrNotFound.
func (db *DB) GetChannel(id string) (*domain.Channel, error) {
	c, err := scanChannel(db.QueryRow(`SELECT `+channelColumns+` FROM channels WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// ListChannels returns channels with the most recent activity first.
func (db *DB) ListChannels(limit, offset int) ([]*domain.Channel, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT `+channelColumns+` FROM channels
		WHERE id NOT LIKE '%@lid'
		ORDER BY last_post_at DESC, id
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetChannelHeader replaces a channel's header, including with an empty one.
func (db *DB) SetChannelHeader(id, header string) error {
	return db.setChannelField(`UPDATE channels SET header = ?, updated_at = ? WHERE id = ?`, id, header)
}

// SetChannelPurpose replaces a channel's purpose.
func (db *DB) SetChannelPurpose(id, purpose string) error {
	return db.setChannelField(`UPDATE channels SET purpose = ?, updated_at = ? WHERE id = ?`, id, purpose)
}

func (db *DB) setChannelField(query, id, value string) error {
	res, err := db.Exec(query, value, time.Now().UnixMilli(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddChannelMember records membership and refreshes the channel's member count.
func (db *DB) AddChannelMember(channelID, userID, timezone string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO channel_members (channel_id, user_id, timezone) VALUES (?, ?, ?)
		ON CONFLICT(channel_id, user_id) DO UPDATE SET
			timezone = CASE WHEN excluded.timezone = '' THEN channel_members.timezone ELSE excluded.timezone END`,
		channelID, userID, timezone); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		UPDATE channels SET member_count = (SELECT COUNT(*) FROM channel_members WHERE channel_id = ?)
		WHERE id = ?`, channelID, channelID); err != nil {
		return err
	}
	return tx.Commit()
}

// ChannelTimezones returns the distinct non-empty timezones of a channel's
// members. A member's own timezone wins over the user's profile timezone.
func (db *DB) ChannelTimezones(channelID string) ([]string, error) {
	rows, err := db.Query(`
		SELECT DISTINCT tz FROM (
			SELECT COALESCE(NULLIF(cm.timezone, ''), u.timezone, '') AS tz
			FROM channel_members cm
			LEFT JOIN users u ON u.id = cm.user_id
			WHERE cm.channel_id = ?
		) WHERE tz != '' ORDER BY tz`, channelID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var zones []string
	for rows.Next() {
		var tz string
		if err := rows.Scan(&tz); err != nil {
			return nil, err
		}
		zones = append(zones, tz)
	}
	return zones, rows.Err()
}

func scanChannel(s scanner) (*domain.Channel, error) {
	var (
		c   domain.Channel
		typ string
	)
	if err := s.Scan(&c.ID, &c.Name, &c.DisplayName, &typ, &c.Header, &c.Purpose, &c.MemberCount, &c.LastPostAt); err != nil {
		return nil, err
	}
	c.Type = domain.ChannelType(typ)
	return &c, nil
}
