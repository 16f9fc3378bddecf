package store

import "github.com/matheus3301/quill/internal/domain"

// AddReaction records a reaction. Adding the same reaction twice is a no-op.
func (db *DB) AddReaction(r *domain.Reaction) error {
	_, err := db.Exec(`
		INSERT INTO reactions (post_id, user_id, emoji_name, create_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(post_id, user_id, emoji_name) DO NOTHING`,
		r.PostID, r.UserID, r.EmojiName, r.CreateAt)
	return err
}

// RemoveReaction deletes a reaction if present.
func (db *DB) RemoveReaction(r *domain.Reaction) error {
	_, err := db.Exec(`DELETE FROM reactions WHERE post_id = ? AND user_id = ? AND emoji_name = ?`,
		r.PostID, r.UserID, r.EmojiName)
	return err
}

// ClearUserReactions removes every reaction userID left on a post.
func (db *DB) ClearUserReactions(postID, userID string) error {
	_, err := db.Exec(`DELETE FROM reactions WHERE post_id = ? AND user_id = ?`, postID, userID)
	return err
}

// ListReactions returns a post's reactions in the order they were added.
func (db *DB) ListReactions(postID string) ([]domain.Reaction, error) {
	rows, err := db.Query(`
		SELECT post_id, user_id, emoji_name, create_at
		FROM reactions WHERE post_id = ? ORDER BY create_at, emoji_name`, postID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Reaction
	for rows.Next() {
		var r domain.Reaction
		if err := rows.Scan(&r.PostID, &r.UserID, &r.EmojiName, &r.CreateAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
