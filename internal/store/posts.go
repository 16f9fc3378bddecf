package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/matheus3301/quill/internal/domain"
)

const postColumns = `id, pending_post_id, channel_id, user_id, root_id, message, type, status, props, create_at, edit_at`

// UpsertPost inserts or updates a post keyed by ID and bumps the channel's
// last post time.
func (db *DB) UpsertPost(p *domain.Post) error {
	return db.UpsertPosts([]*domain.Post{p})
}

// UpsertPosts stores posts in one transaction.
func (db *DB) UpsertPosts(posts []*domain.Post) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, p := range posts {
		props, err := encodeProps(p.Props)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO posts (`+postColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				message = excluded.message,
				status = excluded.status,
				props = excluded.props,
				edit_at = MAX(posts.edit_at, excluded.edit_at)`,
			p.ID, p.PendingPostID, p.ChannelID, p.UserID, p.RootID, p.Message, p.Type, p.Status, props, p.CreateAt, p.EditAt); err != nil {
			return fmt.Errorf("upsert post %s: %w", p.ID, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO channels (id, last_post_at, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET last_post_at = MAX(channels.last_post_at, excluded.last_post_at)`,
			p.ChannelID, p.CreateAt, now); err != nil {
			return fmt.Errorf("touch channel: %w", err)
		}
	}
	return tx.Commit()
}

// ConfirmPost replaces a pending post's client ID with the server-assigned ID.
func (db *DB) ConfirmPost(pendingID, serverID string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`UPDATE posts SET id = ?, status = ? WHERE id = ?`, serverID, domain.PostStatusSent, pendingID)
	if err != nil {
		return fmt.Errorf("confirm post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(`UPDATE files SET post_id = ? WHERE post_id = ?`, serverID, pendingID); err != nil {
		return fmt.Errorf("move files: %w", err)
	}
	if _, err := tx.Exec(`UPDATE reactions SET post_id = ? WHERE post_id = ?`, serverID, pendingID); err != nil {
		return fmt.Errorf("move reactions: %w", err)
	}
	return tx.Commit()
}

// SetPostStatus updates a post's delivery status.
func (db *DB) SetPostStatus(id, status string) error {
	_, err := db.Exec(`UPDATE posts SET status = ? WHERE id = ?`, status, id)
	return err
}

// GetPost returns a post with its file IDs or ErrNotFound.
func (db *DB) GetPost(id string) (*domain.Post, error) {
	p, err := scanPost(db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	if p.FileIDs, err = db.postFileIDs(p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPosts returns posts in a channel created before beforeMs, newest first.
// beforeMs <= 0 means now.
func (db *DB) ListPosts(channelID string, beforeMs int64, limit int) ([]*domain.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	if beforeMs <= 0 {
		beforeMs = time.Now().UnixMilli() + 1
	}
	rows, err := db.Query(`
		SELECT `+postColumns+` FROM posts
		WHERE channel_id = ? AND create_at < ?
		ORDER BY create_at DESC
		LIMIT ?`, channelID, beforeMs, limit)
	if err != nil {
		return nil, err
	}
	posts, err := collectPosts(rows)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		if p.FileIDs, err = db.postFileIDs(p.ID); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

// LatestRepliablePost returns the newest post in a channel that can be
// replied to or reacted on: not a system post and not waiting for delivery.
func (db *DB) LatestRepliablePost(channelID string) (*domain.Post, error) {
	p, err := scanPost(db.QueryRow(`
		SELECT `+postColumns+` FROM posts
		WHERE channel_id = ? AND type NOT LIKE 'system\_%' ESCAPE '\'
			AND status NOT IN (?, ?, ?)
		ORDER BY create_at DESC LIMIT 1`,
		channelID, domain.PostStatusPending, domain.PostStatusSending, domain.PostStatusFailed))
	return p, notFound(err)
}

// LatestOwnPost returns the newest delivered post by userID in a channel.
func (db *DB) LatestOwnPost(channelID, userID string) (*domain.Post, error) {
	p, err := scanPost(db.QueryRow(`
		SELECT `+postColumns+` FROM posts
		WHERE channel_id = ? AND user_id = ? AND type NOT LIKE 'system\_%' ESCAPE '\'
			AND status NOT IN (?, ?, ?)
		ORDER BY create_at DESC LIMIT 1`,
		channelID, userID, domain.PostStatusPending, domain.PostStatusSending, domain.PostStatusFailed))
	return p, notFound(err)
}

// UpdatePostMessage replaces a post's text and stamps the edit time.
func (db *DB) UpdatePostMessage(id, message string, editAt int64) error {
	res, err := db.Exec(`UPDATE posts SET message = ?, edit_at = ? WHERE id = ?`, message, editAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchPosts runs a full-text query over post messages, optionally
// restricted to one channel.
func (db *DB) SearchPosts(query, channelID string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `
		SELECT p.id, p.pending_post_id, p.channel_id, p.user_id, p.root_id, p.message,
		       p.type, p.status, p.props, p.create_at, p.edit_at,
		       snippet(posts_fts, '<<', '>>', '...', -1, 16)
		FROM posts_fts f
		JOIN posts p ON p.rowid = f.docid
		WHERE posts_fts MATCH ?`
	args := []any{query}
	if channelID != "" {
		q += " AND p.channel_id = ?"
		args = append(args, channelID)
	}
	q += " ORDER BY p.create_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var (
			r     SearchResult
			props string
		)
		if err := rows.Scan(&r.Post.ID, &r.Post.PendingPostID, &r.Post.ChannelID, &r.Post.UserID,
			&r.Post.RootID, &r.Post.Message, &r.Post.Type, &r.Post.Status, &props,
			&r.Post.CreateAt, &r.Post.EditAt, &r.Snippet); err != nil {
			return nil, err
		}
		if r.Post.Props, err = decodeProps(props); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (db *DB) postFileIDs(postID string) ([]string, error) {
	rows, err := db.Query(`SELECT id FROM files WHERE post_id = ? ORDER BY create_at, name`, postID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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

type rowsScanner interface {
	scanner
	Next() bool
	Err() error
	Close() error
}

func collectPosts(rows rowsScanner) ([]*domain.Post, error) {
	defer func() { _ = rows.Close() }()
	var posts []*domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func scanPost(s scanner) (*domain.Post, error) {
	var (
		p     domain.Post
		props string
	)
	if err := s.Scan(&p.ID, &p.PendingPostID, &p.ChannelID, &p.UserID, &p.RootID,
		&p.Message, &p.Type, &p.Status, &props, &p.CreateAt, &p.EditAt); err != nil {
		return nil, err
	}
	var err error
	if p.Props, err = decodeProps(props); err != nil {
		return nil, err
	}
	return &p, nil
}

func encodeProps(props map[string]any) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("encode props: %w", err)
	}
	return string(b), nil
}

func decodeProps(s string) (map[string]any, error) {
	if s == "" || s == "{}" {
		return nil, nil
	}
	var props map[string]any
	if err := json.Unmarshal([]byte(s), &props); err != nil {
		return nil, fmt.Errorf("decode props: %w", err)
	}
	return props, nil
}
