package store

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// InsertFile stores an attachment record, assigning a ULID when f.ID is
// empty and filling in the extension and creation time.
func (db *DB) InsertFile(f *StoredFile) error {
	if f.ID == "" {
		f.ID = strings.ToLower(ulid.Make().String())
	}
	if f.CreateAt == 0 {
		f.CreateAt = time.Now().UnixMilli()
	}
	if f.Extension == "" {
		f.Extension = strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
	}
	_, err := db.Exec(`
		INSERT INTO files (id, channel_id, post_id, name, extension, mime_type, size, width, height, path, create_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.ChannelID, f.PostID, f.Name, f.Extension, f.MimeType, f.Size, f.Width, f.Height, f.Path, f.CreateAt)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

// GetFile returns a stored file or ErrNotFound.
func (db *DB) GetFile(id string) (*StoredFile, error) {
	var f StoredFile
	err := db.QueryRow(`
		SELECT id, channel_id, post_id, name, extension, mime_type, size, width, height, path, create_at
		FROM files WHERE id = ?`, id).
		Scan(&f.ID, &f.ChannelID, &f.PostID, &f.Name, &f.Extension, &f.MimeType, &f.Size, &f.Width, &f.Height, &f.Path, &f.CreateAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

// DeleteFile removes an unattached file record and returns it so the caller
// can remove the bytes. Files already attached to a post are kept.
func (db *DB) DeleteFile(id string) (*StoredFile, error) {
	f, err := db.GetFile(id)
	if err != nil {
		return nil, err
	}
	if f.PostID != "" {
		return nil, fmt.Errorf("file %s is attached to post %s", id, f.PostID)
	}
	if _, err := db.Exec(`DELETE FROM files WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return f, nil
}

// AttachFiles links uploaded files to a post.
func (db *DB) AttachFiles(postID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range ids {
		res, err := tx.Exec(`UPDATE files SET post_id = ? WHERE id = ?`, postID, id)
		if err != nil {
			return fmt.Errorf("attach file %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("attach file %s: %w", id, ErrNotFound)
		}
	}
	return tx.Commit()
}
