package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/matheus3301/quill/internal/domain"
)

// SetDraft writes the draft under key. A nil draft deletes the row.
func (db *DB) SetDraft(key string, d *domain.Draft) error {
	if d == nil {
		_, err := db.Exec(`DELETE FROM drafts WHERE key = ?`, key)
		return err
	}

	files, err := json.Marshal(nonNil(d.FileInfos))
	if err != nil {
		return fmt.Errorf("encode file infos: %w", err)
	}
	uploads, err := json.Marshal(nonNil(d.UploadsInProgress))
	if err != nil {
		return fmt.Errorf("encode uploads: %w", err)
	}
	updateAt := d.UpdateAt
	if updateAt == 0 {
		updateAt = time.Now().UnixMilli()
	}

	_, err = db.Exec(`
		INSERT INTO drafts (key, channel_id, message, file_infos, uploads, caret, update_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			channel_id = excluded.channel_id,
			message = excluded.message,
			file_infos = excluded.file_infos,
			uploads = excluded.uploads,
			caret = excluded.caret,
			update_at = excluded.update_at`,
		key, d.ChannelID, d.Message, string(files), string(uploads), d.Caret, updateAt)
	return err
}

// GetDraft returns the draft stored under key or ErrNotFound.
func (db *DB) GetDraft(key string) (*domain.Draft, error) {
	row := db.QueryRow(`
		SELECT channel_id, message, file_infos, uploads, caret, update_at
		FROM drafts WHERE key = ?`, key)
	d, err := scanDraft(row)
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

// ListDrafts returns all stored drafts, most recently updated first.
func (db *DB) ListDrafts() ([]*domain.Draft, error) {
	rows, err := db.Query(`
		SELECT channel_id, message, file_infos, uploads, caret, update_at
		FROM drafts ORDER BY update_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var drafts []*domain.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(s scanner) (*domain.Draft, error) {
	var (
		d              domain.Draft
		files, uploads string
	)
	if err := s.Scan(&d.ChannelID, &d.Message, &files, &uploads, &d.Caret, &d.UpdateAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(files), &d.FileInfos); err != nil {
		return nil, fmt.Errorf("decode file infos: %w", err)
	}
	if err := json.Unmarshal([]byte(uploads), &d.UploadsInProgress); err != nil {
		return nil, fmt.Errorf("decode uploads: %w", err)
	}
	if len(d.FileInfos) == 0 {
		d.FileInfos = nil
	}
	if len(d.UploadsInProgress) == 0 {
		d.UploadsInProgress = nil
	}
	return &d, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
