package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// QueueOutbox adds an operation to the outbox. payload is JSON-encoded.
func (db *DB) QueueOutbox(clientID, kind, channelID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode outbox payload: %w", err)
	}
	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO outbox (client_id, kind, channel_id, payload, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		clientID, kind, channelID, string(data), OutboxQueued, now, now)
	return err
}

// MarkOutboxSending moves an entry to sending and counts the attempt.
func (db *DB) MarkOutboxSending(clientID string) error {
	_, err := db.Exec(`
		UPDATE outbox SET status = ?, attempts = attempts + 1, updated_at = ?
		WHERE client_id = ?`, OutboxSending, time.Now().UnixMilli(), clientID)
	return err
}

// MarkOutboxSent records delivery and the server-side ID.
func (db *DB) MarkOutboxSent(clientID, serverID string) error {
	_, err := db.Exec(`
		UPDATE outbox SET status = ?, server_id = ?, error_message = '', updated_at = ?
		WHERE client_id = ?`, OutboxSent, serverID, time.Now().UnixMilli(), clientID)
	return err
}

// MarkOutboxFailed records a delivery failure.
func (db *DB) MarkOutboxFailed(clientID, errMsg string) error {
	_, err := db.Exec(`
		UPDATE outbox SET status = ?, error_message = ?, updated_at = ?
		WHERE client_id = ?`, OutboxFailed, errMsg, time.Now().UnixMilli(), clientID)
	return err
}

// RequeueInterrupted returns entries left in sending by a crashed daemon to
// the queue. It reports how many were requeued.
func (db *DB) RequeueInterrupted() (int64, error) {
	res, err := db.Exec(`UPDATE outbox SET status = ?, updated_at = ? WHERE status = ?`,
		OutboxQueued, time.Now().UnixMilli(), OutboxSending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PendingOutbox returns queued entries, oldest first.
func (db *DB) PendingOutbox(limit int) ([]OutboxEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, client_id, kind, channel_id, payload, status, attempts, error_message, server_id, created_at
		FROM outbox WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT ?`, OutboxQueued, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []OutboxEntry
	for rows.Next() {
		var (
			e       OutboxEntry
			payload string
		)
		if err := rows.Scan(&e.ID, &e.ClientID, &e.Kind, &e.ChannelID, &payload, &e.Status,
			&e.Attempts, &e.ErrorMessage, &e.ServerID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Payload = []byte(payload)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ServerIDFor returns the server ID a delivered post was confirmed under,
// given its pending ID.
func (db *DB) ServerIDFor(pendingID string) (string, error) {
	var id string
	err := db.QueryRow(`
		SELECT server_id FROM outbox WHERE client_id = ? AND kind = ? AND status = ?`,
		pendingID, OutboxPost, OutboxSent).Scan(&id)
	if err != nil {
		return "", notFound(err)
	}
	return id, nil
}
