package store

import "github.com/matheus3301/quill/internal/domain"

// Outbox entry kinds.
const (
	OutboxPost           = "post"
	OutboxEdit           = "edit"
	OutboxReactionAdd    = "reaction_add"
	OutboxReactionRemove = "reaction_remove"
)

// Outbox entry statuses.
const (
	OutboxQueued  = "queued"
	OutboxSending = "sending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// OutboxEntry is a pending outgoing operation. Payload holds the JSON of a
// domain.Post for post and edit entries and of a domain.Reaction otherwise.
type OutboxEntry struct {
	ID           int64
	ClientID     string
	Kind         string
	ChannelID    string
	Payload      []byte
	Status       string
	Attempts     int
	ErrorMessage string
	ServerID     string
	CreatedAt    int64
}

// StoredFile is an uploaded attachment and where its bytes live on disk.
type StoredFile struct {
	domain.FileInfo
	Path string
}

// SearchResult is a post matched by full-text search.
type SearchResult struct {
	Post    domain.Post
	Snippet string
}
