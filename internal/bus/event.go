package bus

import (
	"time"

	"github.com/matheus3301/quill/internal/domain"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds. Subscribers filter by prefix, so every kind is namespaced.
const (
	KindDraftSaved    = "draft.saved"
	KindDraftCleared  = "draft.cleared"
	KindPostCreated   = "post.created"
	KindPostUpserted  = "post.upserted"
	KindPostEdited    = "post.edited"
	KindPostSendAck   = "post.send_ack"
	KindPostFailed    = "post.send_failed"
	KindReaction      = "reaction.changed"
	KindChannelUpdate = "channel.updated"
	KindUserStatus    = "user.status_changed"
	KindFileUploaded  = "file.uploaded"

	KindSessionStatus   = "session.status_changed"
	KindSessionQR       = "session.qr_generated"
	KindSessionAuthed   = "session.authenticated"
	KindSessionAuthFail = "session.auth_failed"
	KindSessionLogout   = "session.logged_out"

	KindSyncConnected    = "sync.connected"
	KindSyncDisconnected = "sync.disconnected"
	KindSyncHistory      = "sync.history_batch"

	KindWAPost         = "wa.post"
	KindWAHistoryBatch = "wa.history_batch"
	KindWAReaction     = "wa.reaction"
	KindWAEdit         = "wa.edit"
	KindWAContact      = "wa.contact"
)

// PostRef identifies a post in event payloads.
type PostRef struct {
	ChannelID string
	PostID    string
}

// SendAck is the payload of KindPostSendAck.
type SendAck struct {
	ChannelID     string
	PendingPostID string
	PostID        string
}

// SendFailure is the payload of KindPostFailed.
type SendFailure struct {
	ChannelID string
	PostID    string
	Error     string
}

// PostEdit is the payload of KindWAEdit.
type PostEdit struct {
	ChannelID string
	PostID    string
	Message   string
	EditAt    int64
}

// ReactionChange is the payload of KindWAReaction. Emoji holds the
// character as received; empty means the reaction was removed.
type ReactionChange struct {
	ChannelID string
	PostID    string
	UserID    string
	Emoji     string
	At        int64
}

// HistoryBatch is the payload of KindWAHistoryBatch.
type HistoryBatch struct {
	Channels []*domain.Channel
	Posts    []*domain.Post
	Users    []*domain.User
}
