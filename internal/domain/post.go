package domain

import "strings"

// Post statuses as tracked locally.
const (
	PostStatusPending  = "pending"
	PostStatusSending  = "sending"
	PostStatusSent     = "sent"
	PostStatusFailed   = "failed"
	PostStatusReceived = "received"
)

// Post props set by the composer.
const (
	PropMentionHighlightDisabled = "mentionHighlightDisabled"
	PropDisableGroupHighlight    = "disable_group_highlight"
)

// SystemPostPrefix marks posts generated by the server rather than a user.
const SystemPostPrefix = "system_"

// Post is a channel message.
type Post struct {
	ID            string         `json:"id"`
	PendingPostID string         `json:"pending_post_id,omitempty"`
	ChannelID     string         `json:"channel_id"`
	UserID        string         `json:"user_id"`
	RootID        string         `json:"root_id,omitempty"`
	Message       string         `json:"message"`
	Type          string         `json:"type,omitempty"`
	Status        string         `json:"status,omitempty"`
	FileIDs       []string       `json:"file_ids,omitempty"`
	Props         map[string]any `json:"props,omitempty"`
	CreateAt      int64          `json:"create_at"`
	EditAt        int64          `json:"edit_at,omitempty"`
}

// IsSystem reports whether the post was generated by the server.
func (p *Post) IsSystem() bool {
	return strings.HasPrefix(p.Type, SystemPostPrefix)
}

// IsPending reports whether the post has not been acknowledged by the network yet.
func (p *Post) IsPending() bool {
	switch p.Status {
	case PostStatusPending, PostStatusSending, PostStatusFailed:
		return true
	}
	return false
}

// SetProp sets a prop, allocating the map on first use.
func (p *Post) SetProp(key string, value any) {
	if p.Props == nil {
		p.Props = make(map[string]any)
	}
	p.Props[key] = value
}

// BoolProp returns a boolean prop, false when absent.
func (p *Post) BoolProp(key string) bool {
	v, _ := p.Props[key].(bool)
	return v
}

// Reaction is an emoji reaction on a post.
type Reaction struct {
	PostID    string `json:"post_id"`
	UserID    string `json:"user_id"`
	EmojiName string `json:"emoji_name"`
	CreateAt  int64  `json:"create_at"`
}
