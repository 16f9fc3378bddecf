package domain

// ChannelType follows the usual open/private/direct/group split.
type ChannelType string

const (
	ChannelOpen    ChannelType = "O"
	ChannelPrivate ChannelType = "P"
	ChannelDirect  ChannelType = "D"
	ChannelGroup   ChannelType = "G"
)

// Channel is a conversation.
type Channel struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name"`
	Type        ChannelType `json:"type"`
	Header      string      `json:"header,omitempty"`
	Purpose     string      `json:"purpose,omitempty"`
	MemberCount int         `json:"member_count"`
	LastPostAt  int64       `json:"last_post_at,omitempty"`
}

// IsDirectOrGroup reports whether the channel is a DM or group message.
func (c *Channel) IsDirectOrGroup() bool {
	return c.Type == ChannelDirect || c.Type == ChannelGroup
}

// Title returns the display name, falling back to the name.
func (c *Channel) Title() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}

// User statuses.
const (
	StatusOnline      = "online"
	StatusAway        = "away"
	StatusDND         = "dnd"
	StatusOffline     = "offline"
	StatusOutOfOffice = "ooo"
)

// User is a chat participant.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Status   string `json:"status,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	// CanMentionChannel allows @all, @channel and @here without suppression.
	CanMentionChannel bool `json:"can_mention_channel"`
	CanMentionGroups  bool `json:"can_mention_groups"`
}

// IsOutOfOffice reports whether the user's status is out of office.
func (u *User) IsOutOfOffice() bool {
	return u != nil && u.Status == StatusOutOfOffice
}
