package domain

// CommandArgs is the context a slash command runs in.
type CommandArgs struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	RootID    string `json:"root_id,omitempty"`
}

// CommandResponse is the result of a successfully executed command.
type CommandResponse struct {
	Text      string `json:"text,omitempty"`
	Ephemeral bool   `json:"ephemeral,omitempty"`
	// PostID is set when the command produced a post.
	PostID string `json:"post_id,omitempty"`
}

// CommandNotFound is the CommandError code for an unknown trigger.
const CommandNotFound = "command.not_found"

// CommandError is a failed command execution. SendMessage asks the caller
// to post the text literally instead.
type CommandError struct {
	Code        string `json:"code,omitempty"`
	Message     string `json:"message"`
	SendMessage bool   `json:"send_message,omitempty"`
}

// IsNotFound reports whether the command trigger was unknown.
func (e *CommandError) IsNotFound() bool {
	return e.Code == CommandNotFound
}

func (e *CommandError) Error() string {
	return e.Message
}

// HistoryKind selects an independent history cursor.
type HistoryKind string

const (
	HistoryPost    HistoryKind = "post"
	HistoryComment HistoryKind = "comment"
)

// HistoryItem is one submitted message.
type HistoryItem struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	CreateAt int64  `json:"create_at"`
}
