package wa

import (
	"time"

	"github.com/matheus3301/quill/internal/domain"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/proto/waWeb"
	"go.mau.fi/whatsmeow/types"
)

// Post types for non-text content. Text posts have an empty type.
const (
	PostTypeImage    = "image"
	PostTypeVideo    = "video"
	PostTypeAudio    = "audio"
	PostTypeDocument = "document"
	PostTypeSticker  = "sticker"
	PostTypeContact  = "contact"
	PostTypeLocation = "location"
	PostTypeUnknown  = "unknown"
)

// NormalizeJID strips the device suffix from a JID string. Unparseable
// input is returned unchanged.
func NormalizeJID(raw string) string {
	if raw == "" {
		return ""
	}
	jid, err := types.ParseJID(raw)
	if err != nil {
		return raw
	}
	return jid.ToNonAD().String()
}

// ChannelTypeFor maps a chat JID to a channel type. Groups behave as
// private channels with a header and purpose, one-to-one chats as DMs.
func ChannelTypeFor(jid types.JID) domain.ChannelType {
	switch jid.Server {
	case types.GroupServer:
		return domain.ChannelPrivate
	case types.NewsletterServer, types.BroadcastServer:
		return domain.ChannelOpen
	}
	return domain.ChannelDirect
}

// ChannelTypeOf is ChannelTypeFor on a JID string.
func ChannelTypeOf(raw string) domain.ChannelType {
	jid, err := types.ParseJID(raw)
	if err != nil {
		return domain.ChannelDirect
	}
	return ChannelTypeFor(jid)
}

// ParseLiveMessage normalizes a live message event into a post.
func ParseLiveMessage(info types.MessageInfo, msg *waE2E.Message) *domain.Post {
	return newPost(
		info.ID,
		info.Chat.ToNonAD().String(),
		info.Sender.ToNonAD().String(),
		info.IsFromMe,
		info.Timestamp,
		msg,
	)
}

// ParseHistoryMessage normalizes a history sync message. self fills in the
// author of own messages, which history keys leave blank.
func ParseHistoryMessage(chatJID, self string, wm *waWeb.WebMessageInfo) *domain.Post {
	key := wm.GetKey()
	sender := NormalizeJID(key.GetParticipant())
	switch {
	case key.GetFromMe():
		sender = self
	case sender == "":
		sender = chatJID
	}
	at := time.Unix(int64(wm.GetMessageTimestamp()), 0)
	return newPost(key.GetID(), chatJID, sender, key.GetFromMe(), at, wm.GetMessage())
}

func newPost(id, chatJID, sender string, fromMe bool, at time.Time, msg *waE2E.Message) *domain.Post {
	status := domain.PostStatusReceived
	if fromMe {
		status = domain.PostStatusSent
	}
	p := &domain.Post{
		ID:        id,
		ChannelID: chatJID,
		UserID:    sender,
		Message:   extractTextBody(msg),
		RootID:    quotedID(msg),
		Status:    status,
		CreateAt:  at.UnixMilli(),
	}
	if t := detectMessageType(msg); t != "text" {
		p.Type = t
	}
	return p
}

func extractTextBody(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if c := msg.GetConversation(); c != "" {
		return c
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	switch {
	case msg.GetImageMessage() != nil:
		return msg.GetImageMessage().GetCaption()
	case msg.GetVideoMessage() != nil:
		return msg.GetVideoMessage().GetCaption()
	case msg.GetDocumentMessage() != nil:
		return msg.GetDocumentMessage().GetCaption()
	}
	return ""
}

// quotedID returns the ID of the message msg replies to.
func quotedID(msg *waE2E.Message) string {
	var ci *waE2E.ContextInfo
	switch {
	case msg.GetExtendedTextMessage() != nil:
		ci = msg.GetExtendedTextMessage().GetContextInfo()
	case msg.GetImageMessage() != nil:
		ci = msg.GetImageMessage().GetContextInfo()
	case msg.GetVideoMessage() != nil:
		ci = msg.GetVideoMessage().GetContextInfo()
	case msg.GetDocumentMessage() != nil:
		ci = msg.GetDocumentMessage().GetContextInfo()
	}
	return ci.GetStanzaID()
}

func detectMessageType(msg *waE2E.Message) string {
	if msg == nil {
		return PostTypeUnknown
	}
	switch {
	case msg.GetConversation() != "" || msg.GetExtendedTextMessage() != nil:
		return "text"
	case msg.GetImageMessage() != nil:
		return PostTypeImage
	case msg.GetVideoMessage() != nil:
		return PostTypeVideo
	case msg.GetAudioMessage() != nil:
		return PostTypeAudio
	case msg.GetDocumentMessage() != nil:
		return PostTypeDocument
	case msg.GetStickerMessage() != nil:
		return PostTypeSticker
	case msg.GetContactMessage() != nil:
		return PostTypeContact
	case msg.GetLocationMessage() != nil:
		return PostTypeLocation
	default:
		return PostTypeUnknown
	}
}
