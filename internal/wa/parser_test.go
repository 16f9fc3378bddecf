package wa

import (
	"testing"
	"time"

	"github.com/matheus3301/quill/internal/domain"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

func TestExtractTextBody(t *testing.T) {
	tests := []struct {
		name string
		msg  *waE2E.Message
		want string
	}{
		{"nil message", nil, ""},
		{"conversation", &waE2E.Message{Conversation: proto.String("hello")}, "hello"},
		{"extended text", &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("extended")}}, "extended"},
		{"image without caption", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{}}, ""},
		{"image caption", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{Caption: proto.String("look")}}, "look"},
		{"document caption", &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{Caption: proto.String("notes.pdf")}}, "notes.pdf"},
		{"empty conversation", &waE2E.Message{Conversation: proto.String("")}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractTextBody(tt.msg)
			if got != tt.want {
				t.Errorf("extractTextBody() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectMessageType(t *testing.T) {
	tests := []struct {
		name string
		msg  *waE2E.Message
		want string
	}{
		{"nil", nil, PostTypeUnknown},
		{"text conversation", &waE2E.Message{Conversation: proto.String("hi")}, "text"},
		{"extended text", &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("hi")}}, "text"},
		{"image", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{}}, PostTypeImage},
		{"video", &waE2E.Message{VideoMessage: &waE2E.VideoMessage{}}, PostTypeVideo},
		{"audio", &waE2E.Message{AudioMessage: &waE2E.AudioMessage{}}, PostTypeAudio},
		{"document", &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{}}, PostTypeDocument},
		{"sticker", &waE2E.Message{StickerMessage: &waE2E.StickerMessage{}}, PostTypeSticker},
		{"contact", &waE2E.Message{ContactMessage: &waE2E.ContactMessage{}}, PostTypeContact},
		{"location", &waE2E.Message{LocationMessage: &waE2E.LocationMessage{}}, PostTypeLocation},
		{"empty message", &waE2E.Message{}, PostTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectMessageType(tt.msg)
			if got != tt.want {
				t.Errorf("detectMessageType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLiveMessage(t *testing.T) {
	ts := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	info := types.MessageInfo{
		PushName:  "Alice",
		Timestamp: ts,
		MessageSource: types.MessageSource{
			Chat:     types.JID{User: "chat", Server: types.DefaultUserServer},
			Sender:   types.JID{User: "sender", Server: types.DefaultUserServer, Device: 2},
			IsFromMe: true,
		},
		ID: "MSG123",
	}

	p := ParseLiveMessage(info, &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{
		Text:        proto.String("hello world"),
		ContextInfo: &waE2E.ContextInfo{StanzaID: proto.String("ROOT1")},
	}})

	want := &domain.Post{
		ID:        "MSG123",
		ChannelID: "chat@s.whatsapp.net",
		UserID:    "sender@s.whatsapp.net",
		RootID:    "ROOT1",
		Message:   "hello world",
		Status:    domain.PostStatusSent,
		CreateAt:  ts.UnixMilli(),
	}
	if p.ID != want.ID || p.ChannelID != want.ChannelID || p.UserID != want.UserID ||
		p.RootID != want.RootID || p.Message != want.Message || p.Status != want.Status ||
		p.CreateAt != want.CreateAt || p.Type != "" {
		t.Errorf("ParseLiveMessage() = %+v, want %+v", p, want)
	}
}

func TestParseLiveMessageImageType(t *testing.T) {
	info := types.MessageInfo{
		ID:        "IMG1",
		Timestamp: time.Now(),
		MessageSource: types.MessageSource{
			Chat:   types.JID{User: "c", Server: types.DefaultUserServer},
			Sender: types.JID{User: "s", Server: types.DefaultUserServer},
		},
	}

	p := ParseLiveMessage(info, &waE2E.Message{ImageMessage: &waE2E.ImageMessage{}})
	if p.Type != PostTypeImage {
		t.Errorf("Type = %q, want image", p.Type)
	}
	if p.Message != "" {
		t.Errorf("Message = %q, want empty for image", p.Message)
	}
	if p.Status != domain.PostStatusReceived {
		t.Errorf("Status = %q, want received", p.Status)
	}
}

// TestNormalizeJID verifies that device suffixes are stripped so history and
// live messages land in the same channel.
func TestNormalizeJID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"558592403672@s.whatsapp.net", "558592403672@s.whatsapp.net"},
		{"558592403672:0@s.whatsapp.net", "558592403672@s.whatsapp.net"},
		{"558592403672:5@s.whatsapp.net", "558592403672@s.whatsapp.net"},
		{"120363123456@g.us", "120363123456@g.us"},
		{"", ""},
		{"3917077286968@lid", "3917077286968@lid"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeJID(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeJID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestChannelTypeFor(t *testing.T) {
	tests := []struct {
		jid  types.JID
		want domain.ChannelType
	}{
		{types.NewJID("5511", types.DefaultUserServer), domain.ChannelDirect},
		{types.NewJID("3917", types.HiddenUserServer), domain.ChannelDirect},
		{types.NewJID("120363", types.GroupServer), domain.ChannelPrivate},
		{types.NewJID("news", types.NewsletterServer), domain.ChannelOpen},
	}
	for _, tt := range tests {
		if got := ChannelTypeFor(tt.jid); got != tt.want {
			t.Errorf("ChannelTypeFor(%s) = %s, want %s", tt.jid, got, tt.want)
		}
	}
}

func TestPairingEvent(t *testing.T) {
	tests := []struct {
		name     string
		item     whatsmeow.QRChannelItem
		want     PairingStep
		terminal bool
	}{
		{"code", whatsmeow.QRChannelItem{Event: whatsmeow.QRChannelEventCode, Code: "2@abc"}, PairingCode, false},
		{"success", whatsmeow.QRChannelSuccess, PairingSuccess, true},
		{"timeout", whatsmeow.QRChannelTimeout, PairingTimedOut, true},
		{"unexpected state", whatsmeow.QRChannelErrUnexpectedEvent, PairingFailed, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, ok := pairingEvent(tt.item)
			if !ok {
				t.Fatal("event skipped")
			}
			if evt.Step != tt.want {
				t.Errorf("Step = %s, want %s", evt.Step, tt.want)
			}
			if evt.Terminal() != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", evt.Terminal(), tt.terminal)
			}
		})
	}

	if _, ok := pairingEvent(whatsmeow.QRChannelItem{}); ok {
		t.Error("empty item should be skipped")
	}
}
