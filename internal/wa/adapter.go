package wa

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/session"
	"github.com/matheus3301/quill/internal/store"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	wastore "go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotPaired is returned by operations that need a linked device.
var ErrNotPaired = errors.New("device is not paired")

// Adapter wraps the whatsmeow client. It is the outbox transport and the
// source of inbound events.
type Adapter struct {
	client    *whatsmeow.Client
	container *sqlstore.Container
	logger    *zap.Logger
	session   string
}

// NewAdapter opens the device store of the given session.
func NewAdapter(ctx context.Context, sessionName string, logger *zap.Logger) (*Adapter, error) {
	// Device name shown in the phone's linked devices list.
	wastore.SetOSInfo("quill", [3]uint32{0, 1, 0})

	container, err := sqlstore.New(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=on", session.DeviceDBPath(sessionName)),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create device store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get device store: %w", err)
	}

	return &Adapter{
		client:    whatsmeow.NewClient(deviceStore, nil),
		container: container,
		logger:    logger,
		session:   sessionName,
	}, nil
}

// IsLoggedIn reports whether the device holds credentials.
func (a *Adapter) IsLoggedIn() bool {
	return a.client != nil && a.client.Store.ID != nil
}

// Connect opens the connection.
func (a *Adapter) Connect() error {
	a.logger.Info("connecting to WhatsApp")
	return a.client.Connect()
}

// Disconnect closes the connection.
func (a *Adapter) Disconnect() {
	a.logger.Info("disconnecting from WhatsApp")
	a.client.Disconnect()
}

// Logout unlinks the device and removes its credentials.
func (a *Adapter) Logout(ctx context.Context) error {
	return a.client.Logout(ctx)
}

// RegisterEventHandler adds a handler for whatsmeow events.
func (a *Adapter) RegisterEventHandler(handler whatsmeow.EventHandler) {
	a.client.AddEventHandler(handler)
}

// SelfJID returns the account JID, or "" before pairing.
func (a *Adapter) SelfJID() string {
	if !a.IsLoggedIn() {
		return ""
	}
	return a.client.Store.ID.ToNonAD().String()
}

// PhoneNumber returns the paired phone number, or "".
func (a *Adapter) PhoneNumber() string {
	if !a.IsLoggedIn() {
		return ""
	}
	return a.client.Store.ID.User
}

// SendText sends text to a chat, quoting quote when it is not nil, and
// returns the server message ID.
func (a *Adapter) SendText(ctx context.Context, channelID, text string, quote *domain.Post) (string, error) {
	msg := &waE2E.Message{Conversation: proto.String(text)}
	if quote != nil {
		msg = &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text:        proto.String(text),
			ContextInfo: quoteContext(quote),
		}}
	}
	return a.send(ctx, channelID, msg)
}

// SendMedia uploads a stored file and sends it. Images go out as image
// messages, everything else as documents.
func (a *Adapter) SendMedia(ctx context.Context, channelID string, f *store.StoredFile, caption string) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Name, err)
	}

	if strings.HasPrefix(f.MimeType, "image/") {
		up, err := a.client.Upload(ctx, data, whatsmeow.MediaImage)
		if err != nil {
			return "", fmt.Errorf("upload image: %w", err)
		}
		return a.send(ctx, channelID, &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
			Caption:       optional(caption),
			Mimetype:      proto.String(f.MimeType),
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
			Width:         dimension(f.Width),
			Height:        dimension(f.Height),
		}})
	}

	up, err := a.client.Upload(ctx, data, whatsmeow.MediaDocument)
	if err != nil {
		return "", fmt.Errorf("upload document: %w", err)
	}
	mime := f.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	return a.send(ctx, channelID, &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{
		Caption:       optional(caption),
		FileName:      proto.String(f.Name),
		Title:         proto.String(f.Name),
		Mimetype:      proto.String(mime),
		URL:           proto.String(up.URL),
		DirectPath:    proto.String(up.DirectPath),
		MediaKey:      up.MediaKey,
		FileEncSHA256: up.FileEncSHA256,
		FileSHA256:    up.FileSHA256,
		FileLength:    proto.Uint64(up.FileLength),
	}})
}

// EditText replaces the text of a sent message.
func (a *Adapter) EditText(ctx context.Context, channelID, serverID, text string) error {
	chat, err := types.ParseJID(channelID)
	if err != nil {
		return fmt.Errorf("parse JID: %w", err)
	}
	edit := a.client.BuildEdit(chat, serverID, &waE2E.Message{Conversation: proto.String(text)})
	_, err = a.client.SendMessage(ctx, chat, edit)
	if err != nil {
		return fmt.Errorf("send edit: %w", err)
	}
	return nil
}

// SendReaction sets the own reaction on target. An empty emoji removes it.
func (a *Adapter) SendReaction(ctx context.Context, channelID string, target *domain.Post, emoji string) error {
	chat, err := types.ParseJID(channelID)
	if err != nil {
		return fmt.Errorf("parse JID: %w", err)
	}
	sender, err := types.ParseJID(target.UserID)
	if err != nil {
		return fmt.Errorf("parse sender JID: %w", err)
	}
	_, err = a.client.SendMessage(ctx, chat, a.client.BuildReaction(chat, sender, target.ID, emoji))
	if err != nil {
		return fmt.Errorf("send reaction: %w", err)
	}
	return nil
}

func (a *Adapter) send(ctx context.Context, channelID string, msg *waE2E.Message) (string, error) {
	if !a.IsLoggedIn() {
		return "", ErrNotPaired
	}
	to, err := types.ParseJID(channelID)
	if err != nil {
		return "", fmt.Errorf("parse JID: %w", err)
	}
	resp, err := a.client.SendMessage(ctx, to, msg)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return resp.ID, nil
}

func quoteContext(quote *domain.Post) *waE2E.ContextInfo {
	return &waE2E.ContextInfo{
		StanzaID:      proto.String(quote.ID),
		Participant:   proto.String(quote.UserID),
		QuotedMessage: &waE2E.Message{Conversation: proto.String(quote.Message)},
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return proto.String(s)
}

func dimension(n int) *uint32 {
	if n <= 0 {
		return nil
	}
	return proto.Uint32(uint32(n))
}

// Contacts returns the users known to the device store.
func (a *Adapter) Contacts(ctx context.Context) []*domain.User {
	if !a.IsLoggedIn() {
		return nil
	}
	all, err := a.client.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		a.logger.Warn("failed to get contacts from device store", zap.Error(err))
		return nil
	}
	users := make([]*domain.User, 0, len(all))
	for jid, info := range all {
		name := info.FullName
		if name == "" {
			name = info.PushName
		}
		users = append(users, &domain.User{
			ID:       jid.ToNonAD().String(),
			Username: jid.User,
			Name:     name,
		})
	}
	return users
}

// LIDMappings returns the LID to phone number mappings of known contacts.
func (a *Adapter) LIDMappings(ctx context.Context) []store.LIDMapping {
	if !a.IsLoggedIn() || a.client.Store.LIDs == nil {
		return nil
	}
	all, err := a.client.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		return nil
	}

	var mappings []store.LIDMapping
	for jid := range all {
		pn := jid.ToNonAD()
		if pn.Server != types.DefaultUserServer {
			continue
		}
		lid, err := a.client.Store.LIDs.GetLIDForPN(ctx, pn)
		if err == nil && !lid.IsEmpty() {
			mappings = append(mappings, store.LIDMapping{LID: lid.User, PN: pn.User})
		}
	}
	return mappings
}

// ResolveLID maps a LID JID to its phone number JID. Other JIDs, and LIDs
// the device store cannot map, are returned unchanged.
func (a *Adapter) ResolveLID(ctx context.Context, jid types.JID) types.JID {
	if jid.Server != types.HiddenUserServer {
		return jid
	}
	if a.client == nil || a.client.Store == nil || a.client.Store.LIDs == nil {
		return jid
	}
	pn, err := a.client.Store.LIDs.GetPNForLID(ctx, jid)
	if err != nil || pn.IsEmpty() {
		return jid
	}
	return pn
}
