package wa

import (
	"context"

	"github.com/matheus3301/quill/internal/bus"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/status"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
)

// Identity resolves account JIDs against the device store.
type Identity interface {
	ResolveLID(ctx context.Context, jid types.JID) types.JID
	SelfJID() string
}

// EventHandler processes whatsmeow events, drives the state machine and
// publishes normalized domain values on the bus. The sync engine consumes
// them from there.
type EventHandler struct {
	bus      *bus.Bus
	machine  *status.Machine
	identity Identity
	logger   *zap.Logger
}

// NewEventHandler creates an event handler. identity may be nil, in which
// case LIDs are left unresolved.
func NewEventHandler(b *bus.Bus, machine *status.Machine, identity Identity, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		bus:      b,
		machine:  machine,
		identity: identity,
		logger:   logger,
	}
}

// Handle is the whatsmeow event handler function.
func (h *EventHandler) Handle(rawEvt any) {
	switch evt := rawEvt.(type) {
	case *events.Message:
		h.handleMessage(evt)
	case *events.Connected:
		h.logger.Info("WhatsApp connected")
		current := h.machine.Current()
		if current == status.AuthRequired || current == status.Reconnecting || current == status.Booting {
			_ = h.machine.Transition(status.Connecting)
		}
		_ = h.machine.Transition(status.Syncing)
		h.bus.Emit(bus.KindSyncConnected, nil)
	case *events.Disconnected:
		h.logger.Warn("WhatsApp disconnected")
		_ = h.machine.Transition(status.Reconnecting)
		h.bus.Emit(bus.KindSyncDisconnected, nil)
	case *events.HistorySync:
		h.handleHistorySync(evt)
	case *events.PushName:
		h.bus.Emit(bus.KindWAContact, &domain.User{
			ID:   h.resolve(evt.JID),
			Name: evt.NewPushName,
		})
	case *events.LoggedOut:
		h.logger.Warn("WhatsApp logged out", zap.String("reason", evt.Reason.String()))
		_ = h.machine.Transition(status.AuthRequired)
		h.bus.Emit(bus.KindSessionLogout, evt.Reason.String())
	}
}

func (h *EventHandler) handleMessage(evt *events.Message) {
	if h.machine.Current() == status.Syncing {
		_ = h.machine.Transition(status.Ready)
	}

	info := evt.Info
	info.Chat = h.resolveJID(info.Chat)
	info.Sender = h.resolveJID(info.Sender)
	chatID := info.Chat.String()

	if r := evt.Message.GetReactionMessage(); r != nil {
		h.bus.Emit(bus.KindWAReaction, bus.ReactionChange{
			ChannelID: chatID,
			PostID:    r.GetKey().GetID(),
			UserID:    info.Sender.String(),
			Emoji:     r.GetText(),
			At:        info.Timestamp.UnixMilli(),
		})
		return
	}
	if pm := evt.Message.GetProtocolMessage(); pm != nil {
		if pm.GetType() == waE2E.ProtocolMessage_MESSAGE_EDIT {
			h.bus.Emit(bus.KindWAEdit, bus.PostEdit{
				ChannelID: chatID,
				PostID:    pm.GetKey().GetID(),
				Message:   extractTextBody(pm.GetEditedMessage()),
				EditAt:    info.Timestamp.UnixMilli(),
			})
		}
		return
	}

	if info.PushName != "" && !info.IsFromMe {
		h.bus.Emit(bus.KindWAContact, &domain.User{ID: info.Sender.String(), Name: info.PushName})
	}
	h.bus.Emit(bus.KindWAPost, ParseLiveMessage(info, evt.Message))
}

func (h *EventHandler) handleHistorySync(evt *events.HistorySync) {
	data := evt.Data
	if data == nil {
		return
	}

	self := ""
	if h.identity != nil {
		self = h.identity.SelfJID()
	}

	var batch bus.HistoryBatch
	seen := make(map[string]bool)
	for _, conv := range data.GetConversations() {
		chatID := h.resolveJID(parseJID(conv.GetID())).String()
		batch.Channels = append(batch.Channels, &domain.Channel{
			ID:          chatID,
			Name:        chatID,
			DisplayName: conv.GetName(),
			Type:        ChannelTypeOf(chatID),
		})

		for _, hm := range conv.GetMessages() {
			wm := hm.GetMessage()
			if wm == nil || wm.GetMessage() == nil || wm.GetMessage().GetReactionMessage() != nil {
				continue
			}
			p := ParseHistoryMessage(chatID, self, wm)
			p.UserID = h.resolveJID(parseJID(p.UserID)).String()
			batch.Posts = append(batch.Posts, p)

			if name := wm.GetPushName(); name != "" && !wm.GetKey().GetFromMe() && !seen[p.UserID] {
				seen[p.UserID] = true
				batch.Users = append(batch.Users, &domain.User{ID: p.UserID, Name: name})
			}
		}
	}

	if len(batch.Channels) > 0 {
		h.logger.Debug("history sync batch",
			zap.Int("channels", len(batch.Channels)), zap.Int("posts", len(batch.Posts)))
		h.bus.Emit(bus.KindWAHistoryBatch, batch)
	}
}

func (h *EventHandler) resolve(jid types.JID) string {
	return h.resolveJID(jid).String()
}

// resolveJID strips the device suffix and maps LIDs to phone numbers when
// the identity knows them.
func (h *EventHandler) resolveJID(jid types.JID) types.JID {
	jid = jid.ToNonAD()
	if h.identity == nil || jid.IsEmpty() {
		return jid
	}
	return h.identity.ResolveLID(context.Background(), jid).ToNonAD()
}

// parseJID parses raw, falling back to an empty JID.
func parseJID(raw string) types.JID {
	jid, err := types.ParseJID(raw)
	if err != nil {
		return types.EmptyJID
	}
	return jid
}
