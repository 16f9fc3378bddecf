package composer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/emoji"
	"github.com/matheus3301/quill/internal/mention"
)

// Outcome is what a submission attempt did.
type Outcome int

const (
	// Ignored: nothing to send, an upload is running, or a submission is
	// already in flight.
	Ignored Outcome = iota
	// Flashed: the inline error was highlighted instead of sending.
	Flashed
	NeedsConfirmation
	ResetStatusPrompted
	SettingsOpened
	// Consumed: a slash hook took over the command.
	Consumed
	CommandRun
	Reacted
	Sent
	Failed
)

func (o Outcome) String() string {
	return [...]string{
		"ignored", "flashed", "needs_confirmation", "reset_status_prompted",
		"settings_opened", "consumed", "command_run", "reacted", "sent", "failed",
	}[o]
}

func (o Outcome) succeeded() bool {
	return o == Consumed || o == CommandRun || o == Reacted || o == Sent
}

var statusCommands = []string{
	domain.StatusOnline, domain.StatusAway, domain.StatusDND, domain.StatusOffline,
}

// attempt is a submission bound to the channel and text at the moment it
// started. Channel switches during the attempt do not affect it. message
// is the trimmed text that gets sent; raw is the draft as typed, which
// errors are bound to and failures restore.
type attempt struct {
	channel     domain.Channel
	user        domain.User
	message     string
	raw         string
	ignoreSlash bool
	files       []domain.FileInfo
	rootID      string
}

// Submit sends the active channel's draft. Interactive intercepts may
// stop it first: a channel-wide mention in a large channel, a status
// command while out of office, or a bare /header or /purpose. A failure
// is returned as *ServerError and kept in view state.
func (c *Composer) Submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	a, outcome, err := c.prepareLocked()
	c.mu.Unlock()
	if a == nil {
		return outcome, err
	}
	if outcome, ok := c.intercept(ctx, a); ok {
		return outcome, nil
	}
	return c.submit(ctx)
}

// SubmitConfirmed sends the draft after the user accepted the
// channel-wide notification prompt.
func (c *Composer) SubmitConfirmed(ctx context.Context) (Outcome, error) {
	return c.submit(ctx)
}

// ResetStatus applies the status chosen in the out-of-office prompt.
func (c *Composer) ResetStatus(ctx context.Context, status string) error {
	c.mu.Lock()
	ch, user := c.channel, c.user
	c.mu.Unlock()
	if ch == nil || user == nil {
		return ErrNotReady
	}
	resp, err := c.deps.Commands.ExecuteCommand(ctx, "/"+status, domain.CommandArgs{ChannelID: ch.ID, UserID: user.ID})
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.user != nil && c.user.ID == user.ID {
		c.user.Status = status
	}
	c.mu.Unlock()
	if resp != nil && resp.Text != "" {
		c.deps.View.ShowEphemeral(ch.ID, resp.Text)
	}
	return nil
}

// prepareLocked captures the attempt, or returns a nil attempt with the
// outcome when there is nothing to do.
func (c *Composer) prepareLocked() (*attempt, Outcome, error) {
	if c.channel == nil || c.user == nil {
		return nil, Ignored, ErrNotReady
	}
	d := c.draftLocked(c.channel.ID)
	if d.Uploading() || c.submitting {
		return nil, Ignored, nil
	}

	a := &attempt{
		channel: *c.channel,
		user:    *c.user,
		message: strings.TrimSpace(d.Message),
		raw:     d.Message,
		files:   slices.Clone(d.FileInfos),
		rootID:  c.replyTo,
	}
	if se := c.serverError; se != nil && se.InvalidSlash && se.SubmittedMessage == a.raw {
		a.ignoreSlash = true
	}
	if a.message == "" && len(a.files) == 0 {
		return nil, Ignored, nil
	}
	return a, Ignored, nil
}

func (c *Composer) intercept(ctx context.Context, a *attempt) (Outcome, bool) {
	if p, ok := c.notifyAllPrompt(ctx, a); ok {
		c.deps.View.ConfirmNotifyAll(p)
		return NeedsConfirmation, true
	}

	trimmed := strings.TrimRightFunc(a.message, unicode.IsSpace)
	if a.user.IsOutOfOffice() && strings.HasPrefix(trimmed, "/") && slices.Contains(statusCommands, trimmed[1:]) {
		c.clearMessage(a.channel.ID)
		c.deps.View.PromptResetStatus(trimmed[1:])
		return ResetStatusPrompted, true
	}

	switch {
	case trimmed == "/header":
		c.clearMessage(a.channel.ID)
		c.deps.View.OpenChannelSettings(SettingHeader, &a.channel)
		return SettingsOpened, true
	case trimmed == "/purpose" && !a.channel.IsDirectOrGroup():
		c.clearMessage(a.channel.ID)
		c.deps.View.OpenChannelSettings(SettingPurpose, &a.channel)
		return SettingsOpened, true
	}
	return Ignored, false
}

// notifyAllPrompt builds the confirmation for a message that would notify
// more members than the threshold allows without asking.
func (c *Composer) notifyAllPrompt(ctx context.Context, a *attempt) (NotifyAllPrompt, bool) {
	if !c.cfg.ConfirmNotifyAll {
		return NotifyAllPrompt{}, false
	}
	var mentions []string
	if a.user.CanMentionChannel {
		mentions = mention.Special(a.message)
	}
	if len(mentions) == 0 && a.user.CanMentionGroups {
		mentions = mention.Groups(a.message, c.cfg.AllowedGroupMentions)
	}
	if len(mentions) == 0 || a.channel.MemberCount <= c.cfg.NotifyAllThreshold {
		return NotifyAllPrompt{}, false
	}

	p := NotifyAllPrompt{Mentions: mentions, MemberCount: a.channel.MemberCount - 1}
	if c.cfg.TimezonesEnabled {
		zones, err := c.deps.Channels.ChannelTimezones(ctx, a.channel.ID)
		if err != nil {
			c.logger.Warn("failed to load channel timezones", zap.String("channel", a.channel.ID), zap.Error(err))
		} else {
			p.TimezoneCount = len(zones)
		}
	}
	return p, true
}

// submit runs the send path proper. State is re-read because the user
// may have kept editing while an intercept was resolved.
func (c *Composer) submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	a, outcome, err := c.prepareLocked()
	if a == nil {
		c.mu.Unlock()
		return outcome, err
	}
	if c.postError != "" {
		c.highlight = true
		c.highlightSeq++
		seq := c.highlightSeq
		c.mu.Unlock()
		c.clock.AfterFunc(c.cfg.InlineErrorFlash, func() { go c.unhighlight(seq) })
		c.deps.View.Refresh()
		return Flashed, nil
	}
	c.submitting = true
	c.serverError = nil
	c.mu.Unlock()
	c.deps.View.Refresh()

	if err := c.deps.History.AddHistory(ctx, a.message); err != nil {
		c.logger.Warn("failed to record history", zap.Error(err))
	}

	outcome, err = c.dispatch(ctx, a)
	c.finish(ctx, a, outcome, err)
	return outcome, err
}

func (c *Composer) dispatch(ctx context.Context, a *attempt) (Outcome, error) {
	if strings.HasPrefix(a.message, "/") && !a.ignoreSlash {
		return c.runCommand(ctx, a)
	}
	if r, ok := emoji.ParseReaction(a.message); ok && len(a.files) == 0 && c.deps.Emoji.Has(r.Name) {
		target, err := c.deps.Posts.LatestRepliablePost(ctx, a.channel.ID)
		if err != nil {
			c.logger.Warn("failed to find reaction target", zap.String("channel", a.channel.ID), zap.Error(err))
		}
		if target != nil {
			return c.react(ctx, a, r, target)
		}
	}
	return c.sendMessage(ctx, a)
}

func (c *Composer) runCommand(ctx context.Context, a *attempt) (Outcome, error) {
	c.replaceMessage(a.channel.ID, "")

	args := &domain.CommandArgs{ChannelID: a.channel.ID, UserID: a.user.ID, RootID: a.rootID}
	msg, hookArgs, err := c.deps.Hooks.SlashCommandWillBePosted(ctx, a.message, args)
	if err != nil {
		return Failed, &ServerError{Err: err, SubmittedMessage: a.raw}
	}
	if msg == "" && hookArgs == nil {
		return Consumed, nil
	}
	if hookArgs == nil {
		hookArgs = args
	}

	resp, err := c.deps.Commands.ExecuteCommand(ctx, msg, *hookArgs)
	if err != nil {
		var cmdErr *domain.CommandError
		if errors.As(err, &cmdErr) && cmdErr.SendMessage {
			return c.sendMessage(ctx, a)
		}
		return Failed, &ServerError{
			Err:              err,
			SubmittedMessage: a.raw,
			InvalidSlash:     cmdErr != nil && cmdErr.IsNotFound(),
		}
	}
	if resp != nil && resp.Text != "" {
		c.deps.View.ShowEphemeral(a.channel.ID, resp.Text)
	}
	return CommandRun, nil
}

func (c *Composer) react(ctx context.Context, a *attempt, r emoji.Reaction, target *domain.Post) (Outcome, error) {
	reaction := domain.Reaction{
		PostID:    target.ID,
		UserID:    a.user.ID,
		EmojiName: r.Name,
		CreateAt:  c.clock.Now().UnixMilli(),
	}
	var err error
	if r.Action == emoji.Add {
		err = c.deps.Posts.AddReaction(ctx, reaction)
	} else {
		err = c.deps.Posts.RemoveReaction(ctx, reaction)
	}
	if err != nil {
		return Failed, &ServerError{Err: err, SubmittedMessage: a.raw}
	}
	return Reacted, nil
}

func (c *Composer) sendMessage(ctx context.Context, a *attempt) (Outcome, error) {
	now := c.clock.Now()
	p := &domain.Post{
		PendingPostID: fmt.Sprintf("%s:%d", a.user.ID, now.UnixMilli()),
		ChannelID:     a.channel.ID,
		UserID:        a.user.ID,
		RootID:        a.rootID,
		Message:       a.message,
		CreateAt:      now.UnixMilli(),
	}
	for _, f := range a.files {
		p.FileIDs = append(p.FileIDs, f.ID)
	}
	if !a.user.CanMentionChannel && mention.HasSpecial(p.Message) {
		p.SetProp(domain.PropMentionHighlightDisabled, true)
	}
	if !a.user.CanMentionGroups && len(mention.Groups(p.Message, c.cfg.AllowedGroupMentions)) > 0 {
		p.SetProp(domain.PropDisableGroupHighlight, true)
	}

	hooked, err := c.deps.Hooks.MessageWillBePosted(ctx, p)
	if err != nil {
		return Failed, &ServerError{Err: err, SubmittedMessage: a.raw}
	}
	if hooked != nil {
		p = hooked
	}
	if _, err := c.deps.Posts.CreatePost(ctx, p); err != nil {
		return Failed, &ServerError{Err: err, SubmittedMessage: a.raw}
	}
	c.deps.View.ScrollToBottom(a.channel.ID)
	return Sent, nil
}

func (c *Composer) finish(ctx context.Context, a *attempt, outcome Outcome, err error) {
	c.mu.Lock()
	c.submitting = false
	active := c.channel != nil && c.channel.ID == a.channel.ID
	var restore bool
	if outcome.succeeded() {
		if active {
			c.serverError = nil
		}
		if c.replyTo == a.rootID {
			c.replyTo = ""
		}
	} else {
		var se *ServerError
		if errors.As(err, &se) && active {
			c.serverError = se
		}
		// Text typed while the attempt was in flight wins over the
		// submitted text. The command path empties the box up front.
		if cur := c.draftLocked(a.channel.ID).Message; cur == "" || cur == a.raw {
			restore = c.setMessageLocked(a.channel.ID, a.raw)
		}
	}
	c.mu.Unlock()

	if !outcome.succeeded() {
		c.logger.Info("submission failed", zap.String("channel", a.channel.ID), zap.Error(err))
		if restore {
			c.deps.View.SetMessage(a.channel.ID, a.raw)
		}
		c.deps.View.Refresh()
		return
	}

	c.clearDraft(ctx, a.channel.ID)
	if t := c.deps.Tutorial; t != nil && t.FirstPostPending(ctx) {
		if err := t.CompleteFirstPost(ctx); err != nil {
			c.logger.Warn("failed to complete first-post tip", zap.Error(err))
		}
	}
	c.deps.View.Refresh()
}

// clearMessage empties the message after an intercept and schedules the
// draft write.
func (c *Composer) clearMessage(channelID string) {
	c.replaceMessage(channelID, "")
	c.schedule(channelID)
}

func (c *Composer) unhighlight(seq uint64) {
	c.mu.Lock()
	if c.highlightSeq != seq {
		c.mu.Unlock()
		return
	}
	c.highlight = false
	c.mu.Unlock()
	c.deps.View.Refresh()
}
