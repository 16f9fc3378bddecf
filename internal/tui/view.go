package tui

import (
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/matheus3301/quill/internal/composer"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/rpc"
	"github.com/matheus3301/quill/internal/tui/views"
)

// engineView presents composer engine callbacks. The engine may call from
// any goroutine, including the UI goroutine itself, so every update is
// queued from a fresh goroutine.
type engineView struct {
	a *App
}

var _ composer.View = (*engineView)(nil)

func (v *engineView) queue(fn func()) {
	go v.a.app.QueueUpdateDraw(fn)
}

func (v *engineView) Refresh() {
	v.queue(v.a.renderComposer)
}

// SetMessage shows the engine's current text rather than text, so updates
// that land out of order still converge.
func (v *engineView) SetMessage(channelID, _ string) {
	v.queue(func() {
		snap := v.a.engine.Snapshot()
		if snap.ChannelID == channelID {
			v.a.thread.Composer().ShowText(channelID, snap.Message)
		}
	})
}

func (v *engineView) ScrollToBottom(channelID string) {
	go v.a.reloadPosts(channelID)
}

func (v *engineView) ConfirmNotifyAll(p composer.NotifyAllPrompt) {
	v.queue(func() {
		v.a.confirm(views.NotifyAllText(p), "Send", "Cancel", func() {
			if _, err := v.a.engine.SubmitConfirmed(v.a.ctx); err != nil {
				v.a.logger.Debug("confirmed submit failed", zap.Error(err))
			}
		})
	})
}

func (v *engineView) PromptResetStatus(newStatus string) {
	v.queue(func() {
		v.a.confirm(views.ResetStatusText(newStatus), "Yes", "No", func() {
			if err := v.a.engine.ResetStatus(v.a.ctx, newStatus); err != nil {
				v.a.vm.Flash.Errf("Status change failed", err)
				return
			}
			_, _ = v.a.vm.LoadMe(v.a.ctx)
		})
	})
}

func (v *engineView) OpenChannelSettings(s composer.Setting, ch *domain.Channel) {
	v.queue(func() { v.a.editSetting(s, ch) })
}

func (v *engineView) EditPost(p *domain.Post) {
	v.queue(func() { v.a.editPost(p) })
}

func (v *engineView) ReplyTo(p *domain.Post) {
	v.queue(func() {
		v.a.vm.Flash.Info("Replying to " + v.a.vm.DisplayName(p.UserID))
		v.a.renderComposer()
	})
}

func (v *engineView) ShowEphemeral(channelID, text string) {
	v.queue(func() {
		if ch := v.a.thread.Channel(); ch != nil && ch.ID == channelID {
			v.a.thread.ShowEphemeral(text)
		}
	})
}

// openDialog shows p over the current page. Call on the UI goroutine.
func (a *App) openDialog(p tview.Primitive, width, height int) {
	if a.dialogFocus == nil {
		a.dialogFocus = a.app.GetFocus()
	}
	a.pages.AddPage(pageDialog, views.Centered(p, width, height), true, true)
	a.app.SetFocus(p)
}

func (a *App) closeDialog() {
	a.pages.RemovePage(pageDialog)
	if a.dialogFocus != nil {
		a.app.SetFocus(a.dialogFocus)
		a.dialogFocus = nil
	}
}

// confirm asks a yes/no question; yes runs off the UI goroutine.
func (a *App) confirm(text, yes, no string, onYes func()) {
	modal := views.NewConfirm(a.theme, text, yes, no, func(ok bool) {
		a.closeDialog()
		if ok {
			go onYes()
		}
	})
	a.openDialog(modal, 60, 9)
}

// editSetting opens the header or purpose editor for ch.
func (a *App) editSetting(s composer.Setting, ch *domain.Channel) {
	if ch == nil {
		a.vm.Flash.Warn("No channel open")
		return
	}
	if s == composer.SettingPurpose && ch.IsDirectOrGroup() {
		a.vm.Flash.Warn("Direct messages have no purpose")
		return
	}
	me := a.activeUser()
	if me == nil {
		a.vm.Flash.Warn("Not signed in")
		return
	}
	value, title := ch.Header, "Edit header"
	if s == composer.SettingPurpose {
		value, title = ch.Purpose, "Edit purpose"
	}
	form := views.NewTextDialog(a.theme, title+": "+ch.Title(), "Text", value, func(text string) {
		a.closeDialog()
		go a.saveSetting(s, ch.ID, me.ID, text)
	}, a.closeDialog)
	a.openDialog(form, 70, 11)
}

func (a *App) saveSetting(s composer.Setting, channelID, userID, text string) {
	req := &rpc.UpdateChannelRequest{ChannelID: channelID, UserID: userID, Text: text}
	update := a.client.Channels.SetHeader
	if s == composer.SettingPurpose {
		update = a.client.Channels.SetPurpose
	}
	ch, err := update(a.ctx, req)
	if err != nil {
		a.vm.Flash.Errf("Update "+s.String()+" failed", err)
		return
	}
	a.vm.UpdateChannel(ch)
	a.engine.UpdateChannel(ch)
	a.vm.Flash.Info("Channel " + s.String() + " updated")
}

// editPost opens an editor for one of the user's own posts.
func (a *App) editPost(p *domain.Post) {
	me := a.activeUser()
	if me == nil {
		return
	}
	form := views.NewTextDialog(a.theme, "Edit post", "Message", p.Message, func(text string) {
		a.closeDialog()
		if text == "" || text == p.Message {
			return
		}
		go func() {
			if _, err := a.client.Posts.EditPost(a.ctx, p.ID, me.ID, text); err != nil {
				a.vm.Flash.Errf("Edit failed", err)
				return
			}
			a.reloadPosts(p.ChannelID)
		}()
	}, a.closeDialog)
	a.openDialog(form, 70, 11)
}
