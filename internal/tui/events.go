package tui

import (
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/quill/internal/bus"
	"github.com/matheus3301/quill/internal/rpc"
)

const (
	watchRetryMin = 500 * time.Millisecond
	watchRetryMax = 10 * time.Second
)

// watchPrefixes are the daemon events the TUI reacts to.
var watchPrefixes = []string{"post.", "reaction.", "channel.", "user.", "draft.", "session.", "sync."}

// watchModel redraws model-backed views whenever the view model changes.
func (a *App) watchModel() {
	for {
		select {
		case <-a.vm.RefreshCh():
			a.app.QueueUpdateDraw(a.renderModel)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) watchFlash() {
	for {
		select {
		case msg := <-a.vm.Flash.Watch():
			a.app.QueueUpdateDraw(func() { a.flashBar.Update(&msg) })
		case <-a.ctx.Done():
			return
		}
	}
}

// refreshLoop polls status and expires the flash bar.
func (a *App) refreshLoop() {
	ticker := time.NewTicker(refreshPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = a.vm.LoadSessionStatus(a.ctx)
			_ = a.vm.LoadSyncStatus(a.ctx)
			a.app.QueueUpdateDraw(func() {
				a.flashBar.Update(a.vm.Flash.GetMessage())
				a.statusBar.Tick()
			})
		case <-a.ctx.Done():
			return
		}
	}
}

// watchEvents follows the daemon's event stream, reconnecting with
// backoff until the app exits.
func (a *App) watchEvents() {
	delay := watchRetryMin
	for {
		err := a.followEvents()
		if a.ctx.Err() != nil {
			return
		}
		if err != nil {
			a.logger.Warn("event stream ended", zap.Error(err), zap.Duration("retry_in", delay))
		}
		select {
		case <-time.After(delay):
		case <-a.ctx.Done():
			return
		}
		delay = min(delay*2, watchRetryMax)
	}
}

func (a *App) followEvents() error {
	stream, err := a.client.Posts.Watch(a.ctx, watchPrefixes...)
	if err != nil {
		return err
	}
	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		a.handleEvent(ev)
	}
}

func (a *App) handleEvent(ev *rpc.Event) {
	switch {
	case strings.HasPrefix(ev.Kind, "post."), ev.Kind == bus.KindReaction:
		a.reloadPosts(ev.ChannelID)
		if ev.Kind == bus.KindPostCreated || ev.Kind == bus.KindPostUpserted {
			_ = a.vm.LoadChannels(a.ctx)
		}
	case ev.Kind == bus.KindChannelUpdate:
		if err := a.vm.LoadChannels(a.ctx); err != nil {
			return
		}
		if ch := a.vm.GetActiveChannel(); ch != nil && ch.ID == ev.ChannelID {
			a.engine.UpdateChannel(ch)
		}
	case ev.Kind == bus.KindDraftSaved, ev.Kind == bus.KindDraftCleared:
		_ = a.vm.LoadChannels(a.ctx)
	case ev.Kind == bus.KindUserStatus:
		if me, err := a.vm.LoadMe(a.ctx); err == nil {
			a.engine.SetUser(me)
		}
	case ev.Kind == bus.KindSessionAuthed:
		_ = a.vm.LoadSessionStatus(a.ctx)
		a.signIn()
	case ev.Kind == bus.KindSessionLogout:
		_ = a.vm.LoadSessionStatus(a.ctx)
		a.app.QueueUpdateDraw(a.startAuth)
	case strings.HasPrefix(ev.Kind, "session."):
		_ = a.vm.LoadSessionStatus(a.ctx)
	case strings.HasPrefix(ev.Kind, "sync."):
		_ = a.vm.LoadSyncStatus(a.ctx)
	}
}

// startAuth shows the pairing page and streams codes into it. Call on the
// UI goroutine.
func (a *App) startAuth() {
	if a.pages.Current() != pageAuth {
		a.pages.Reset(pageAuth)
		a.focusPage()
	}
	if a.authRunning {
		return
	}
	a.authRunning = true
	a.authView.ShowMessage("Requesting a pairing code...")
	go a.runAuthFlow()
}

// runAuthFlow calls StartAuth on the daemon and streams QR codes to the
// auth view.
func (a *App) runAuthFlow() {
	done := func(show func()) {
		a.app.QueueUpdateDraw(func() {
			a.authRunning = false
			show()
		})
	}

	stream, err := a.client.Session.StartAuth(a.ctx)
	if err != nil {
		done(func() { a.authView.ShowFailure("Pairing unavailable: " + err.Error()) })
		return
	}
	for {
		evt, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			done(func() {})
			return
		}
		if err != nil {
			if a.ctx.Err() != nil {
				return
			}
			done(func() { a.authView.ShowFailure("Pairing stream error: " + err.Error()) })
			return
		}

		switch evt.Step {
		case "qr_code":
			code := evt.QRCode
			a.app.QueueUpdateDraw(func() { a.authView.ShowQR(code) })
		case "authenticated":
			done(func() { a.authView.ShowMessage("Paired. Loading channels...") })
			go a.signIn()
			return
		case "auth_failed", "timeout":
			msg := evt.Message
			if msg == "" {
				msg = "Pairing failed"
			}
			done(func() { a.authView.ShowFailure(msg) })
			return
		}
	}
}
