package tui

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/matheus3301/quill/internal/composer"
	"github.com/matheus3301/quill/internal/config"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/emoji"
	"github.com/matheus3301/quill/internal/hooks"
	"github.com/matheus3301/quill/internal/status"
	"github.com/matheus3301/quill/internal/tui/client"
	"github.com/matheus3301/quill/internal/tui/keys"
	"github.com/matheus3301/quill/internal/tui/model"
	"github.com/matheus3301/quill/internal/tui/ui"
	"github.com/matheus3301/quill/internal/tui/views"
	"github.com/matheus3301/quill/internal/upload"
)

// Page names.
const (
	pageChannels = "channels"
	pageThread   = "thread"
	pageSearch   = "search"
	pageInfo     = "info"
	pageHelp     = "help"
	pageAuth     = "auth"
	pageDialog   = "dialog"
)

const (
	headerHeight  = 6
	promptHeight  = 3
	refreshPeriod = 5 * time.Second
	closeTimeout  = 3 * time.Second
)

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	pages    *ui.Pages
	root     *tview.Flex
	vm       *model.ViewModel
	client   *client.Client
	cfg      *config.Config
	logger   *zap.Logger
	session  string
	started  time.Time
	registry *keys.Registry

	engine   *composer.Composer
	uploads  *upload.Manager
	tutorial *model.Tutorial
	emoji    *emoji.Set

	sessionInfo *ui.SessionInfo
	menu        *ui.Menu
	logo        *ui.Logo
	crumbs      *ui.Crumbs
	prompt      *ui.Prompt
	flashBar    *ui.FlashBar
	statusBar   *views.StatusBar

	channelList *views.ChannelList
	thread      *views.MessageThread
	searchV     *views.SearchView
	info        *views.ChannelInfo
	help        *views.HelpView
	authView    *views.AuthView
	components  map[string]ui.Component

	// dialogFocus is what had focus before a dialog opened, nil when none
	// is open.
	dialogFocus tview.Primitive
	authRunning bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(c *client.Client, sessionName string, cfg *config.Config, logger *zap.Logger) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:         tview.NewApplication(),
		theme:       theme,
		pages:       ui.NewPages(),
		vm:          model.NewViewModel(c),
		client:      c,
		cfg:         cfg,
		logger:      logger.Named("tui"),
		session:     sessionName,
		started:     time.Now(),
		registry:    keys.NewRegistry(),
		sessionInfo: ui.NewSessionInfo(theme),
		menu:        ui.NewMenu(theme),
		logo:        ui.NewLogo(theme),
		crumbs:      ui.NewCrumbs(theme),
		prompt:      ui.NewPrompt(theme),
		flashBar:    ui.NewFlashBar(theme),
		statusBar:   views.NewStatusBar(),
		channelList: views.NewChannelList(theme),
		thread:      views.NewMessageThread(theme),
		searchV:     views.NewSearchView(theme),
		info:        views.NewChannelInfo(theme),
		help:        views.NewHelpView(theme),
		authView:    views.NewAuthView(theme),
		ctx:         ctx,
		cancel:      cancel,
	}
	a.components = map[string]ui.Component{
		pageChannels: a.channelList,
		pageThread:   a.thread,
		pageSearch:   a.searchV,
		pageInfo:     a.info,
		pageHelp:     a.help,
		pageAuth:     a.authView,
	}

	a.setupEngine()
	a.statusBar.SetSession(sessionName)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

// setupEngine builds the composer engine and its collaborators.
func (a *App) setupEngine() {
	reg := hooks.NewRegistry(a.logger)
	if a.cfg.Hooks.StripHTML {
		reg.OnMessage("strip-html", hooks.StripHTML())
	}
	if len(a.cfg.Hooks.CommandAliases) > 0 {
		reg.OnSlashCommand("aliases", hooks.Aliases(a.cfg.Hooks.CommandAliases))
	}

	a.emoji = emoji.NewSet()
	a.tutorial = model.NewTutorial(a.client.Preferences, "")
	a.engine = composer.New(composer.ConfigFrom(a.cfg.Composer), composer.Deps{
		Drafts:   a.client.Drafts,
		Commands: a.client.Commands,
		Posts:    a.client.Posts,
		History:  a.client.History,
		Hooks:    reg,
		Channels: a.client.Channels,
		Emoji:    a.emoji,
		Tutorial: a.tutorial,
		View:     &engineView{a: a},
	}, nil, a.logger)
	a.uploads = upload.NewManager(a.client.Files, a.engine, a.cfg.Uploads.MaxConcurrent, a.cfg.Uploads.MaxFileSize, a.logger)
	a.engine.SetUploads(a.uploads)

	cv := a.thread.Composer()
	cv.Bind(a.engine)
	cv.SetOnAction(a.performAction)
	cv.SetOnEscape(func() { a.app.SetFocus(a.thread.Posts()) })
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("quit", &keys.Action{
		Key: tcell.KeyRune, Rune: 'q',
		Description: "q:quit", Visible: true,
		Handler: a.back,
	})
	a.registry.AddGlobal("help", &keys.Action{
		Key: tcell.KeyRune, Rune: '?',
		Description: "?:help", Visible: true,
		Handler: func() { a.push(pageHelp) },
	})
	a.registry.AddGlobal("command", &keys.Action{
		Key: tcell.KeyRune, Rune: ':',
		Description: "::command", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptCommand) },
	})

	a.registry.AddView(pageChannels, "filter", &keys.Action{
		Key: tcell.KeyRune, Rune: '/',
		Description: "/:filter", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptFilter) },
	})
	a.registry.AddView(pageChannels, "search", &keys.Action{
		Key: tcell.KeyRune, Rune: 's',
		Description: "s:search", Visible: true,
		Handler: a.showSearch,
	})
	a.registry.AddView(pageChannels, "clear", &keys.Action{
		Key: tcell.KeyRune, Rune: '0',
		Handler: a.channelList.ClearFilter,
	})
	for n := 1; n <= 9; n++ {
		a.registry.AddView(pageChannels, "jump-"+strconv.Itoa(n), &keys.Action{
			Key: tcell.KeyRune, Rune: rune('0' + n),
			Handler: func() {
				if ch := a.channelList.ChannelByIndex(n); ch != nil {
					a.openChannel(ch.ID)
				}
			},
		})
	}

	a.registry.AddView(pageThread, "compose", &keys.Action{
		Key: tcell.KeyRune, Rune: 'i',
		Description: "i:compose", Visible: true,
		Handler: func() { a.app.SetFocus(a.thread.Composer()) },
	})
	a.registry.AddView(pageThread, "details", &keys.Action{
		Key: tcell.KeyRune, Rune: 'd',
		Description: "d:details", Visible: true,
		Handler: a.showInfo,
	})
	a.registry.AddView(pageThread, "drop", &keys.Action{
		Key: tcell.KeyRune, Rune: 'x',
		Description: "x:drop file", Visible: true,
		Handler: func() { a.removeAttachment(1) },
	})

	a.registry.AddView(pageInfo, "header", &keys.Action{
		Key: tcell.KeyRune, Rune: 'h',
		Description: "h:header", Visible: true,
		Handler: func() { a.editSetting(composer.SettingHeader, a.info.Channel()) },
	})
	a.registry.AddView(pageInfo, "purpose", &keys.Action{
		Key: tcell.KeyRune, Rune: 'p',
		Description: "p:purpose", Visible: true,
		Handler: func() { a.editSetting(composer.SettingPurpose, a.info.Channel()) },
	})

	a.registry.AddView(pageAuth, "retry", &keys.Action{
		Key: tcell.KeyRune, Rune: 'r',
		Description: "r:retry", Visible: true,
		Handler: a.startAuth,
	})
}

func (a *App) setupCallbacks() {
	a.channelList.SetSelectedFunc(func(row, _ int) {
		if ch := a.channelList.ChannelByIndex(row); ch != nil {
			a.openChannel(ch.ID)
		}
	})

	a.searchV.SetChannelNames(a.vm.ChannelName)
	a.searchV.SetOnQuery(a.runSearch)
	a.searchV.Results().SetSelectedFunc(func(int, int) {
		if hit := a.searchV.SelectedHit(); hit != nil {
			a.openChannel(hit.Post.ChannelID)
		}
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		switch mode {
		case ui.PromptCommand:
			a.runCommand(ParseCommand(text))
		case ui.PromptFilter:
			a.channelList.SetFilter(text)
		}
	})
	a.prompt.SetOnCancel(a.hidePrompt)

	a.pages.SetOnChange(func(stack []string) {
		names := make([]string, 0, len(stack))
		for _, p := range stack {
			if c, ok := a.components[p]; ok {
				names = append(names, c.Name())
			}
		}
		a.crumbs.Update(names)
		if c, ok := a.components[a.pages.Current()]; ok {
			a.menu.Update(c.Hints())
		}
	})
}

func (a *App) setupLayout() {
	for name, c := range a.components {
		a.pages.AddPage(name, c, true, false)
	}

	header := tview.NewFlex().
		AddItem(a.sessionInfo, 40, 0, false).
		AddItem(a.menu, 0, 1, false).
		AddItem(a.logo, 22, 0, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, headerHeight, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.capture)
	a.pages.Reset(pageChannels)
	a.app.SetFocus(a.channelList)
}

func (a *App) capture(event *tcell.EventKey) *tcell.EventKey {
	if a.dialogFocus != nil {
		return event
	}
	switch a.app.GetFocus().(type) {
	case *tview.InputField, *tview.TextArea, *tview.Form:
		return event
	}

	current := a.pages.Current()
	if event.Key() == tcell.KeyEscape {
		a.back()
		return nil
	}
	if current == pageSearch && event.Key() == tcell.KeyTab {
		a.app.SetFocus(a.searchV.Input())
		return nil
	}
	if a.registry.HandleEvent(current, event) {
		return nil
	}
	return event
}

// push shows page on top of the stack and focuses it.
func (a *App) push(page string) {
	a.pages.Push(page)
	a.focusPage()
}

// back pops the current page, or quits at the root.
func (a *App) back() {
	if a.pages.Pop() == "" {
		a.app.Stop()
		return
	}
	a.focusPage()
}

func (a *App) focusPage() {
	switch a.pages.Current() {
	case pageThread:
		a.app.SetFocus(a.thread.Composer())
	case pageSearch:
		a.app.SetFocus(a.searchV.Input())
	default:
		if c, ok := a.components[a.pages.Current()]; ok {
			a.app.SetFocus(c)
		}
	}
}

func (a *App) showPrompt(mode ui.PromptMode) {
	a.prompt.Activate(mode)
	a.root.ResizeItem(a.prompt, promptHeight, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusPage()
}

func (a *App) showSearch() {
	a.push(pageSearch)
}

func (a *App) showInfo() {
	ch := a.vm.GetActiveChannel()
	if ch == nil {
		a.vm.Flash.Warn("No channel open")
		return
	}
	a.info.Update(ch)
	a.push(pageInfo)
}

func (a *App) runSearch(query string) {
	if query == "" {
		return
	}
	go func() {
		hits, err := a.vm.SearchPosts(a.ctx, query)
		if err != nil {
			a.vm.Flash.Errf("Search failed", err)
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.searchV.Update(hits)
			if len(hits) > 0 {
				a.app.SetFocus(a.searchV.Results())
			}
		})
	}()
}

// openChannel loads a channel and its draft, hands it to the composer and
// shows the thread.
func (a *App) openChannel(id string) {
	go func() {
		ch, draft, err := a.vm.OpenChannel(a.ctx, id)
		if err != nil {
			a.vm.Flash.Errf("Open failed", err)
			return
		}
		snap := a.engine.SwitchChannel(a.ctx, ch, draft)
		a.app.QueueUpdateDraw(func() {
			a.thread.SetChannel(ch)
			a.thread.Update(a.vm.GetPosts(), a.vm.DisplayName)
			a.thread.Composer().Load(ch.ID, snap.Message)
			a.renderComposer()
			if a.pages.Current() != pageThread {
				a.pages.Reset(pageChannels)
				a.push(pageThread)
			} else {
				a.focusPage()
			}
		})
	}()
}

// reloadPosts refreshes the open thread when it shows channelID.
func (a *App) reloadPosts(channelID string) {
	active := a.vm.GetActiveChannel()
	if active == nil || active.ID != channelID {
		return
	}
	if err := a.vm.LoadPosts(a.ctx, channelID); err != nil {
		a.logger.Warn("failed to reload posts", zap.String("channel", channelID), zap.Error(err))
		return
	}
	a.app.QueueUpdateDraw(func() {
		a.thread.Update(a.vm.GetPosts(), a.vm.DisplayName)
	})
}

// performAction runs a composer action off the UI goroutine.
func (a *App) performAction(action composer.Action) {
	sel := a.thread.Composer().Selection()
	go func() {
		_, err := a.engine.Perform(a.ctx, action, sel)
		var se *composer.ServerError
		switch {
		case err == nil, errors.As(err, &se):
		case errors.Is(err, composer.ErrNotReady):
			a.vm.Flash.Warn("Open a channel first")
		default:
			a.vm.Flash.Err(err)
		}
	}()
}

func (a *App) renderComposer() {
	snap := a.engine.Snapshot()
	a.thread.Render(snap)
	a.statusBar.SetComposer(snap.State.String(), len(snap.Uploads))
}

// renderModel redraws everything backed by the view model.
func (a *App) renderModel() {
	a.channelList.Update(a.vm.GetChannels(), a.vm.HasDraft)

	ss := a.vm.GetSessionStatus()
	syncStatus := a.vm.GetSyncStatus()
	data := &ui.SessionData{
		Session:  a.session,
		Channels: len(a.vm.GetChannels()),
		Drafts:   a.vm.DraftCount(),
		Uptime:   time.Since(a.started),
	}
	if ss != nil {
		data.Phone = ss.PhoneNumber
		data.State = ss.State
		data.Uptime = time.Duration(ss.UptimeMs) * time.Millisecond
	}
	if me := a.vm.GetMe(); me != nil {
		data.Presence = me.Status
	}
	a.sessionInfo.Update(data)

	state, syncing := data.State, false
	if syncStatus != nil {
		syncing = syncStatus.Syncing
	}
	a.statusBar.SetState(state, syncing)

	if ch := a.vm.GetActiveChannel(); ch != nil && a.thread.Channel() != nil && a.thread.Channel().ID == ch.ID {
		a.thread.SetChannel(ch)
		if a.info.Channel() != nil && a.info.Channel().ID == ch.ID {
			a.info.Update(ch)
		}
	}
}

// signIn loads everything that needs a paired account and shows the
// channel list.
func (a *App) signIn() {
	me, err := a.vm.LoadMe(a.ctx)
	if err != nil {
		a.vm.Flash.Errf("Load profile failed", err)
		return
	}
	a.engine.SetUser(me)
	a.tutorial.SetUser(me.ID)

	if names, err := a.client.Preferences.CustomEmoji(a.ctx); err != nil {
		a.logger.Warn("failed to load custom emoji", zap.Error(err))
	} else {
		a.emoji.AddCustom(names...)
	}
	if err := a.vm.LoadChannels(a.ctx); err != nil {
		a.vm.Flash.Errf("Load channels failed", err)
	}
	_ = a.vm.LoadSyncStatus(a.ctx)

	a.app.QueueUpdateDraw(func() {
		if a.pages.Current() == pageAuth {
			a.pages.Reset(pageChannels)
			a.focusPage()
		}
	})
}

// Run starts the TUI and blocks until it exits. Pending drafts are
// flushed and uploads drained before it returns.
func (a *App) Run() error {
	go a.start()
	err := a.app.Run()
	a.shutdown()
	return err
}

func (a *App) start() {
	if err := a.vm.LoadSessionStatus(a.ctx); err != nil {
		a.vm.Flash.Errf("Daemon unreachable", err)
	}
	go a.watchModel()
	go a.watchFlash()
	go a.watchEvents()
	go a.refreshLoop()

	if ss := a.vm.GetSessionStatus(); ss != nil && ss.State == string(status.AuthRequired) {
		a.app.QueueUpdateDraw(a.startAuth)
		return
	}
	a.signIn()
}

func (a *App) shutdown() {
	a.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	a.engine.Close(ctx)
	a.uploads.Wait()
}

// Stop exits the TUI.
func (a *App) Stop() {
	a.app.Stop()
}

func (a *App) activeUser() *domain.User {
	return a.vm.GetMe()
}
