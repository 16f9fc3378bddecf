package model

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/rpc"
	"github.com/matheus3301/quill/internal/tui/client"
	"github.com/matheus3301/quill/internal/tui/ui"
)

// ErrNoUser is returned by calls that need the signed-in user before pairing.
var ErrNoUser = errors.New("not signed in")

const (
	channelPageSize = 200
	postPageSize    = 100
	searchLimit     = 50
)

// ViewModel caches state fetched from the daemon and signals UI refreshes.
type ViewModel struct {
	mu sync.RWMutex

	client        *client.Client
	SessionStatus *rpc.StatusResponse
	SyncStatus    *rpc.SyncStatusResponse
	Me            *domain.User
	Channels      []*domain.Channel
	Posts         []*domain.Post
	ActiveChannel *domain.Channel
	drafts        map[string]bool
	users         map[string]*domain.User
	Flash         *ui.FlashModel

	refreshCh chan struct{}
}

// NewViewModel creates a new view model connected to the daemon client.
func NewViewModel(c *client.Client) *ViewModel {
	return &ViewModel{
		client:    c,
		drafts:    make(map[string]bool),
		users:     make(map[string]*domain.User),
		Flash:     ui.NewFlashModel(),
		refreshCh: make(chan struct{}, 1),
	}
}

// RefreshCh returns the channel that signals UI refresh.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

func (vm *ViewModel) signalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// LoadSessionStatus fetches current session status.
func (vm *ViewModel) LoadSessionStatus(ctx context.Context) error {
	resp, err := vm.client.Session.GetStatus(ctx)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.SessionStatus = resp
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// LoadSyncStatus fetches current sync status.
func (vm *ViewModel) LoadSyncStatus(ctx context.Context) error {
	resp, err := vm.client.Sync.Status(ctx)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.SyncStatus = resp
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// LoadMe fetches the signed-in user. It fails until the device is paired.
func (vm *ViewModel) LoadMe(ctx context.Context) (*domain.User, error) {
	me, err := vm.client.Users.Me(ctx)
	if err != nil {
		return nil, err
	}
	vm.mu.Lock()
	vm.Me = me
	vm.users[me.ID] = me
	vm.mu.Unlock()
	vm.signalRefresh()
	return me, nil
}

// LoadChannels fetches the channel list and which channels hold a draft.
func (vm *ViewModel) LoadChannels(ctx context.Context) error {
	channels, err := vm.client.Channels.List(ctx, channelPageSize, 0)
	if err != nil {
		return err
	}
	drafts, err := vm.client.Drafts.ListDrafts(ctx)
	if err != nil {
		return err
	}
	marked := make(map[string]bool, len(drafts))
	for _, d := range drafts {
		if !d.IsEmpty() {
			marked[d.ChannelID] = true
		}
	}
	vm.mu.Lock()
	vm.Channels = channels
	vm.drafts = marked
	for _, ch := range channels {
		if vm.ActiveChannel != nil && ch.ID == vm.ActiveChannel.ID {
			vm.ActiveChannel = ch
		}
	}
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// LoadPosts fetches the newest posts of channelID and makes it active.
func (vm *ViewModel) LoadPosts(ctx context.Context, channelID string) error {
	posts, err := vm.client.Posts.ListPosts(ctx, channelID, 0, postPageSize)
	if err != nil {
		return err
	}
	vm.resolveUsers(ctx, posts)

	vm.mu.Lock()
	vm.Posts = posts
	if vm.ActiveChannel == nil || vm.ActiveChannel.ID != channelID {
		vm.ActiveChannel = vm.channelLocked(channelID)
	}
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// OpenChannel fetches channelID with its stored draft and makes it active.
func (vm *ViewModel) OpenChannel(ctx context.Context, channelID string) (*domain.Channel, *domain.Draft, error) {
	ch, err := vm.client.Channels.Get(ctx, channelID)
	if err != nil {
		return nil, nil, err
	}
	draft, err := vm.client.Drafts.GetDraft(ctx, domain.DraftKey(channelID))
	if err != nil {
		return nil, nil, err
	}
	vm.mu.Lock()
	vm.ActiveChannel = ch
	vm.mu.Unlock()
	if err := vm.LoadPosts(ctx, channelID); err != nil {
		return nil, nil, err
	}
	return ch, draft, nil
}

// resolveUsers fetches unknown authors. Lookup failures leave the raw ID.
func (vm *ViewModel) resolveUsers(ctx context.Context, posts []*domain.Post) {
	for _, p := range posts {
		vm.mu.RLock()
		_, known := vm.users[p.UserID]
		vm.mu.RUnlock()
		if known || p.UserID == "" {
			continue
		}
		u, err := vm.client.Users.Get(ctx, p.UserID)
		if err != nil {
			u = nil
		}
		vm.mu.Lock()
		vm.users[p.UserID] = u
		vm.mu.Unlock()
	}
}

// SearchPosts performs a search query.
func (vm *ViewModel) SearchPosts(ctx context.Context, query string) ([]rpc.SearchHit, error) {
	return vm.client.Posts.Search(ctx, &rpc.SearchRequest{Query: query, Limit: searchLimit})
}

// SetStatus changes the signed-in user's status.
func (vm *ViewModel) SetStatus(ctx context.Context, status string) error {
	vm.mu.RLock()
	me := vm.Me
	vm.mu.RUnlock()
	if me == nil {
		return ErrNoUser
	}
	u, err := vm.client.Users.SetStatus(ctx, me.ID, status)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.Me = u
	vm.users[u.ID] = u
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// GetChannels returns a snapshot of the current channel list.
func (vm *ViewModel) GetChannels() []*domain.Channel {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Channels
}

// GetPosts returns a snapshot of the active channel's posts.
func (vm *ViewModel) GetPosts() []*domain.Post {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Posts
}

// GetSessionStatus returns a snapshot of session status.
func (vm *ViewModel) GetSessionStatus() *rpc.StatusResponse {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.SessionStatus
}

// GetSyncStatus returns a snapshot of sync status.
func (vm *ViewModel) GetSyncStatus() *rpc.SyncStatusResponse {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.SyncStatus
}

// GetMe returns the signed-in user, or nil before pairing.
func (vm *ViewModel) GetMe() *domain.User {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Me
}

// GetActiveChannel returns the open channel, or nil.
func (vm *ViewModel) GetActiveChannel() *domain.Channel {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.ActiveChannel
}

// HasDraft reports whether channelID had a stored draft at the last load.
func (vm *ViewModel) HasDraft(channelID string) bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.drafts[channelID]
}

// DisplayName returns the best known name for userID.
func (vm *ViewModel) DisplayName(userID string) string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.Me != nil && userID == vm.Me.ID {
		return "You"
	}
	if u := vm.users[userID]; u != nil {
		if u.Name != "" {
			return u.Name
		}
		if u.Username != "" {
			return u.Username
		}
	}
	return userID
}

// FindChannel returns the first channel whose ID, name or title matches
// query, case-insensitively.
func (vm *ViewModel) FindChannel(query string) *domain.Channel {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	q := strings.ToLower(strings.TrimPrefix(query, "#"))
	for _, ch := range vm.Channels {
		if ch.ID == query || strings.EqualFold(ch.Name, q) || strings.EqualFold(ch.Title(), q) {
			return ch
		}
	}
	for _, ch := range vm.Channels {
		if strings.Contains(strings.ToLower(ch.Title()), q) {
			return ch
		}
	}
	return nil
}

func (vm *ViewModel) channelLocked(id string) *domain.Channel {
	for _, ch := range vm.Channels {
		if ch.ID == id {
			return ch
		}
	}
	return nil
}

// DraftCount returns how many channels held a draft at the last load.
func (vm *ViewModel) DraftCount() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return len(vm.drafts)
}

// ChannelName returns the title of channel id, or id when unknown.
func (vm *ViewModel) ChannelName(id string) string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if ch := vm.channelLocked(id); ch != nil {
		return ch.Title()
	}
	return id
}

// UpdateChannel replaces the cached copy of ch.
func (vm *ViewModel) UpdateChannel(ch *domain.Channel) {
	vm.mu.Lock()
	for i, c := range vm.Channels {
		if c.ID == ch.ID {
			vm.Channels[i] = ch
		}
	}
	if vm.ActiveChannel != nil && vm.ActiveChannel.ID == ch.ID {
		vm.ActiveChannel = ch
	}
	vm.mu.Unlock()
	vm.signalRefresh()
}
