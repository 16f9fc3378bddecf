package model

import (
	"context"
	"strconv"
	"sync"

	"github.com/matheus3301/quill/internal/store"
	"google.golang.org/grpc"
)

// Tutorial steps stored under the tutorial_step preference.
const (
	TutorialFirstPost = 1
	TutorialFinished  = 2
)

// Preferences reads and writes daemon-side preferences.
type Preferences interface {
	Get(ctx context.Context, category, name string, opts ...grpc.CallOption) (string, error)
	Set(ctx context.Context, category, name, value string, opts ...grpc.CallOption) error
}

// Tutorial tracks the first-post checkpoint for one user.
type Tutorial struct {
	prefs Preferences

	mu     sync.RWMutex
	userID string
}

// NewTutorial returns the tutorial tracker for userID, which may be set
// later with SetUser.
func NewTutorial(prefs Preferences, userID string) *Tutorial {
	return &Tutorial{prefs: prefs, userID: userID}
}

// SetUser changes the tracked user.
func (t *Tutorial) SetUser(userID string) {
	t.mu.Lock()
	t.userID = userID
	t.mu.Unlock()
}

func (t *Tutorial) user() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.userID
}

// FirstPostPending reports whether the user has not finished the tutorial.
// A missing preference counts as not started; a failed read or an unknown
// user as finished.
func (t *Tutorial) FirstPostPending(ctx context.Context) bool {
	userID := t.user()
	if userID == "" {
		return false
	}
	v, err := t.prefs.Get(ctx, store.CategoryTutorial, userID)
	if err != nil {
		return false
	}
	step, _ := strconv.Atoi(v)
	return step < TutorialFinished
}

// CompleteFirstPost marks the tutorial finished.
func (t *Tutorial) CompleteFirstPost(ctx context.Context) error {
	userID := t.user()
	if userID == "" {
		return ErrNoUser
	}
	return t.prefs.Set(ctx, store.CategoryTutorial, userID, strconv.Itoa(TutorialFinished))
}
