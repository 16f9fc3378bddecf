// Package history keeps the log of submitted messages and the per-kind
// cursors used to recall them.
package history

import (
	"fmt"
	"sync"

	"k8s.io/utils/clock"

	"github.com/matheus3301/quill/internal/domain"
)

// Store persists history entries. It is optional.
type Store interface {
	AppendHistory(text string, createAt int64) (int64, error)
	ListHistory(limit int) ([]domain.HistoryItem, error)
	TrimHistory(keep int) error
}

// Log is a bounded submission history. Each kind has its own cursor; a
// cursor equal to len(items) points past the newest entry.
type Log struct {
	mu       sync.Mutex
	items    []domain.HistoryItem
	cursors  map[domain.HistoryKind]int
	capacity int
	store    Store
	clock    clock.PassiveClock
}

// New loads up to capacity entries from store. store may be nil; clk may
// be nil for the real clock.
func New(store Store, capacity int, clk clock.PassiveClock) (*Log, error) {
	if capacity <= 0 {
		capacity = 1
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	l := &Log{
		cursors:  make(map[domain.HistoryKind]int),
		capacity: capacity,
		store:    store,
		clock:    clk,
	}
	if store != nil {
		items, err := store.ListHistory(capacity)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		l.items = items
	}
	return l, nil
}

// Add appends text and resets every cursor past the newest entry. Empty
// text is ignored.
func (l *Log) Add(text string) error {
	if text == "" {
		return nil
	}
	item := domain.HistoryItem{Text: text, CreateAt: l.clock.Now().UnixMilli()}
	if l.store != nil {
		id, err := l.store.AppendHistory(text, item.CreateAt)
		if err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		item.ID = id
	}

	l.mu.Lock()
	l.items = append(l.items, item)
	trimmed := false
	if over := len(l.items) - l.capacity; over > 0 {
		l.items = append([]domain.HistoryItem(nil), l.items[over:]...)
		trimmed = true
	}
	for k := range l.cursors {
		delete(l.cursors, k)
	}
	l.mu.Unlock()

	if trimmed && l.store != nil {
		if err := l.store.TrimHistory(l.capacity); err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
	}
	return nil
}

// MoveBack moves the kind's cursor one entry older, stopping at the oldest.
func (l *Log) MoveBack(kind domain.HistoryKind) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c := l.cursor(kind); c > 0 {
		l.cursors[kind] = c - 1
	}
}

// MoveForward moves the kind's cursor one entry newer, stopping past the newest.
func (l *Log) MoveForward(kind domain.HistoryKind) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c := l.cursor(kind); c < len(l.items) {
		l.cursors[kind] = c + 1
	}
}

// Current returns the entry under the kind's cursor, or "" past the newest.
func (l *Log) Current(kind domain.HistoryKind) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.cursor(kind)
	if c < 0 || c >= len(l.items) {
		return ""
	}
	return l.items[c].Text
}

// Items returns a copy of the entries, oldest first.
func (l *Log) Items() []domain.HistoryItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.HistoryItem(nil), l.items...)
}

func (l *Log) cursor(kind domain.HistoryKind) int {
	if c, ok := l.cursors[kind]; ok {
		return c
	}
	return len(l.items)
}
