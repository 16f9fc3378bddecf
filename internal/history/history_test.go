package history

import (
	"errors"
	"testing"
	"time"

	"github.com/matheus3301/quill/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

type memStore struct {
	items   []domain.HistoryItem
	trimmed int
	failAdd bool
}

func (m *memStore) AppendHistory(text string, createAt int64) (int64, error) {
	if m.failAdd {
		return 0, errors.New("disk full")
	}
	id := int64(len(m.items) + 1)
	m.items = append(m.items, domain.HistoryItem{ID: id, Text: text, CreateAt: createAt})
	return id, nil
}

func (m *memStore) ListHistory(limit int) ([]domain.HistoryItem, error) {
	if len(m.items) > limit {
		return m.items[len(m.items)-limit:], nil
	}
	return m.items, nil
}

func (m *memStore) TrimHistory(keep int) error {
	m.trimmed = keep
	return nil
}

func TestNavigation(t *testing.T) {
	l, err := New(nil, 10, nil)
	require.NoError(t, err)
	for _, s := range []string{"one", "two", "three"} {
		require.NoError(t, l.Add(s))
	}

	assert.Equal(t, "", l.Current(domain.HistoryPost), "fresh cursor is past the newest")

	l.MoveBack(domain.HistoryPost)
	assert.Equal(t, "three", l.Current(domain.HistoryPost))
	l.MoveBack(domain.HistoryPost)
	l.MoveBack(domain.HistoryPost)
	l.MoveBack(domain.HistoryPost)
	assert.Equal(t, "one", l.Current(domain.HistoryPost), "cursor stops at the oldest")

	l.MoveForward(domain.HistoryPost)
	assert.Equal(t, "two", l.Current(domain.HistoryPost))
	l.MoveForward(domain.HistoryPost)
	l.MoveForward(domain.HistoryPost)
	l.MoveForward(domain.HistoryPost)
	assert.Equal(t, "", l.Current(domain.HistoryPost))
}

func TestKindsHaveIndependentCursors(t *testing.T) {
	l, _ := New(nil, 10, nil)
	require.NoError(t, l.Add("a"))
	require.NoError(t, l.Add("b"))

	l.MoveBack(domain.HistoryPost)
	l.MoveBack(domain.HistoryPost)
	l.MoveBack(domain.HistoryComment)

	assert.Equal(t, "a", l.Current(domain.HistoryPost))
	assert.Equal(t, "b", l.Current(domain.HistoryComment))
}

func TestAddResetsCursors(t *testing.T) {
	l, _ := New(nil, 10, nil)
	require.NoError(t, l.Add("a"))
	l.MoveBack(domain.HistoryPost)
	require.NoError(t, l.Add("b"))

	assert.Equal(t, "", l.Current(domain.HistoryPost))
	l.MoveBack(domain.HistoryPost)
	assert.Equal(t, "b", l.Current(domain.HistoryPost))
}

func TestCapacityAndPersistence(t *testing.T) {
	store := &memStore{}
	l, err := New(store, 2, nil)
	require.NoError(t, err)

	require.NoError(t, l.Add(""))
	for _, s := range []string{"one", "two", "three"} {
		require.NoError(t, l.Add(s))
	}
	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "two", items[0].Text)
	assert.Equal(t, int64(3), items[1].ID)
	assert.Equal(t, 2, store.trimmed)
	assert.Len(t, store.items, 3, "empty text is never stored")

	reloaded, err := New(store, 2, nil)
	require.NoError(t, err)
	reloaded.MoveBack(domain.HistoryPost)
	assert.Equal(t, "three", reloaded.Current(domain.HistoryPost))
}

func TestAddStoreError(t *testing.T) {
	l, _ := New(&memStore{failAdd: true}, 5, nil)
	assert.Error(t, l.Add("x"))
	assert.Empty(t, l.Items())
}

func TestAddStampsClockTime(t *testing.T) {
	clk := testingclock.NewFakePassiveClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := &memStore{}
	l, err := New(store, 5, clk)
	require.NoError(t, err)

	require.NoError(t, l.Add("first"))
	clk.SetTime(clk.Now().Add(time.Minute))
	require.NoError(t, l.Add("second"))

	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(1772366400000), items[0].CreateAt)
	assert.Equal(t, int64(1772366460000), items[1].CreateAt)
	assert.Equal(t, items[1].CreateAt, store.items[1].CreateAt, "the store gets the same stamp")
}
