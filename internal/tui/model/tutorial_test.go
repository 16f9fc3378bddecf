package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

type memPrefs struct {
	values map[string]string
	err    error
}

func (m *memPrefs) Get(_ context.Context, category, name string, _ ...grpc.CallOption) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.values[category+"/"+name], nil
}

func (m *memPrefs) Set(_ context.Context, category, name, value string, _ ...grpc.CallOption) error {
	m.values[category+"/"+name] = value
	return nil
}

func TestTutorialFirstPost(t *testing.T) {
	ctx := context.Background()
	prefs := &memPrefs{values: map[string]string{}}
	tut := NewTutorial(prefs, "")

	assert.False(t, tut.FirstPostPending(ctx), "unknown user")
	assert.ErrorIs(t, tut.CompleteFirstPost(ctx), ErrNoUser)

	tut.SetUser("u1")
	assert.True(t, tut.FirstPostPending(ctx), "missing preference")

	prefs.values["tutorial_step/u1"] = "1"
	assert.True(t, tut.FirstPostPending(ctx))

	require.NoError(t, tut.CompleteFirstPost(ctx))
	assert.Equal(t, "2", prefs.values["tutorial_step/u1"])
	assert.False(t, tut.FirstPostPending(ctx))

	prefs.err = errors.New("daemon gone")
	tut.SetUser("u2")
	assert.False(t, tut.FirstPostPending(ctx), "read failure")
}
