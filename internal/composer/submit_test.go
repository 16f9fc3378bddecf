package composer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/quill/internal/domain"
)

var bigChannel = &domain.Channel{ID: "announcements", Name: "announcements", Type: domain.ChannelOpen, MemberCount: 10}

func TestSubmitCreatesPendingPost(t *testing.T) {
	f := newFixture(t)
	f.tutorial.pending = true
	f.typeMessage(t, "hello world")

	outcome, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, Sent, outcome)

	posts := f.posts.posts()
	require.Len(t, posts, 1)
	p := posts[0]
	assert.Equal(t, fmt.Sprintf("u1:%d", epoch.UnixMilli()), p.PendingPostID)
	assert.Equal(t, "town-square", p.ChannelID)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "hello world", p.Message)
	assert.Empty(t, p.Props)

	d, ok := f.drafts.last("town-square")
	require.True(t, ok)
	assert.Nil(t, d, "draft is deleted after a send")
	assert.Equal(t, "", f.c.Snapshot().Message)
	assert.Equal(t, "", f.view.messages["town-square"])
	assert.Equal(t, 1, f.view.scrolled)
	assert.False(t, f.tutorial.FirstPostPending(context.Background()))

	items := f.history.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "hello world", items[0].Text)

	f.clock.Step(time.Second)
	assert.Never(t, func() bool { return f.drafts.count("town-square") > 1 }, 50*time.Millisecond, 5*time.Millisecond,
		"the debounced write of the sent text must not fire")
}

func TestSubmitAttachesFiles(t *testing.T) {
	f := newFixture(t)
	f.c.OnUploadStart([]string{"c1"}, "town-square")
	f.c.OnUploadComplete([]domain.FileInfo{{ID: "f1", Name: "cat.png"}}, []string{"c1"}, "town-square")

	outcome, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, Sent, outcome, "attachments alone are enough to send")
	require.Len(t, f.posts.posts(), 1)
	assert.Equal(t, []string{"f1"}, f.posts.posts()[0].FileIDs)
	assert.Empty(t, f.c.Snapshot().FileInfos)
}

func TestSubmitNoops(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		f := newFixture(t)
		f.typeMessage(t, "   \n")
		outcome, err := f.submit(t)
		require.NoError(t, err)
		assert.Equal(t, Ignored, outcome)
		assert.Equal(t, "   \n", f.c.Snapshot().Message)
		assert.False(t, f.c.Snapshot().Submitting)
	})

	t.Run("uploading", func(t *testing.T) {
		f := newFixture(t)
		f.c.OnUploadStart([]string{"c1"}, "town-square")
		f.typeMessage(t, "wait for it")
		outcome, err := f.submit(t)
		require.NoError(t, err)
		assert.Equal(t, Ignored, outcome)
		assert.Empty(t, f.posts.posts())
		assert.Equal(t, "wait for it", f.c.Snapshot().Message)
	})
}

func TestSubmitWhileSubmittingIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.posts.gate = make(chan struct{})
	f.typeMessage(t, "once")

	done := make(chan Outcome, 1)
	go func() {
		outcome, _ := f.c.Submit(context.Background())
		done <- outcome
	}()
	require.Eventually(t, func() bool { return f.c.Snapshot().Submitting }, time.Second, 5*time.Millisecond)
	assert.Equal(t, Submitting, f.c.Snapshot().State)

	outcome, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, Ignored, outcome)

	close(f.posts.gate)
	assert.Equal(t, Sent, <-done)
	assert.Len(t, f.posts.posts(), 1)
}

func TestSubmitTooLongFlashesError(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.MaxMessageLength = 5 })
	f.typeMessage(t, "far too long")
	require.NotEmpty(t, f.c.Snapshot().PostError)

	outcome, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, Flashed, outcome)
	assert.True(t, f.c.Snapshot().Highlight)
	assert.Empty(t, f.posts.posts())
	assert.Empty(t, f.history.Items())

	f.clock.Step(time.Second)
	require.Eventually(t, func() bool { return !f.c.Snapshot().Highlight }, time.Second, 5*time.Millisecond)

	f.typeMessage(t, "short")
	assert.Empty(t, f.c.Snapshot().PostError)
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	f.posts.createErr = errors.New("daemon unavailable")
	f.typeMessage(t, "important")

	outcome, err := f.submit(t)
	assert.Equal(t, Failed, outcome)
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "important", se.SubmittedMessage)
	assert.False(t, se.InvalidSlash)

	snap := f.c.Snapshot()
	assert.Equal(t, "important", snap.Message)
	assert.Equal(t, se, snap.ServerError)
	assert.False(t, snap.Submitting)

	f.settle(t, "town-square", 1)
	d, _ := f.drafts.last("town-square")
	require.NotNil(t, d)
	assert.Equal(t, "important", d.Message)
}

func TestMessageHookRejectsPost(t *testing.T) {
	f := newFixture(t)
	f.hooks.OnMessage("no-secrets", func(_ context.Context, p *domain.Post) (*domain.Post, error) {
		return nil, errors.New("looks like a password")
	})
	f.typeMessage(t, "hunter2")

	outcome, err := f.submit(t)
	assert.Equal(t, Failed, outcome)
	assert.EqualError(t, err, "looks like a password")
	assert.Empty(t, f.posts.posts())
	assert.Equal(t, "hunter2", f.c.Snapshot().Message)
}

func TestMessageHookRewritesPost(t *testing.T) {
	f := newFixture(t)
	f.hooks.OnMessage("sign", func(_ context.Context, p *domain.Post) (*domain.Post, error) {
		cp := *p
		cp.Message += " -- alice"
		return &cp, nil
	})
	f.typeMessage(t, "bye")

	_, err := f.submit(t)
	require.NoError(t, err)
	require.Len(t, f.posts.posts(), 1)
	assert.Equal(t, "bye -- alice", f.posts.posts()[0].Message)
}

func TestSlashCommand(t *testing.T) {
	f := newFixture(t)
	f.commands.resp = &domain.CommandResponse{Text: "You are now away", Ephemeral: true}
	f.typeMessage(t, "/away")

	outcome, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, CommandRun, outcome)
	assert.Equal(t, []string{"/away"}, f.commands.calls)
	assert.Equal(t, domain.CommandArgs{ChannelID: "town-square", UserID: "u1"}, f.commands.args[0])
	assert.Equal(t, []string{"You are now away"}, f.view.ephemeral)
	assert.Empty(t, f.posts.posts())
	assert.Equal(t, "", f.c.Snapshot().Message)
}

func TestUnknownCommandSentAsMessage(t *testing.T) {
	f := newFixture(t)
	f.commands.err = &domain.CommandError{Code: domain.CommandNotFound, Message: "not found", SendMessage: true}
	f.typeMessage(t, "/tmp/build.log is huge")

	outcome, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, Sent, outcome)
	require.Len(t, f.posts.posts(), 1)
	assert.Equal(t, "/tmp/build.log is huge", f.posts.posts()[0].Message)
}

func TestInvalidSlashResubmitSendsLiteral(t *testing.T) {
	f := newFixture(t)
	f.commands.err = &domain.CommandError{Code: domain.CommandNotFound, Message: "command with trigger /shrugg not found"}
	f.typeMessage(t, "/shrugg")

	outcome, err := f.submit(t)
	assert.Equal(t, Failed, outcome)
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.InvalidSlash)
	assert.Equal(t, "/shrugg", f.c.Snapshot().Message, "text is restored for a second try")
	assert.Equal(t, "/shrugg", f.view.messages["town-square"])

	outcome, err = f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, Sent, outcome)
	assert.Len(t, f.commands.calls, 1)
	require.Len(t, f.posts.posts(), 1)
	assert.Equal(t, "/shrugg", f.posts.posts()[0].Message)
}

func TestEditingClearsInvalidSlashError(t *testing.T) {
	f := newFixture(t)
	f.commands.err = &domain.CommandError{Code: domain.CommandNotFound, Message: "not found"}
	f.typeMessage(t, "/shrugg")
	_, _ = f.submit(t)
	require.NotNil(t, f.c.Snapshot().ServerError)

	f.typeMessage(t, "/shrug")
	assert.Nil(t, f.c.Snapshot().ServerError)

	f.commands.err = nil
	outcome, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, CommandRun, outcome)
}

func TestSlashHookConsumesCommand(t *testing.T) {
	f := newFixture(t)
	f.hooks.OnSlashCommand("swallow", func(context.Context, string, *domain.CommandArgs) (string, *domain.CommandArgs, error) {
		return "", nil, nil
	})
	f.typeMessage(t, "/secret")

	outcome, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, Consumed, outcome)
	assert.Empty(t, f.commands.calls)
	assert.Empty(t, f.posts.posts())
	assert.Equal(t, "", f.c.Snapshot().Message)
}

func TestSlashHookRewritesCommand(t *testing.T) {
	f := newFixture(t)
	f.hooks.OnSlashCommand("alias", func(_ context.Context, _ string, args *domain.CommandArgs) (string, *domain.CommandArgs, error) {
		return "/shrug", args, nil
	})
	f.typeMessage(t, "/s")

	_, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"/shrug"}, f.commands.calls)
}

func TestSlashHookErrorRestoresMessage(t *testing.T) {
	f := newFixture(t)
	f.hooks.OnSlashCommand("deny", func(context.Context, string, *domain.CommandArgs) (string, *domain.CommandArgs, error) {
		return "", nil, errors.New("not allowed here")
	})
	f.typeMessage(t, "/kick bob")

	outcome, err := f.submit(t)
	assert.Equal(t, Failed, outcome)
	assert.EqualError(t, err, "not allowed here")
	assert.Equal(t, "/kick bob", f.c.Snapshot().Message)
	assert.Empty(t, f.commands.calls)
}

func TestReactionShorthand(t *testing.T) {
	f := newFixture(t)
	f.posts.latest = &domain.Post{ID: "p9", ChannelID: "town-square"}

	f.typeMessage(t, "+:smile:")
	outcome, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, Reacted, outcome)
	require.Len(t, f.posts.added, 1)
	assert.Equal(t, "p9", f.posts.added[0].PostID)
	assert.Equal(t, "u1", f.posts.added[0].UserID)
	assert.Equal(t, "smile", f.posts.added[0].EmojiName)
	assert.Equal(t, "", f.c.Snapshot().Message)

	f.typeMessage(t, "-:partyparrot: ")
	outcome, err = f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, Reacted, outcome)
	require.Len(t, f.posts.removed, 1)
	assert.Equal(t, "partyparrot", f.posts.removed[0].EmojiName)
	assert.Empty(t, f.posts.posts())
}

func TestReactionShorthandFallsBackToPost(t *testing.T) {
	t.Run("unknown emoji", func(t *testing.T) {
		f := newFixture(t)
		f.posts.latest = &domain.Post{ID: "p9"}
		f.typeMessage(t, "+:notanemoji:")
		outcome, err := f.submit(t)
		require.NoError(t, err)
		assert.Equal(t, Sent, outcome)
		assert.Empty(t, f.posts.added)
	})

	t.Run("nothing to react to", func(t *testing.T) {
		f := newFixture(t)
		f.typeMessage(t, "+:smile:")
		outcome, err := f.submit(t)
		require.NoError(t, err)
		assert.Equal(t, Sent, outcome)
		require.Len(t, f.posts.posts(), 1)
		assert.Equal(t, "+:smile:", f.posts.posts()[0].Message)
	})
}

func TestNotifyAllNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	f.c.SwitchChannel(context.Background(), bigChannel, nil)
	f.typeMessage(t, "@all lunch?")

	outcome, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, NeedsConfirmation, outcome)
	require.Len(t, f.view.prompts, 1)
	assert.Equal(t, NotifyAllPrompt{Mentions: []string{"@all"}, MemberCount: 9, TimezoneCount: 3}, f.view.prompts[0])
	assert.Empty(t, f.posts.posts())
	assert.Equal(t, "@all lunch?", f.c.Snapshot().Message)

	outcome, err = f.c.SubmitConfirmed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Sent, outcome)
	require.Len(t, f.posts.posts(), 1)
}

func TestNotifyAllGroupMention(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.TimezonesEnabled = false })
	f.c.SwitchChannel(context.Background(), bigChannel, nil)
	f.typeMessage(t, "@devs deploy is done")

	outcome, _ := f.submit(t)
	assert.Equal(t, NeedsConfirmation, outcome)
	require.Len(t, f.view.prompts, 1)
	assert.Equal(t, []string{"@devs"}, f.view.prompts[0].Mentions)
	assert.Zero(t, f.view.prompts[0].TimezoneCount)
}

func TestNotifyAllSkipped(t *testing.T) {
	tests := []struct {
		name    string
		channel *domain.Channel
		cfg     func(*Config)
		message string
	}{
		{"small channel", townSquare, nil, "@here standup"},
		{"confirmation disabled", bigChannel, func(c *Config) { c.ConfirmNotifyAll = false }, "@channel standup"},
		{"mention in code", bigChannel, nil, "use `@all` to ping"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mutate []func(*Config)
			if tt.cfg != nil {
				mutate = append(mutate, tt.cfg)
			}
			f := newFixture(t, mutate...)
			f.c.SwitchChannel(context.Background(), tt.channel, nil)
			f.typeMessage(t, tt.message)

			outcome, err := f.submit(t)
			require.NoError(t, err)
			assert.Equal(t, Sent, outcome)
			assert.Empty(t, f.view.prompts)
		})
	}
}

func TestMentionHighlightSuppressed(t *testing.T) {
	f := newFixture(t)
	f.c.SetUser(&domain.User{ID: "u2", Username: "guest"})
	f.c.SwitchChannel(context.Background(), bigChannel, nil)
	f.typeMessage(t, "@all and @devs look")

	outcome, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, Sent, outcome, "users who cannot notify everyone are not prompted")
	require.Len(t, f.posts.posts(), 1)
	p := f.posts.posts()[0]
	assert.True(t, p.BoolProp(domain.PropMentionHighlightDisabled))
	assert.True(t, p.BoolProp(domain.PropDisableGroupHighlight))
}

func TestOutOfOfficeStatusCommand(t *testing.T) {
	f := newFixture(t)
	ooo := *alice
	ooo.Status = domain.StatusOutOfOffice
	f.c.SetUser(&ooo)
	f.typeMessage(t, "/online")

	outcome, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, ResetStatusPrompted, outcome)
	assert.Equal(t, []string{"online"}, f.view.statuses)
	assert.Empty(t, f.commands.calls)
	assert.Equal(t, "", f.c.Snapshot().Message)

	require.NoError(t, f.c.ResetStatus(context.Background(), "online"))
	assert.Equal(t, []string{"/online"}, f.commands.calls)

	f.typeMessage(t, "/away")
	outcome, err = f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, CommandRun, outcome, "status is no longer out of office")
}

func TestOutOfOfficeStatusCommandWithText(t *testing.T) {
	f := newFixture(t)
	ooo := *alice
	ooo.Status = domain.StatusOutOfOffice
	f.c.SetUser(&ooo)
	f.typeMessage(t, "/away back at 3")

	outcome, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, CommandRun, outcome)
	assert.Empty(t, f.view.statuses)
}

func TestChannelSettingIntercepts(t *testing.T) {
	f := newFixture(t)
	f.typeMessage(t, "/header  ")
	outcome, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, SettingsOpened, outcome)
	assert.Equal(t, []Setting{SettingHeader}, f.view.settings)
	assert.Equal(t, "", f.c.Snapshot().Message)

	f.typeMessage(t, "/purpose")
	outcome, _ = f.submit(t)
	assert.Equal(t, SettingsOpened, outcome)
	assert.Equal(t, []Setting{SettingHeader, SettingPurpose}, f.view.settings)

	f.typeMessage(t, "/header new topic")
	outcome, _ = f.submit(t)
	assert.Equal(t, CommandRun, outcome, "header with text runs the command")

	dm := &domain.Channel{ID: "u1__u2", Type: domain.ChannelDirect, MemberCount: 2}
	f.c.SwitchChannel(context.Background(), dm, nil)
	f.typeMessage(t, "/purpose")
	outcome, _ = f.submit(t)
	assert.Equal(t, CommandRun, outcome, "direct channels have no purpose dialog")
	assert.Equal(t, []string{"/header new topic", "/purpose"}, f.commands.calls)
}

func TestSwitchDuringSubmission(t *testing.T) {
	f := newFixture(t)
	f.posts.gate = make(chan struct{})
	f.typeMessage(t, "for town square")

	done := make(chan Outcome, 1)
	go func() {
		outcome, _ := f.c.Submit(context.Background())
		done <- outcome
	}()
	require.Eventually(t, func() bool { return f.c.Snapshot().Submitting }, time.Second, 5*time.Millisecond)

	f.c.SwitchChannel(context.Background(), offTopic, nil)
	f.typeMessage(t, "off topic thought")
	close(f.posts.gate)
	require.Equal(t, Sent, <-done)

	require.Len(t, f.posts.posts(), 1)
	assert.Equal(t, "town-square", f.posts.posts()[0].ChannelID)
	assert.Equal(t, "", f.c.Draft("town-square").Message)
	assert.Equal(t, "off topic thought", f.c.Snapshot().Message)
	_, touched := f.view.messages["off-topic"]
	assert.False(t, touched)
}

func TestReplyToSetsRoot(t *testing.T) {
	f := newFixture(t)
	f.c.SetReplyTo("p1")
	f.typeMessage(t, "agreed")

	_, err := f.submit(t)
	require.NoError(t, err)
	require.Len(t, f.posts.posts(), 1)
	assert.Equal(t, "p1", f.posts.posts()[0].RootID)
	assert.Empty(t, f.c.Snapshot().ReplyTo)
}

func TestSubmitTrimsMessage(t *testing.T) {
	f := newFixture(t)
	f.typeMessage(t, "  hello \n\n")

	outcome, err := f.submit(t)
	require.NoError(t, err)
	require.Equal(t, Sent, outcome)
	require.Len(t, f.posts.posts(), 1)
	assert.Equal(t, "hello", f.posts.posts()[0].Message)
	items := f.history.Items()
	require.NotEmpty(t, items)
	assert.Equal(t, "hello", items[len(items)-1].Text)
}

func TestFailedTrimmedSubmitRestoresTypedText(t *testing.T) {
	f := newFixture(t)
	f.posts.createErr = errors.New("daemon unavailable")
	f.typeMessage(t, "  hi  ")

	_, err := f.submit(t)
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "  hi  ", se.SubmittedMessage)
	assert.Equal(t, "  hi  ", f.c.Snapshot().Message)
}

func TestFailureKeepsEditsMadeInFlight(t *testing.T) {
	f := newFixture(t)
	f.posts.gate = make(chan struct{})
	f.posts.createErr = errors.New("daemon unavailable")
	f.typeMessage(t, "hello")

	done := make(chan Outcome, 1)
	go func() {
		outcome, _ := f.c.Submit(context.Background())
		done <- outcome
	}()
	require.Eventually(t, func() bool { return f.c.Snapshot().Submitting }, time.Second, 5*time.Millisecond)

	f.typeMessage(t, "hello, and a newer edit")
	close(f.posts.gate)
	require.Equal(t, Failed, <-done)

	snap := f.c.Snapshot()
	assert.Equal(t, "hello, and a newer edit", snap.Message)
	assert.NotNil(t, snap.ServerError)
	_, touched := f.view.messages["town-square"]
	assert.False(t, touched, "the view keeps the newer text")
}

func TestFailureAfterSwitchStaysWithItsChannel(t *testing.T) {
	f := newFixture(t)
	f.posts.gate = make(chan struct{})
	f.posts.createErr = errors.New("network down")
	f.typeMessage(t, "for town square")

	done := make(chan Outcome, 1)
	go func() {
		outcome, _ := f.c.Submit(context.Background())
		done <- outcome
	}()
	require.Eventually(t, func() bool { return f.c.Snapshot().Submitting }, time.Second, 5*time.Millisecond)

	f.c.SwitchChannel(context.Background(), offTopic, nil)
	close(f.posts.gate)
	require.Equal(t, Failed, <-done)

	snap := f.c.Snapshot()
	assert.Equal(t, "off-topic", snap.ChannelID)
	assert.Nil(t, snap.ServerError)
	assert.Equal(t, "for town square", f.c.Draft("town-square").Message)
}
