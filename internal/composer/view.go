package composer

import (
	"fmt"

	"github.com/matheus3301/quill/internal/domain"
)

// Setting is a channel setting edited through a dialog.
type Setting int

const (
	SettingHeader Setting = iota + 1
	SettingPurpose
)

func (s Setting) String() string {
	if s == SettingPurpose {
		return "purpose"
	}
	return "header"
}

// NotifyAllPrompt describes a pending channel-wide notification.
type NotifyAllPrompt struct {
	Mentions      []string
	MemberCount   int
	TimezoneCount int
}

// View is the presentation side of the Composer. Methods may be called
// from any goroutine.
type View interface {
	// Refresh redraws from Snapshot.
	Refresh()
	// SetMessage replaces the input text for channelID after the Composer
	// changed it. It must not call back into SetMessage.
	SetMessage(channelID, text string)
	ScrollToBottom(channelID string)
	ConfirmNotifyAll(p NotifyAllPrompt)
	PromptResetStatus(newStatus string)
	OpenChannelSettings(s Setting, ch *domain.Channel)
	EditPost(p *domain.Post)
	ReplyTo(p *domain.Post)
	ShowEphemeral(channelID, text string)
}

type nopView struct{}

func (nopView) Refresh()                                     {}
func (nopView) SetMessage(string, string)                    {}
func (nopView) ScrollToBottom(string)                        {}
func (nopView) ConfirmNotifyAll(NotifyAllPrompt)             {}
func (nopView) PromptResetStatus(string)                     {}
func (nopView) OpenChannelSettings(Setting, *domain.Channel) {}
func (nopView) EditPost(*domain.Post)                        {}
func (nopView) ReplyTo(*domain.Post)                         {}
func (nopView) ShowEphemeral(string, string)                 {}

func messageTooLong(n, max int) string {
	return fmt.Sprintf("Message length is %d characters. Maximum is %d.", n, max)
}
