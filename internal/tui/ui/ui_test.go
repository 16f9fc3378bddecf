package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestPagesStack(t *testing.T) {
	p := NewPages()
	for _, name := range []string{"channels", "thread", "search"} {
		p.AddPage(name, tview.NewBox(), true, false)
	}
	var seen [][]string
	p.SetOnChange(func(stack []string) { seen = append(seen, stack) })

	p.Reset("channels")
	p.Push("thread")
	p.Push("thread")
	p.Push("search")
	if got := p.Current(); got != "search" {
		t.Fatalf("Current() = %q, want search", got)
	}
	if p.Depth() != 3 {
		t.Errorf("Depth() = %d, want 3 (duplicate push ignored)", p.Depth())
	}
	if popped := p.Pop(); popped != "search" {
		t.Errorf("Pop() = %q", popped)
	}
	p.Pop()
	if popped := p.Pop(); popped != "" {
		t.Errorf("root popped: %q", popped)
	}
	if p.Current() != "channels" {
		t.Errorf("Current() = %q, want channels", p.Current())
	}
	if len(seen) != 5 {
		t.Errorf("onChange fired %d times, want 5", len(seen))
	}
}

func TestFlashModel(t *testing.T) {
	clk := clocktesting.NewFakePassiveClock(time.Unix(1_700_000_000, 0))
	f := NewFlashModelWithClock(clk)
	if f.GetMessage() != nil {
		t.Fatal("new model has a message")
	}
	f.Errf("send", errors.New("boom"))
	msg := f.GetMessage()
	if msg == nil || msg.Text != "send: boom" || msg.Level != FlashErr {
		t.Fatalf("GetMessage() = %+v", msg)
	}
	select {
	case got := <-f.Watch():
		if got.Text != "send: boom" {
			t.Errorf("watched %q", got.Text)
		}
	default:
		t.Error("no message on watch channel")
	}

	f.Errf("send", errors.New("boom"))
	if msg := f.GetMessage(); msg == nil || msg.Repeats != 1 {
		t.Errorf("repeat not counted: %+v", msg)
	}

	clk.SetTime(clk.Now().Add(11 * time.Second))
	if f.Get() != "" {
		t.Errorf("Get() after expiry = %q", f.Get())
	}
	f.Errf("send", errors.New("boom"))
	if msg := f.GetMessage(); msg == nil || msg.Repeats != 0 {
		t.Errorf("expired notice still counted: %+v", msg)
	}
	f.Clear()
	if f.Get() != "" {
		t.Errorf("Get() after Clear = %q", f.Get())
	}
}

func TestPromptRecall(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	var got []string
	p.SetOnSubmit(func(_ PromptMode, text string) { got = append(got, text) })

	p.Activate(PromptCommand)
	for _, text := range []string{"attach a.png", "  ", "status away", "status away"} {
		p.SetText(text)
		p.done(tcell.KeyEnter)
	}
	if strings.Join(got, "|") != "attach a.png|status away|status away" {
		t.Fatalf("submitted %q", got)
	}

	p.Activate(PromptCommand)
	p.Recall(-1)
	if p.GetText() != "status away" {
		t.Errorf("first recall = %q", p.GetText())
	}
	p.Recall(-1)
	p.Recall(-1)
	if p.GetText() != "attach a.png" {
		t.Errorf("oldest recall = %q", p.GetText())
	}
	p.Recall(1)
	p.Recall(1)
	if p.GetText() != "" {
		t.Errorf("past newest = %q, want empty", p.GetText())
	}

	p.Activate(PromptFilter)
	p.Recall(-1)
	if p.GetText() != "" {
		t.Errorf("filter history leaked command entries: %q", p.GetText())
	}
}

func TestCrumbsCollapse(t *testing.T) {
	c := NewCrumbs(DefaultTheme())
	c.Update([]string{"a", "b", "c", "d", "e"})
	text := c.GetText(true)
	if !strings.Contains(text, "…") || strings.Contains(text, " a ") {
		t.Errorf("old crumbs not collapsed: %q", text)
	}
	if !strings.Contains(text, " e ") {
		t.Errorf("active crumb missing: %q", text)
	}
}
