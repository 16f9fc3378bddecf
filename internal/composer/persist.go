package composer

import (
	"context"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/matheus3301/quill/internal/domain"
)

const writeTimeout = 5 * time.Second

// schedule arms the debounced write for channelID, replacing any earlier
// one. Each arming gets a sequence number; a timer whose number is no
// longer pending does nothing when it fires.
func (c *Composer) schedule(channelID string) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.pending[channelID] = seq
	old := c.timers[channelID]
	delete(c.timers, channelID)
	c.mu.Unlock()

	// Clock calls stay outside mu and callbacks hand off to a goroutine:
	// a fake clock runs callbacks under its own lock.
	stopTimer(old)
	t := c.clock.AfterFunc(c.cfg.DraftDebounce, func() { go c.fire(channelID, seq) })

	c.mu.Lock()
	if c.pending[channelID] == seq {
		c.timers[channelID] = t
		t = nil
	}
	c.mu.Unlock()
	stopTimer(t)
}

func (c *Composer) fire(channelID string, seq uint64) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	if cur, ok := c.pending[channelID]; !ok || cur != seq {
		c.mu.Unlock()
		return
	}
	delete(c.pending, channelID)
	delete(c.timers, channelID)
	snap := c.drafts[channelID].Clone()
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	c.write(ctx, channelID, snap)
}

// cancelLocked drops the pending write for channelID and returns its
// timer for the caller to stop once mu is released.
func (c *Composer) cancelLocked(channelID string) (t clock.Timer, had bool) {
	_, had = c.pending[channelID]
	t = c.timers[channelID]
	delete(c.pending, channelID)
	delete(c.timers, channelID)
	return t, had
}

func stopTimer(t clock.Timer) {
	if t != nil {
		t.Stop()
	}
}

// flushPending writes channelID's draft now if a debounced write is armed.
func (c *Composer) flushPending(ctx context.Context, channelID string) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	t, had := c.cancelLocked(channelID)
	snap := c.drafts[channelID].Clone()
	c.mu.Unlock()
	stopTimer(t)
	if had {
		c.write(ctx, channelID, snap)
	}
}

// flush writes channelID's draft now, cancelling any armed write.
func (c *Composer) flush(ctx context.Context, channelID string) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	t, _ := c.cancelLocked(channelID)
	snap := c.drafts[channelID].Clone()
	c.mu.Unlock()
	stopTimer(t)
	c.write(ctx, channelID, snap)
}

// clearDraft empties channelID's draft in memory and in the store. An
// armed write for the old content is cancelled.
func (c *Composer) clearDraft(ctx context.Context, channelID string) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	t, _ := c.cancelLocked(channelID)
	d := c.draftLocked(channelID)
	show := c.channel != nil && c.channel.ID == channelID && d.Message != ""
	c.drafts[channelID] = domain.NewDraft(channelID)
	delete(c.recalled, channelID)
	c.postError = ""
	c.mu.Unlock()
	stopTimer(t)

	if show {
		c.deps.View.SetMessage(channelID, "")
	}
	c.write(ctx, channelID, nil)
}

// write stores d under channelID's key. Callers hold persistMu. Empty
// drafts are deleted rather than stored.
func (c *Composer) write(ctx context.Context, channelID string, d *domain.Draft) {
	if d.IsEmpty() {
		d = nil
	} else {
		d.UpdateAt = c.clock.Now().UnixMilli()
	}
	if err := c.deps.Drafts.SetDraft(ctx, domain.DraftKey(channelID), d); err != nil {
		c.logger.Warn("failed to save draft", zap.String("channel", channelID), zap.Error(err))
	}
}
