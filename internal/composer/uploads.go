package composer

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/matheus3301/quill/internal/domain"
)

// AttachFiles starts uploading paths into the active channel's draft and
// returns their client IDs.
func (c *Composer) AttachFiles(ctx context.Context, paths []string) ([]string, error) {
	c.mu.Lock()
	ch, u := c.channel, c.uploads
	c.mu.Unlock()
	if ch == nil || u == nil {
		return nil, ErrNotReady
	}
	return u.Start(ctx, ch.ID, paths), nil
}

// OnUploadStart adds clientIDs to the channel's in-progress uploads and
// writes the draft immediately.
func (c *Composer) OnUploadStart(clientIDs []string, channelID string) {
	c.mu.Lock()
	d := c.draftLocked(channelID)
	for _, id := range clientIDs {
		if !slices.Contains(d.UploadsInProgress, id) {
			d.UploadsInProgress = append(d.UploadsInProgress, id)
		}
	}
	c.mu.Unlock()

	c.flushNow(channelID)
	c.deps.View.Refresh()
}

// OnUploadProgress records transient progress; it is never persisted.
func (c *Composer) OnUploadProgress(clientID, _ string, percent int) {
	c.mu.Lock()
	c.progress[clientID] = percent
	c.mu.Unlock()
	c.deps.View.Refresh()
}

// OnUploadComplete moves finished uploads into the draft's attachments.
// infos and clientIDs are paired by index. Uploads no longer in progress
// were removed by the user and their results are dropped.
func (c *Composer) OnUploadComplete(infos []domain.FileInfo, clientIDs []string, channelID string) {
	c.mu.Lock()
	d := c.draftLocked(channelID)
	changed := false
	for i, id := range clientIDs {
		delete(c.progress, id)
		idx := slices.Index(d.UploadsInProgress, id)
		if idx < 0 {
			continue
		}
		d.UploadsInProgress = slices.Delete(d.UploadsInProgress, idx, idx+1)
		changed = true
		if i >= len(infos) {
			continue
		}
		info := infos[i]
		if !slices.ContainsFunc(d.FileInfos, func(f domain.FileInfo) bool { return f.ID == info.ID }) {
			d.FileInfos = append(d.FileInfos, info)
		}
	}
	if changed {
		domain.SortFileInfos(d.FileInfos, c.cfg.Locale)
	}
	c.mu.Unlock()

	if !changed {
		c.logger.Debug("dropping completed uploads no longer in progress", zap.Strings("client_ids", clientIDs))
		return
	}
	c.flushNow(channelID)
	c.deps.View.Refresh()
}

// OnUploadError removes the failed upload and surfaces err without
// blocking further edits.
func (c *Composer) OnUploadError(err error, clientID, channelID string) {
	c.mu.Lock()
	delete(c.progress, clientID)
	d := c.draftLocked(channelID)
	removed := false
	if idx := slices.Index(d.UploadsInProgress, clientID); idx >= 0 {
		d.UploadsInProgress = slices.Delete(d.UploadsInProgress, idx, idx+1)
		removed = true
	}
	c.serverError = &ServerError{Err: err}
	c.mu.Unlock()

	if removed {
		c.flushNow(channelID)
	}
	c.deps.View.Refresh()
}

// RemoveAttachment removes id from the active draft. id is either an
// uploaded file's ID or the client ID of an upload in progress, which is
// also cancelled. Any shown error is cleared.
func (c *Composer) RemoveAttachment(id string) bool {
	c.mu.Lock()
	if c.channel == nil {
		c.mu.Unlock()
		return false
	}
	channelID := c.channel.ID
	c.serverError = nil
	d := c.draftLocked(channelID)
	cancel := false
	found := true
	if idx := slices.IndexFunc(d.FileInfos, func(f domain.FileInfo) bool { return f.ID == id }); idx >= 0 {
		d.FileInfos = slices.Delete(d.FileInfos, idx, idx+1)
	} else if idx := slices.Index(d.UploadsInProgress, id); idx >= 0 {
		d.UploadsInProgress = slices.Delete(d.UploadsInProgress, idx, idx+1)
		delete(c.progress, id)
		cancel = true
	} else {
		found = false
	}
	u := c.uploads
	c.mu.Unlock()

	if cancel && u != nil {
		u.Cancel(id)
	}
	if found {
		c.flushNow(channelID)
	}
	c.deps.View.Refresh()
	return found
}

func (c *Composer) flushNow(channelID string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	c.flush(ctx, channelID)
}
