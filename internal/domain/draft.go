package domain

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DraftKeyPrefix prefixes every channel draft key in the draft store.
const DraftKeyPrefix = "draft_"

// DraftKey returns the draft store key for a channel.
func DraftKey(channelID string) string {
	return DraftKeyPrefix + channelID
}

// ChannelFromDraftKey is the inverse of DraftKey.
func ChannelFromDraftKey(key string) (string, bool) {
	return strings.CutPrefix(key, DraftKeyPrefix)
}

// FileInfo is a completed attachment.
type FileInfo struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id,omitempty"`
	PostID    string `json:"post_id,omitempty"`
	Name      string `json:"name"`
	Extension string `json:"extension,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	Size      int64  `json:"size"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	CreateAt  int64  `json:"create_at"`
}

// IsImage reports whether the file has image dimensions.
func (f FileInfo) IsImage() bool {
	return f.Width > 0 && f.Height > 0
}

// Draft is the unsent state of a channel's composer.
//
// An ID is never in both FileInfos and UploadsInProgress.
type Draft struct {
	ChannelID         string     `json:"channel_id"`
	Message           string     `json:"message"`
	FileInfos         []FileInfo `json:"file_infos,omitempty"`
	UploadsInProgress []string   `json:"uploads_in_progress,omitempty"`
	Caret             int        `json:"caret,omitempty"`
	UpdateAt          int64      `json:"update_at,omitempty"`
}

// NewDraft returns the empty draft for a channel.
func NewDraft(channelID string) *Draft {
	return &Draft{ChannelID: channelID}
}

// IsEmpty reports whether the draft carries nothing worth persisting.
func (d *Draft) IsEmpty() bool {
	return d == nil || (d.Message == "" && len(d.FileInfos) == 0 && len(d.UploadsInProgress) == 0)
}

// Uploading reports whether any upload is still in flight.
func (d *Draft) Uploading() bool {
	return d != nil && len(d.UploadsInProgress) > 0
}

// Clone returns a deep copy so callers can hand drafts across goroutines.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	c := *d
	c.FileInfos = slices.Clone(d.FileInfos)
	c.UploadsInProgress = slices.Clone(d.UploadsInProgress)
	return &c
}

// SortFileInfos orders attachments by creation time, then by name using the
// collation rules of locale. Digits compare numerically, so "img2" sorts
// before "img10". An unknown locale falls back to the root collation.
func SortFileInfos(infos []FileInfo, locale string) {
	col := collate.New(language.Make(locale), collate.Numeric, collate.IgnoreCase)
	slices.SortStableFunc(infos, func(a, b FileInfo) int {
		if a.CreateAt != b.CreateAt {
			if a.CreateAt < b.CreateAt {
				return -1
			}
			return 1
		}
		return col.CompareString(a.Name, b.Name)
	})
}
