// Package schema provides the record and file types shared by the registry,
// the content store and the sync engine.
package schema

import (
	"fmt"
	"time"
)

// Post statuses defined by WordPress.
const (
	StatusDraft     = "draft"
	StatusPending   = "pending"
	StatusPublish   = "publish"
	StatusFuture    = "future"
	StatusPrivate   = "private"
	StatusTrash     = "trash"
	StatusInherit   = "inherit"
	StatusAutoDraft = "auto-draft"
)

// PostTypePost is the only remote item type the tool tracks.
const PostTypePost = "post"

var statuses = map[string]bool{
	StatusDraft:     true,
	StatusPending:   true,
	StatusPublish:   true,
	StatusFuture:    true,
	StatusPrivate:   true,
	StatusTrash:     true,
	StatusInherit:   true,
	StatusAutoDraft: true,
}

// ValidStatus reports whether s belongs to the remote status vocabulary.
func ValidStatus(s string) bool {
	return statuses[s]
}

// Skippable reports whether a pulled item with this status is garbage
// (revisions, autosaves, trashed posts) and must not be written locally.
func Skippable(status string) bool {
	switch status {
	case StatusAutoDraft, StatusInherit, StatusTrash:
		return true
	default:
		return false
	}
}

// Post is the registry record for a post known locally.
//
// The registry is a cache of remote truth. Hash is the digest of the
// rendered HTML last pushed and is empty until the first create or push.
type Post struct {
	ID        int        `json:"id"`
	Blog      string     `json:"blog"`
	Title     string     `json:"title"`
	Hash      string     `json:"hash,omitempty"`
	Status    string     `json:"status,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Validate checks if the Post has valid field values.
func (p *Post) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("id must be positive (got %d)", p.ID)
	}
	if p.Blog == "" {
		return fmt.Errorf("blog is required")
	}
	if p.Status != "" && !ValidStatus(p.Status) {
		return fmt.Errorf("unknown status %q", p.Status)
	}
	return nil
}

// SetDefaults fills in timestamps that were not provided.
func (p *Post) SetDefaults() {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
}
