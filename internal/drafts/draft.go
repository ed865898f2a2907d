// Package drafts provides the in-memory draft registry
package drafts

import (
	"time"

	"github.com/oyin-bo/autothread/internal/segment"
)

// Draft is unpublished long-form content together with its chunking
type Draft struct {
	ID        string
	Content   string
	Title     string
	Chunks    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublishedPost records one chunk that already made it to Bluesky
type PublishedPost struct {
	URI string
	CID string
}

// DisplayTitle returns the title or "Untitled"
func (d *Draft) DisplayTitle() string {
	if d.Title == "" {
		return "Untitled"
	}
	return d.Title
}

// Preview returns the first limit grapheme clusters of the content
func (d *Draft) Preview(limit int) string {
	return segment.Truncate(d.Content, limit)
}

func (d *Draft) clone() *Draft {
	c := *d
	c.Chunks = append([]string(nil), d.Chunks...)
	return &c
}
