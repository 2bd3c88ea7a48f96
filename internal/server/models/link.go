package models

import "time"

// Link is a saved bookmark owned by exactly one user.
//
// Host is the authority component of URL, derived once when the link is
// created and never recomputed afterwards. A link is archived when
// ArchivedAt is non-nil.
type Link struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"ownerId"`
	URL        string     `json:"url"`
	Title      string     `json:"title"`
	Host       string     `json:"host"`
	Notes      string     `json:"notes"`
	ArchivedAt *time.Time `json:"archivedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Archived reports whether the link is currently archived.
func (l *Link) Archived() bool {
	return l.ArchivedAt != nil
}
