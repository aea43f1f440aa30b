package blogservice

import "time"

// AnonymousID is the viewer id carried by unauthenticated requests. No users
// row ever has id 0.
const AnonymousID = 0

// Visible reports whether the post may be shown to the given viewer. Authors
// always see their own posts, including unpublished drafts and posts scheduled
// in the future. Anyone else only sees a post when it is published, its
// publication date (if any) has passed, and its category exists and is itself
// published.
func Visible(p *Post, viewerID int, now time.Time) bool {
	if viewerID != AnonymousID && viewerID == p.AuthorID {
		return true
	}

	if !p.IsPublished {
		return false
	}

	if p.PubDate != nil && p.PubDate.After(now) {
		return false
	}

	return p.Category != nil && p.Category.IsPublished
}

// CanModify reports whether the actor may edit or delete content owned by
// authorID. Ownership is the only rule at this layer; administrators act
// through a separate interface.
func CanModify(authorID, actorID int) bool {
	return actorID != AnonymousID && actorID == authorID
}
