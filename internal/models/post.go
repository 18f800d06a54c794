package models

import "time"

// RawPost is a blog post exactly as the content platform returns it.
type RawPost struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Slug             string      `json:"slug"`
	MemberID         string      `json:"memberId,omitempty"`
	CategoryIDs      []string    `json:"categoryIds"`
	TagIDs           []string    `json:"tagIds"`
	Media            *CoverMedia `json:"media,omitempty"`
	Excerpt          string      `json:"excerpt,omitempty"`
	ContentHTML      string      `json:"contentHtml,omitempty"`
	FirstPublishedAt time.Time   `json:"firstPublishedAt"`
	LastPublishedAt  time.Time   `json:"lastPublishedAt"`
	Pinned           bool        `json:"pinned,omitempty"`
	Featured         bool        `json:"featured,omitempty"`
}

// CoverMedia describes a post's cover: either a hosted-image reference
// or an embedded-media thumbnail URL.
type CoverMedia struct {
	ImageRef          string `json:"imageRef,omitempty"`
	ImageAlt          string `json:"imageAlt,omitempty"`
	EmbedThumbnailURL string `json:"embedThumbnailUrl,omitempty"`
}

// Member is a post owner as returned by the platform's members API
type Member struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname,omitempty"`
	Slug      string `json:"slug,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Category is a blog category
type Category struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

// Tag is a blog tag
type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// ResolvedFields holds the looked-up entities and derived cover data
// attached to a post by enrichment.
type ResolvedFields struct {
	Owner         *Member    `json:"owner,omitempty"`
	Categories    []Category `json:"categories"`
	Tags          []Tag      `json:"tags"`
	CoverImageURL string     `json:"coverImageUrl,omitempty"`
	CoverImageAlt string     `json:"coverImageAlt,omitempty"`
	Excerpt       string     `json:"excerpt,omitempty"`
}

// ResolvedPost is a raw post plus its resolved fields. Constructed once
// per enrichment call and not mutated afterward.
type ResolvedPost struct {
	RawPost
	Resolved ResolvedFields `json:"resolved"`
}
