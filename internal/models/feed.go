package models

// SortOrder is the direction of a sort clause
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// SortField is one clause of a sort specification. Position in the
// slice defines primary/secondary precedence.
type SortField struct {
	FieldName string    `json:"fieldName"`
	Order     SortOrder `json:"order"`
}

// DefaultFeedSort orders a feed newest-first
func DefaultFeedSort() []SortField {
	return []SortField{{FieldName: "firstPublishedAt", Order: SortDesc}}
}

// FeedResponse is one page of a resolved feed as served to clients
type FeedResponse struct {
	Posts      []*ResolvedPost `json:"posts"`
	NextCursor string          `json:"nextCursor,omitempty"`
	TotalCount int             `json:"totalCount"`
	PageSize   int             `json:"pageSize"`
}

// PostResponse is a single resolved post with its adjacent posts
type PostResponse struct {
	Post      *ResolvedPost `json:"post"`
	OlderPost *ResolvedPost `json:"olderPost,omitempty"`
	NewerPost *ResolvedPost `json:"newerPost,omitempty"`
}
