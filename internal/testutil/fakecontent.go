package testutil

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ewhitmore/inkfeed/internal/contentapi"
	"github.com/ewhitmore/inkfeed/internal/models"
)

// FakeContent is an in-memory stand-in for the remote content platform.
// It evaluates the same filter expressions the HTTP client would send,
// counts calls per entity id, and can be told to fail specific lookups.
type FakeContent struct {
	mu sync.Mutex

	Members    map[string]*models.Member
	Categories map[string]*models.Category
	Tags       map[string]*models.Tag
	Posts      []*models.RawPost

	FailMembers    map[string]bool
	FailCategories map[string]bool
	FailTags       map[string]bool
	QueryErr       error

	MemberCalls   map[string]int
	CategoryCalls map[string]int
	TagCalls      map[string]int
	QueryCalls    int
}

// NewFakeContent creates an empty fake platform
func NewFakeContent() *FakeContent {
	return &FakeContent{
		Members:        make(map[string]*models.Member),
		Categories:     make(map[string]*models.Category),
		Tags:           make(map[string]*models.Tag),
		FailMembers:    make(map[string]bool),
		FailCategories: make(map[string]bool),
		FailTags:       make(map[string]bool),
		MemberCalls:    make(map[string]int),
		CategoryCalls:  make(map[string]int),
		TagCalls:       make(map[string]int),
	}
}

var _ contentapi.Client = (*FakeContent)(nil)

func (f *FakeContent) GetMember(ctx context.Context, id string) (*models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.MemberCalls[id]++
	if f.FailMembers[id] {
		return nil, fmt.Errorf("member %s: simulated failure", id)
	}
	member, ok := f.Members[id]
	if !ok {
		return nil, contentapi.ErrNotFound
	}
	return member, nil
}

func (f *FakeContent) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.CategoryCalls[id]++
	if f.FailCategories[id] {
		return nil, fmt.Errorf("category %s: simulated failure", id)
	}
	category, ok := f.Categories[id]
	if !ok {
		return nil, contentapi.ErrNotFound
	}
	return category, nil
}

func (f *FakeContent) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	slug = contentapi.NormalizeSlug(slug)
	for _, category := range f.Categories {
		if category.Slug == slug {
			return category, nil
		}
	}
	return nil, contentapi.ErrNotFound
}

func (f *FakeContent) GetTag(ctx context.Context, id string) (*models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.TagCalls[id]++
	if f.FailTags[id] {
		return nil, fmt.Errorf("tag %s: simulated failure", id)
	}
	tag, ok := f.Tags[id]
	if !ok {
		return nil, contentapi.ErrNotFound
	}
	return tag, nil
}

func (f *FakeContent) GetPostBySlug(ctx context.Context, slug string) (*models.RawPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	slug = contentapi.NormalizeSlug(slug)
	for _, post := range f.Posts {
		if post.Slug == slug {
			return post, nil
		}
	}
	return nil, nil
}

// QueryPosts filters, sorts, and cursor-pages the in-memory posts the
// way the remote query endpoint does. Cursors are opaque to callers but
// encode the next offset into the filtered-and-sorted result.
func (f *FakeContent) QueryPosts(ctx context.Context, q contentapi.PostQuery) (*contentapi.PostPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.QueryCalls++
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}

	matched := make([]*models.RawPost, 0, len(f.Posts))
	for _, post := range f.Posts {
		if matchFilter(q.Filter, post) {
			matched = append(matched, post)
		}
	}

	sortPosts(matched, q.Sort)

	offset := 0
	if q.Cursor != "" {
		parsed, err := strconv.Atoi(strings.TrimPrefix(q.Cursor, "off:"))
		if err != nil {
			return nil, fmt.Errorf("bad cursor %q", q.Cursor)
		}
		offset = parsed
	}

	limit := q.Limit
	if limit <= 0 {
		limit = len(matched)
	}

	page := &contentapi.PostPage{
		Items:      []*models.RawPost{},
		TotalCount: len(matched),
	}
	if offset < len(matched) {
		end := offset + limit
		if end > len(matched) {
			end = len(matched)
		}
		page.Items = matched[offset:end]
		if end < len(matched) {
			page.NextCursor = "off:" + strconv.Itoa(end)
		}
	}
	return page, nil
}

func matchFilter(filter contentapi.Filter, post *models.RawPost) bool {
	if filter.IsZero() {
		return true
	}

	if len(filter.AndClauses) > 0 {
		for _, clause := range filter.AndClauses {
			if !matchFilter(clause, post) {
				return false
			}
		}
		return true
	}

	if len(filter.OrClauses) > 0 {
		for _, clause := range filter.OrClauses {
			if matchFilter(clause, post) {
				return true
			}
		}
		return false
	}

	switch filter.Op {
	case contentapi.OpEq:
		return compareField(post, filter.Field, filter.Value) == 0
	case contentapi.OpNe:
		return compareField(post, filter.Field, filter.Value) != 0
	case contentapi.OpLt:
		return compareField(post, filter.Field, filter.Value) < 0
	case contentapi.OpGt:
		return compareField(post, filter.Field, filter.Value) > 0
	case contentapi.OpIn:
		scalar, _ := fieldValue(post, filter.Field)
		for _, v := range toStrings(filter.Value) {
			if scalar == v {
				return true
			}
		}
		return false
	case contentapi.OpHasSome:
		_, list := fieldValue(post, filter.Field)
		for _, have := range list {
			for _, want := range toStrings(filter.Value) {
				if have == want {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

// compareField returns -1/0/1 comparing the post's field to want
func compareField(post *models.RawPost, field string, want interface{}) int {
	if field == "firstPublishedAt" {
		wantTime := toTime(want)
		switch {
		case post.FirstPublishedAt.Before(wantTime):
			return -1
		case post.FirstPublishedAt.After(wantTime):
			return 1
		default:
			return 0
		}
	}

	scalar, _ := fieldValue(post, field)
	return strings.Compare(scalar, fmt.Sprintf("%v", want))
}

func fieldValue(post *models.RawPost, field string) (string, []string) {
	switch field {
	case "id":
		return post.ID, nil
	case "slug":
		return post.Slug, nil
	case "memberId":
		return post.MemberID, nil
	case "categoryIds":
		return "", post.CategoryIDs
	case "tagIds":
		return "", post.TagIDs
	default:
		return "", nil
	}
}

func toStrings(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}

func toTime(v interface{}) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case string:
		if parsed, err := time.Parse(time.RFC3339, val); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func sortPosts(posts []*models.RawPost, fields []models.SortField) {
	if len(fields) == 0 {
		return
	}

	sort.SliceStable(posts, func(i, j int) bool {
		for _, field := range fields {
			cmp := comparePosts(posts[i], posts[j], field.FieldName)
			if cmp == 0 {
				continue
			}
			if field.Order == models.SortDesc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func comparePosts(a, b *models.RawPost, field string) int {
	if field == "firstPublishedAt" {
		switch {
		case a.FirstPublishedAt.Before(b.FirstPublishedAt):
			return -1
		case a.FirstPublishedAt.After(b.FirstPublishedAt):
			return 1
		default:
			return 0
		}
	}

	aVal, _ := fieldValue(a, field)
	bVal, _ := fieldValue(b, field)
	return strings.Compare(aVal, bVal)
}
