package feed

import (
	"context"
	"sync"

	"github.com/ewhitmore/inkfeed/internal/contentapi"
	"github.com/ewhitmore/inkfeed/internal/enrich"
	"github.com/ewhitmore/inkfeed/internal/logging"
	"github.com/ewhitmore/inkfeed/internal/models"
)

// State is the feed controller's lifecycle state
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateError   State = "error"
)

const defaultPageSize = 10

// Options configures the initial load of a feed
type Options struct {
	// CategorySlug restricts the feed to one category, resolved to an
	// id before the first query. A slug that does not resolve produces
	// an empty feed rather than an error.
	CategorySlug string
	// IncludeIDs restricts the feed to an explicit set of post ids
	IncludeIDs []string
	// ExcludeIDs omits specific posts from the feed
	ExcludeIDs []string
	// Cursor starts the load at a page boundary other than the first
	Cursor string
	PageSize int
	Sort     []models.SortField
}

// Snapshot is a point-in-time copy of the feed state
type Snapshot struct {
	State      State
	Posts      []*models.ResolvedPost
	NextCursor string
	TotalCount int
	PageSize   int
	Sort       []models.SortField
	Err        string
}

// Service is one feed instance: a cursor-paginated, sorted, filtered
// view over the platform's posts, enriched before exposure. Safe for
// concurrent use; cursor handoff is guarded by a mutex and responses
// from superseded requests are discarded via a generation token.
type Service struct {
	client   contentapi.Client
	enricher *enrich.Service
	logger   *logging.Logger

	mu         sync.Mutex
	generation uint64
	state      State
	posts      []*models.ResolvedPost
	cursor     string
	totalCount int
	pageSize   int
	sort       []models.SortField
	categoryID string
	includeIDs []string
	excludeIDs []string
	lastError  string
}

// NewService creates an idle feed instance
func NewService(client contentapi.Client, enricher *enrich.Service, logger *logging.Logger) *Service {
	return &Service{
		client:   client,
		enricher: enricher,
		logger:   logger,
		state:    StateIdle,
		posts:    []*models.ResolvedPost{},
	}
}

// Snapshot returns a copy of the current feed state
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := make([]*models.ResolvedPost, len(s.posts))
	copy(posts, s.posts)
	sortCopy := make([]models.SortField, len(s.sort))
	copy(sortCopy, s.sort)

	return Snapshot{
		State:      s.state,
		Posts:      posts,
		NextCursor: s.cursor,
		TotalCount: s.totalCount,
		PageSize:   s.pageSize,
		Sort:       sortCopy,
		Err:        s.lastError,
	}
}

// Load performs the initial feed load, capturing page size and total
// count. Failures never propagate as errors: a category slug that does
// not resolve yields an empty feed, a query failure leaves the feed in
// the error state with an empty post list.
func (s *Service) Load(ctx context.Context, opts Options) {
	s.mu.Lock()
	gen := s.beginLoad()
	s.pageSize = opts.PageSize
	if s.pageSize <= 0 {
		s.pageSize = defaultPageSize
	}
	s.sort = opts.Sort
	if len(s.sort) == 0 {
		s.sort = models.DefaultFeedSort()
	}
	s.categoryID = ""
	s.includeIDs = opts.IncludeIDs
	s.excludeIDs = opts.ExcludeIDs
	s.mu.Unlock()

	if opts.CategorySlug != "" {
		category, err := s.client.GetCategoryBySlug(ctx, opts.CategorySlug)
		if err != nil {
			s.logger.Warn("Category slug did not resolve, serving empty feed", logging.WithFields(map[string]interface{}{
				"slug":  opts.CategorySlug,
				"error": err.Error(),
			}))
			s.applyEmpty(gen)
			return
		}
		s.mu.Lock()
		s.categoryID = category.ID
		s.mu.Unlock()
	}

	page, err := s.queryPage(ctx, opts.Cursor)
	if err != nil {
		s.applyFailure(gen, err, true)
		return
	}

	resolved := s.enricher.EnrichPosts(ctx, page.Items)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	s.posts = compact(resolved)
	s.cursor = page.NextCursor
	s.totalCount = page.TotalCount
	s.state = StateLoaded
}

// LoadNextPage appends the next page to the feed. It is a no-op when
// no next-page cursor is present or another load is in flight. A
// failure surfaces on the snapshot's Err and leaves the list intact.
func (s *Service) LoadNextPage(ctx context.Context) {
	s.mu.Lock()
	if s.state == StateLoading || s.cursor == "" {
		s.mu.Unlock()
		return
	}
	gen := s.beginLoad()
	cursor := s.cursor
	s.mu.Unlock()

	page, err := s.queryPage(ctx, cursor)
	if err != nil {
		s.applyFailure(gen, err, false)
		return
	}

	resolved := s.enricher.EnrichPosts(ctx, page.Items)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	s.posts = append(s.posts, compact(resolved)...)
	s.cursor = page.NextCursor
	s.state = StateLoaded
}

// SetSort replaces the sort specification, discards the current list,
// and reloads from the first page. The captured total count is not
// recomputed. A sort change supersedes any load still in flight.
func (s *Service) SetSort(ctx context.Context, sort []models.SortField) {
	s.mu.Lock()
	gen := s.beginLoad()
	if len(sort) == 0 {
		sort = models.DefaultFeedSort()
	}
	s.sort = sort
	s.mu.Unlock()

	page, err := s.queryPage(ctx, "")
	if err != nil {
		s.applyFailure(gen, err, false)
		return
	}

	resolved := s.enricher.EnrichPosts(ctx, page.Items)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	s.posts = compact(resolved)
	s.cursor = page.NextCursor
	s.state = StateLoaded
}

// beginLoad transitions into loading under the caller's lock and
// returns the new generation. Any prior error is cleared.
func (s *Service) beginLoad() uint64 {
	s.generation++
	s.state = StateLoading
	s.lastError = ""
	return s.generation
}

func (s *Service) queryPage(ctx context.Context, cursor string) (*contentapi.PostPage, error) {
	s.mu.Lock()
	query := contentapi.PostQuery{
		Filter: s.buildFilter(),
		Sort:   s.sort,
		Limit:  s.pageSize,
		Cursor: cursor,
	}
	s.mu.Unlock()

	return s.client.QueryPosts(ctx, query)
}

// buildFilter assembles the category, inclusion, and exclusion clauses.
// Caller must hold the lock.
func (s *Service) buildFilter() contentapi.Filter {
	var clauses []contentapi.Filter

	if s.categoryID != "" {
		clauses = append(clauses, contentapi.HasSome("categoryIds", []string{s.categoryID}))
	}
	if len(s.includeIDs) > 0 {
		clauses = append(clauses, contentapi.In("id", s.includeIDs))
	}
	for _, id := range s.excludeIDs {
		clauses = append(clauses, contentapi.Ne("id", id))
	}

	switch len(clauses) {
	case 0:
		return contentapi.Filter{}
	case 1:
		return clauses[0]
	default:
		return contentapi.And(clauses...)
	}
}

func (s *Service) applyEmpty(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	s.posts = []*models.ResolvedPost{}
	s.cursor = ""
	s.totalCount = 0
	s.state = StateLoaded
}

func (s *Service) applyFailure(gen uint64, err error, clearPosts bool) {
	s.logger.Error("Feed query failed", logging.WithField("error", err.Error()))

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	if clearPosts {
		s.posts = []*models.ResolvedPost{}
		s.cursor = ""
		s.totalCount = 0
	}
	s.state = StateError
	s.lastError = err.Error()
}

// compact drops nil entries; query results are all loaded posts, so
// enrichment yields no nils here, but the feed never exposes them.
func compact(posts []*models.ResolvedPost) []*models.ResolvedPost {
	out := make([]*models.ResolvedPost, 0, len(posts))
	for _, post := range posts {
		if post != nil {
			out = append(out, post)
		}
	}
	return out
}
