package resolve

import (
	"context"
	"sync"

	"github.com/ewhitmore/inkfeed/internal/contentapi"
	"github.com/ewhitmore/inkfeed/internal/logging"
	"github.com/ewhitmore/inkfeed/internal/models"
)

// Lookups holds the entities resolved for one batch of posts. Every
// requested id has an entry; ids whose fetch failed map to nil.
type Lookups struct {
	Members    map[string]*models.Member
	Categories map[string]*models.Category
	Tags       map[string]*models.Tag
}

// Service resolves the members, categories, and tags referenced by a
// batch of posts, one remote fetch per unique id.
type Service struct {
	client contentapi.Client
	logger *logging.Logger
}

// NewService creates a new resolver service
func NewService(client contentapi.Client, logger *logging.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
	}
}

const (
	kindMember   = "member"
	kindCategory = "category"
	kindTag      = "tag"
)

type lookupResult struct {
	kind     string
	id       string
	member   *models.Member
	category *models.Category
	tag      *models.Tag
}

// Resolve fetches every unique member, category, and tag id referenced
// by the batch. All fetches across all three kinds run concurrently; a
// failed fetch is logged and recorded as nil without affecting the rest.
// Results are cached only within the returned Lookups, never beyond the
// batch.
func (s *Service) Resolve(ctx context.Context, posts []*models.RawPost) *Lookups {
	memberIDs, categoryIDs, tagIDs := collectIDs(posts)

	lookups := &Lookups{
		Members:    make(map[string]*models.Member, len(memberIDs)),
		Categories: make(map[string]*models.Category, len(categoryIDs)),
		Tags:       make(map[string]*models.Tag, len(tagIDs)),
	}

	total := len(memberIDs) + len(categoryIDs) + len(tagIDs)
	if total == 0 {
		return lookups
	}

	var wg sync.WaitGroup
	results := make(chan lookupResult, total)

	for _, id := range memberIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			member, err := s.client.GetMember(ctx, id)
			if err != nil {
				s.logFetchFailure(kindMember, id, err)
				member = nil
			}
			results <- lookupResult{kind: kindMember, id: id, member: member}
		}(id)
	}

	for _, id := range categoryIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			category, err := s.client.GetCategory(ctx, id)
			if err != nil {
				s.logFetchFailure(kindCategory, id, err)
				category = nil
			}
			results <- lookupResult{kind: kindCategory, id: id, category: category}
		}(id)
	}

	for _, id := range tagIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			tag, err := s.client.GetTag(ctx, id)
			if err != nil {
				s.logFetchFailure(kindTag, id, err)
				tag = nil
			}
			results <- lookupResult{kind: kindTag, id: id, tag: tag}
		}(id)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// Single collector goroutine owns the maps; fetchers never write
	// to them directly.
	for result := range results {
		switch result.kind {
		case kindMember:
			lookups.Members[result.id] = result.member
		case kindCategory:
			lookups.Categories[result.id] = result.category
		case kindTag:
			lookups.Tags[result.id] = result.tag
		}
	}

	return lookups
}

func (s *Service) logFetchFailure(kind, id string, err error) {
	s.logger.Warn("Failed to resolve entity", logging.WithFields(map[string]interface{}{
		"kind":  kind,
		"id":    id,
		"error": err.Error(),
	}))
}

// collectIDs gathers the unique non-empty ids referenced across the
// batch, preserving first-seen order. Nil posts contribute nothing.
func collectIDs(posts []*models.RawPost) (memberIDs, categoryIDs, tagIDs []string) {
	seenMembers := make(map[string]bool)
	seenCategories := make(map[string]bool)
	seenTags := make(map[string]bool)

	for _, post := range posts {
		if post == nil {
			continue
		}

		if post.MemberID != "" && !seenMembers[post.MemberID] {
			seenMembers[post.MemberID] = true
			memberIDs = append(memberIDs, post.MemberID)
		}

		for _, id := range post.CategoryIDs {
			if id != "" && !seenCategories[id] {
				seenCategories[id] = true
				categoryIDs = append(categoryIDs, id)
			}
		}

		for _, id := range post.TagIDs {
			if id != "" && !seenTags[id] {
				seenTags[id] = true
				tagIDs = append(tagIDs, id)
			}
		}
	}

	return memberIDs, categoryIDs, tagIDs
}
