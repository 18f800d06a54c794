package enrich

import (
	"context"

	"github.com/ewhitmore/inkfeed/internal/logging"
	"github.com/ewhitmore/inkfeed/internal/media"
	"github.com/ewhitmore/inkfeed/internal/models"
	"github.com/ewhitmore/inkfeed/internal/resolve"
	"github.com/ewhitmore/inkfeed/internal/richtext"
)

const excerptMaxLen = 200

// Service turns raw posts into resolved posts: owner, categories, and
// tags looked up, cover image derived, excerpt filled in. It is the
// only caller of the resolver.
type Service struct {
	resolver *resolve.Service
	media    media.Resolver
	logger   *logging.Logger
}

// NewService creates a new enrichment service
func NewService(resolver *resolve.Service, mediaResolver media.Resolver, logger *logging.Logger) *Service {
	return &Service{
		resolver: resolver,
		media:    mediaResolver,
		logger:   logger,
	}
}

// EnrichPosts resolves one batch of posts. Nil entries (posts that
// failed to load upstream) stay nil at the same index and contribute
// nothing to the resolution batch. Never returns an error; per-entity
// failures have already been reduced to nil lookups by the resolver.
func (s *Service) EnrichPosts(ctx context.Context, posts []*models.RawPost) []*models.ResolvedPost {
	lookups := s.resolver.Resolve(ctx, posts)

	resolved := make([]*models.ResolvedPost, len(posts))
	for i, post := range posts {
		if post == nil {
			continue
		}
		resolved[i] = s.enrichOne(post, lookups)
	}
	return resolved
}

func (s *Service) enrichOne(post *models.RawPost, lookups *resolve.Lookups) *models.ResolvedPost {
	fields := models.ResolvedFields{
		Categories: make([]models.Category, 0, len(post.CategoryIDs)),
		Tags:       make([]models.Tag, 0, len(post.TagIDs)),
	}

	if post.MemberID != "" {
		fields.Owner = lookups.Members[post.MemberID]
	}

	// Order follows the post's own id lists; unresolved ids are dropped.
	for _, id := range post.CategoryIDs {
		if category := lookups.Categories[id]; category != nil {
			fields.Categories = append(fields.Categories, *category)
		}
	}
	for _, id := range post.TagIDs {
		if tag := lookups.Tags[id]; tag != nil {
			fields.Tags = append(fields.Tags, *tag)
		}
	}

	fields.CoverImageURL = s.coverImageURL(post)
	fields.CoverImageAlt = coverImageAlt(post)
	fields.Excerpt = s.excerpt(post)

	return &models.ResolvedPost{
		RawPost:  *post,
		Resolved: fields,
	}
}

// coverImageURL applies the cover precedence: hosted-image reference
// first, then embedded-media thumbnail, then none.
func (s *Service) coverImageURL(post *models.RawPost) string {
	if post.Media == nil {
		return ""
	}

	if post.Media.ImageRef != "" {
		url, err := s.media.ResolveImageURL(post.Media.ImageRef)
		if err != nil {
			s.logger.Warn("Failed to resolve cover image", logging.WithFields(map[string]interface{}{
				"post_id": post.ID,
				"ref":     post.Media.ImageRef,
				"error":   err.Error(),
			}))
			return ""
		}
		return url
	}

	return post.Media.EmbedThumbnailURL
}

func coverImageAlt(post *models.RawPost) string {
	if post.Media != nil && post.Media.ImageAlt != "" {
		return post.Media.ImageAlt
	}
	return post.Title
}

func (s *Service) excerpt(post *models.RawPost) string {
	if post.Excerpt != "" {
		return post.Excerpt
	}
	return richtext.Excerpt(post.ContentHTML, excerptMaxLen)
}
