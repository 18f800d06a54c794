package post

import (
	"context"
	"fmt"
	"time"

	"github.com/ewhitmore/inkfeed/internal/contentapi"
	"github.com/ewhitmore/inkfeed/internal/enrich"
	"github.com/ewhitmore/inkfeed/internal/logging"
	"github.com/ewhitmore/inkfeed/internal/models"
)

// Service serves single posts by slug along with their chronological
// neighbors for previous/next navigation.
type Service struct {
	client   contentapi.Client
	enricher *enrich.Service
	logger   *logging.Logger
}

func NewService(client contentapi.Client, enricher *enrich.Service, logger *logging.Logger) *Service {
	return &Service{
		client:   client,
		enricher: enricher,
		logger:   logger,
	}
}

// GetBySlug fetches a post plus its adjacent posts and enriches all
// three in one batch. Returns (nil, nil) when no post has the slug.
// A failed sibling lookup leaves that side nil rather than failing
// the whole request.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.PostResponse, error) {
	raw, err := s.client.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("fetching post %q: %w", slug, err)
	}
	if raw == nil {
		return nil, nil
	}

	older := s.lookupSibling(ctx, raw, olderSibling)
	newer := s.lookupSibling(ctx, raw, newerSibling)

	resolved := s.enricher.EnrichPosts(ctx, []*models.RawPost{raw, older, newer})

	return &models.PostResponse{
		Post:      resolved[0],
		OlderPost: resolved[1],
		NewerPost: resolved[2],
	}, nil
}

type siblingDirection int

const (
	olderSibling siblingDirection = iota
	newerSibling
)

func (d siblingDirection) String() string {
	if d == olderSibling {
		return "older"
	}
	return "newer"
}

// lookupSibling finds the post adjacent to ref in publish order. Posts
// sharing a publish date are disambiguated by id, so navigation never
// skips or revisits a post.
func (s *Service) lookupSibling(ctx context.Context, ref *models.RawPost, dir siblingDirection) *models.RawPost {
	page, err := s.client.QueryPosts(ctx, siblingQuery(ref, dir))
	if err != nil {
		s.logger.Warn("Sibling lookup failed", logging.WithFields(map[string]interface{}{
			"post":      ref.ID,
			"direction": dir.String(),
			"error":     err.Error(),
		}))
		return nil
	}
	if len(page.Items) == 0 {
		return nil
	}
	return page.Items[0]
}

// siblingQuery selects posts strictly before (or after) ref: published
// on an earlier (later) date, or on the same date with a smaller
// (larger) id. Sorted toward ref so the first item is the nearest.
func siblingQuery(ref *models.RawPost, dir siblingDirection) contentapi.PostQuery {
	date := ref.FirstPublishedAt.UTC().Format(time.RFC3339)

	var filter contentapi.Filter
	var order models.SortOrder
	if dir == olderSibling {
		filter = contentapi.Or(
			contentapi.Lt("firstPublishedAt", date),
			contentapi.And(
				contentapi.Eq("firstPublishedAt", date),
				contentapi.Lt("id", ref.ID),
			),
		)
		order = models.SortDesc
	} else {
		filter = contentapi.Or(
			contentapi.Gt("firstPublishedAt", date),
			contentapi.And(
				contentapi.Eq("firstPublishedAt", date),
				contentapi.Gt("id", ref.ID),
			),
		)
		order = models.SortAsc
	}

	return contentapi.PostQuery{
		Filter: filter,
		Sort: []models.SortField{
			{FieldName: "firstPublishedAt", Order: order},
			{FieldName: "id", Order: order},
		},
		Limit: 1,
	}
}
