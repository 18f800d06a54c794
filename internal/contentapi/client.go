package contentapi

import (
	"context"
	"errors"

	"github.com/ewhitmore/inkfeed/internal/models"
)

// ErrNotFound is returned by the get-by-id calls when the entity does
// not exist upstream.
var ErrNotFound = errors.New("entity not found")

// Client is the read surface of the hosted content platform. All calls
// hit the remote API; there is no local store behind this interface.
type Client interface {
	GetMember(ctx context.Context, id string) (*models.Member, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	GetTag(ctx context.Context, id string) (*models.Tag, error)
	QueryPosts(ctx context.Context, q PostQuery) (*PostPage, error)
	GetPostBySlug(ctx context.Context, slug string) (*models.RawPost, error)
}
