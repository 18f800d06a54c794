package contentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/ewhitmore/inkfeed/internal/cache"
	"github.com/ewhitmore/inkfeed/internal/models"
	"github.com/ewhitmore/inkfeed/internal/ratelimit"
)

const categorySlugCacheKeyPrefix = "category-slug:"

// HTTPConfig holds settings for the HTTP client
type HTTPConfig struct {
	BaseURL   string
	APIKey    string
	SiteID    string
	Timeout   time.Duration
	UserAgent string
}

// HTTPClient implements Client against the platform's JSON API
type HTTPClient struct {
	config  HTTPConfig
	host    string
	limiter *ratelimit.Limiter
	cache   cache.Cache
	client  *http.Client
}

// NewHTTPClient creates a client for the given platform endpoint.
// The cache, when non-nil, is used for category slug resolution only;
// entity-by-id lookups always go to the network.
func NewHTTPClient(cfg HTTPConfig, limiter *ratelimit.Limiter, c cache.Cache) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("content API base URL is required")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid content API base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "inkfeed/1.0"
	}

	return &HTTPClient{
		config:  cfg,
		host:    parsed.Host,
		limiter: limiter,
		cache:   c,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

func (h *HTTPClient) GetMember(ctx context.Context, id string) (*models.Member, error) {
	var envelope struct {
		Member models.Member `json:"member"`
	}
	if err := h.get(ctx, "/v2/members/"+url.PathEscape(id), &envelope); err != nil {
		return nil, err
	}
	return &envelope.Member, nil
}

func (h *HTTPClient) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var envelope struct {
		Category models.Category `json:"category"`
	}
	if err := h.get(ctx, "/v3/categories/"+url.PathEscape(id), &envelope); err != nil {
		return nil, err
	}
	return &envelope.Category, nil
}

func (h *HTTPClient) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	slug = NormalizeSlug(slug)
	if slug == "" {
		return nil, fmt.Errorf("empty category slug")
	}

	if category, ok := h.cachedCategory(slug); ok {
		return category, nil
	}

	var envelope struct {
		Category models.Category `json:"category"`
	}
	if err := h.get(ctx, "/v3/categories/slugs/"+url.PathEscape(slug), &envelope); err != nil {
		return nil, err
	}

	if h.cache != nil {
		h.cache.Set(categorySlugCacheKeyPrefix+slug, envelope.Category)
	}
	return &envelope.Category, nil
}

func (h *HTTPClient) GetTag(ctx context.Context, id string) (*models.Tag, error) {
	var envelope struct {
		Tag models.Tag `json:"tag"`
	}
	if err := h.get(ctx, "/v3/tags/"+url.PathEscape(id), &envelope); err != nil {
		return nil, err
	}
	return &envelope.Tag, nil
}

func (h *HTTPClient) QueryPosts(ctx context.Context, q PostQuery) (*PostPage, error) {
	body := struct {
		Filter       *Filter            `json:"filter,omitempty"`
		Sort         []models.SortField `json:"sort,omitempty"`
		CursorPaging struct {
			Limit  int    `json:"limit"`
			Cursor string `json:"cursor,omitempty"`
		} `json:"cursorPaging"`
	}{
		Sort: q.Sort,
	}
	if !q.Filter.IsZero() {
		body.Filter = &q.Filter
	}
	body.CursorPaging.Limit = q.Limit
	body.CursorPaging.Cursor = q.Cursor

	var envelope struct {
		Posts          []*models.RawPost `json:"posts"`
		PagingMetadata struct {
			Total   int `json:"total"`
			Cursors struct {
				Next string `json:"next,omitempty"`
			} `json:"cursors"`
		} `json:"pagingMetadata"`
	}

	if err := h.post(ctx, "/v3/posts/query", body, &envelope); err != nil {
		return nil, err
	}

	items := envelope.Posts
	if items == nil {
		items = []*models.RawPost{}
	}
	return &PostPage{
		Items:      items,
		NextCursor: envelope.PagingMetadata.Cursors.Next,
		TotalCount: envelope.PagingMetadata.Total,
	}, nil
}

func (h *HTTPClient) GetPostBySlug(ctx context.Context, slug string) (*models.RawPost, error) {
	var envelope struct {
		Post *models.RawPost `json:"post"`
	}
	err := h.get(ctx, "/v3/posts/slugs/"+url.PathEscape(NormalizeSlug(slug)), &envelope)
	if err != nil {
		// A missing post is not an error at this call site; the platform
		// models slug lookup as "maybe a post".
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return envelope.Post, nil
}

func (h *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	return h.do(ctx, http.MethodGet, path, nil, out)
}

func (h *HTTPClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	return h.do(ctx, http.MethodPost, path, data, out)
}

func (h *HTTPClient) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	if h.limiter != nil {
		h.limiter.Wait(h.host)
	}

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(h.config.BaseURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", h.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.config.APIKey != "" {
		req.Header.Set("Authorization", h.config.APIKey)
	}
	if h.config.SiteID != "" {
		req.Header.Set("X-Site-Id", h.config.SiteID)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("content API request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("content API returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode content API response: %w", err)
	}
	return nil
}

func (h *HTTPClient) cachedCategory(slug string) (*models.Category, bool) {
	if h.cache == nil {
		return nil, false
	}

	cached, ok := h.cache.Get(categorySlugCacheKeyPrefix + slug)
	if !ok || cached == nil {
		return nil, false
	}

	if category, ok := cached.(models.Category); ok {
		return &category, true
	}

	// Redis round-trips values through JSON; re-decode.
	raw, err := json.Marshal(cached)
	if err != nil {
		return nil, false
	}
	var decoded models.Category
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded.ID == "" {
		return nil, false
	}
	return &decoded, true
}

// NormalizeSlug canonicalizes a caller-supplied slug: NFKC-normalized,
// lowercased, surrounding whitespace removed.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(slug)))
}
