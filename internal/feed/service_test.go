package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ewhitmore/inkfeed/internal/enrich"
	"github.com/ewhitmore/inkfeed/internal/media"
	"github.com/ewhitmore/inkfeed/internal/models"
	"github.com/ewhitmore/inkfeed/internal/resolve"
	"github.com/ewhitmore/inkfeed/internal/testutil"
)

func newTestService(fake *testutil.FakeContent) *Service {
	logger := testutil.NullLogger()
	resolver := resolve.NewService(fake, logger)
	enricher := enrich.NewService(resolver, media.NewURLResolver(""), logger)
	return NewService(fake, enricher, logger)
}

// seedPosts installs n posts published one day apart, oldest first by id
func seedPosts(fake *testutil.FakeContent, n int) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		fake.Posts = append(fake.Posts, &models.RawPost{
			ID:               fmt.Sprintf("post-%02d", i),
			Title:            fmt.Sprintf("Post %d", i),
			Slug:             fmt.Sprintf("post-%02d", i),
			FirstPublishedAt: base.AddDate(0, 0, i),
		})
	}
}

func TestLoad_FirstPage(t *testing.T) {
	fake := testutil.NewFakeContent()
	seedPosts(fake, 25)
	service := newTestService(fake)

	service.Load(context.Background(), Options{PageSize: 10})

	snap := service.Snapshot()
	if snap.State != StateLoaded {
		t.Fatalf("State = %s, want %s", snap.State, StateLoaded)
	}
	if len(snap.Posts) != 10 {
		t.Fatalf("len(Posts) = %d, want 10", len(snap.Posts))
	}
	if snap.TotalCount != 25 {
		t.Errorf("TotalCount = %d, want 25", snap.TotalCount)
	}
	if snap.PageSize != 10 {
		t.Errorf("PageSize = %d, want 10", snap.PageSize)
	}
	if snap.NextCursor == "" {
		t.Error("expected a next-page cursor")
	}

	// default sort is newest first
	if snap.Posts[0].ID != "post-24" {
		t.Errorf("Posts[0].ID = %s, want post-24", snap.Posts[0].ID)
	}
	if snap.Posts[9].ID != "post-15" {
		t.Errorf("Posts[9].ID = %s, want post-15", snap.Posts[9].ID)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	fake := testutil.NewFakeContent()
	seedPosts(fake, 3)
	service := newTestService(fake)

	service.Load(context.Background(), Options{})

	snap := service.Snapshot()
	if snap.PageSize != defaultPageSize {
		t.Errorf("PageSize = %d, want %d", snap.PageSize, defaultPageSize)
	}
	if len(snap.Sort) != 1 || snap.Sort[0].FieldName != "firstPublishedAt" || snap.Sort[0].Order != models.SortDesc {
		t.Errorf("Sort = %+v, want firstPublishedAt DESC", snap.Sort)
	}
}

func TestLoadNextPage_Appends(t *testing.T) {
	fake := testutil.NewFakeContent()
	seedPosts(fake, 25)
	service := newTestService(fake)
	ctx := context.Background()

	service.Load(ctx, Options{PageSize: 10})
	service.LoadNextPage(ctx)

	snap := service.Snapshot()
	if len(snap.Posts) != 20 {
		t.Fatalf("len(Posts) = %d after second page, want 20", len(snap.Posts))
	}
	if snap.Posts[10].ID != "post-14" {
		t.Errorf("Posts[10].ID = %s, want post-14", snap.Posts[10].ID)
	}
	if snap.TotalCount != 25 {
		t.Errorf("TotalCount = %d, want 25 (captured at initial load)", snap.TotalCount)
	}

	service.LoadNextPage(ctx)
	snap = service.Snapshot()
	if len(snap.Posts) != 25 {
		t.Fatalf("len(Posts) = %d after third page, want 25", len(snap.Posts))
	}
	if snap.NextCursor != "" {
		t.Errorf("NextCursor = %q on last page, want empty", snap.NextCursor)
	}
}

func TestLoadNextPage_NoCursorIsNoop(t *testing.T) {
	fake := testutil.NewFakeContent()
	seedPosts(fake, 5)
	service := newTestService(fake)
	ctx := context.Background()

	service.Load(ctx, Options{PageSize: 10})
	queriesAfterLoad := fake.QueryCalls

	service.LoadNextPage(ctx)
	service.LoadNextPage(ctx)

	if fake.QueryCalls != queriesAfterLoad {
		t.Errorf("QueryCalls = %d, want %d (no cursor, no request)", fake.QueryCalls, queriesAfterLoad)
	}
	snap := service.Snapshot()
	if len(snap.Posts) != 5 {
		t.Errorf("len(Posts) = %d, want 5", len(snap.Posts))
	}
	if snap.State != StateLoaded {
		t.Errorf("State = %s, want %s", snap.State, StateLoaded)
	}
}

func TestLoadNextPage_FailureKeepsPosts(t *testing.T) {
	fake := testutil.NewFakeContent()
	seedPosts(fake, 25)
	service := newTestService(fake)
	ctx := context.Background()

	service.Load(ctx, Options{PageSize: 10})
	fake.QueryErr = fmt.Errorf("upstream timeout")

	service.LoadNextPage(ctx)

	snap := service.Snapshot()
	if snap.State != StateError {
		t.Errorf("State = %s, want %s", snap.State, StateError)
	}
	if snap.Err == "" {
		t.Error("expected Err to be set")
	}
	if len(snap.Posts) != 10 {
		t.Errorf("len(Posts) = %d after failed page load, want 10", len(snap.Posts))
	}
}

func TestLoad_FailureClearsPosts(t *testing.T) {
	fake := testutil.NewFakeContent()
	fake.QueryErr = fmt.Errorf("upstream down")
	service := newTestService(fake)

	service.Load(context.Background(), Options{})

	snap := service.Snapshot()
	if snap.State != StateError {
		t.Errorf("State = %s, want %s", snap.State, StateError)
	}
	if len(snap.Posts) != 0 {
		t.Errorf("len(Posts) = %d, want 0", len(snap.Posts))
	}
	if snap.TotalCount != 0 {
		t.Errorf("TotalCount = %d, want 0", snap.TotalCount)
	}
}

func TestLoad_CategorySlug(t *testing.T) {
	fake := testutil.NewFakeContent()
	seedPosts(fake, 6)
	fake.Categories["cat-1"] = &models.Category{ID: "cat-1", Label: "Travel", Slug: "travel"}
	fake.Posts[1].CategoryIDs = []string{"cat-1"}
	fake.Posts[4].CategoryIDs = []string{"cat-1", "cat-2"}
	service := newTestService(fake)

	service.Load(context.Background(), Options{CategorySlug: "travel"})

	snap := service.Snapshot()
	if snap.State != StateLoaded {
		t.Fatalf("State = %s, want %s", snap.State, StateLoaded)
	}
	if len(snap.Posts) != 2 {
		t.Fatalf("len(Posts) = %d, want 2", len(snap.Posts))
	}
	if snap.Posts[0].ID != "post-04" || snap.Posts[1].ID != "post-01" {
		t.Errorf("got posts %s, %s; want post-04, post-01", snap.Posts[0].ID, snap.Posts[1].ID)
	}
	if snap.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", snap.TotalCount)
	}
}

func TestLoad_UnknownCategorySlugServesEmptyFeed(t *testing.T) {
	fake := testutil.NewFakeContent()
	seedPosts(fake, 6)
	service := newTestService(fake)

	service.Load(context.Background(), Options{CategorySlug: "no-such-category"})

	snap := service.Snapshot()
	if snap.State != StateLoaded {
		t.Errorf("State = %s, want %s (slug miss is not an error)", snap.State, StateLoaded)
	}
	if len(snap.Posts) != 0 {
		t.Errorf("len(Posts) = %d, want 0", len(snap.Posts))
	}
	if snap.TotalCount != 0 {
		t.Errorf("TotalCount = %d, want 0", snap.TotalCount)
	}
	if fake.QueryCalls != 0 {
		t.Errorf("QueryCalls = %d, want 0", fake.QueryCalls)
	}
}

func TestLoad_IncludeAndExcludeIDs(t *testing.T) {
	fake := testutil.NewFakeContent()
	seedPosts(fake, 6)
	service := newTestService(fake)

	service.Load(context.Background(), Options{
		IncludeIDs: []string{"post-01", "post-02", "post-03"},
		ExcludeIDs: []string{"post-02"},
	})

	snap := service.Snapshot()
	if len(snap.Posts) != 2 {
		t.Fatalf("len(Posts) = %d, want 2", len(snap.Posts))
	}
	for _, post := range snap.Posts {
		if post.ID == "post-02" {
			t.Error("excluded post-02 appeared in the feed")
		}
	}
}

func TestSetSort_ReplacesAndReloads(t *testing.T) {
	fake := testutil.NewFakeContent()
	seedPosts(fake, 25)
	service := newTestService(fake)
	ctx := context.Background()

	service.Load(ctx, Options{PageSize: 10})
	service.LoadNextPage(ctx)

	service.SetSort(ctx, []models.SortField{{FieldName: "firstPublishedAt", Order: models.SortAsc}})

	snap := service.Snapshot()
	if snap.State != StateLoaded {
		t.Fatalf("State = %s, want %s", snap.State, StateLoaded)
	}
	if len(snap.Posts) != 10 {
		t.Fatalf("len(Posts) = %d after sort change, want 10 (back to first page)", len(snap.Posts))
	}
	if snap.Posts[0].ID != "post-00" {
		t.Errorf("Posts[0].ID = %s, want post-00 (oldest first)", snap.Posts[0].ID)
	}
	if snap.TotalCount != 25 {
		t.Errorf("TotalCount = %d, want 25 (not recomputed)", snap.TotalCount)
	}
}

func TestSetSort_FailureKeepsPosts(t *testing.T) {
	fake := testutil.NewFakeContent()
	seedPosts(fake, 25)
	service := newTestService(fake)
	ctx := context.Background()

	service.Load(ctx, Options{PageSize: 10})
	fake.QueryErr = fmt.Errorf("upstream timeout")

	service.SetSort(ctx, []models.SortField{{FieldName: "firstPublishedAt", Order: models.SortAsc}})

	snap := service.Snapshot()
	if snap.State != StateError {
		t.Errorf("State = %s, want %s", snap.State, StateError)
	}
	if len(snap.Posts) != 10 {
		t.Errorf("len(Posts) = %d, want 10 (previous list kept on failure)", len(snap.Posts))
	}
}

func TestLoad_CursorOption(t *testing.T) {
	fake := testutil.NewFakeContent()
	seedPosts(fake, 25)
	service := newTestService(fake)
	ctx := context.Background()

	service.Load(ctx, Options{PageSize: 10})
	cursor := service.Snapshot().NextCursor

	resumed := newTestService(fake)
	resumed.Load(ctx, Options{PageSize: 10, Cursor: cursor})

	snap := resumed.Snapshot()
	if len(snap.Posts) != 10 {
		t.Fatalf("len(Posts) = %d, want 10", len(snap.Posts))
	}
	if snap.Posts[0].ID != "post-14" {
		t.Errorf("Posts[0].ID = %s, want post-14", snap.Posts[0].ID)
	}
}

// A stale response must not overwrite state written by a newer load.
func TestGenerationToken_DiscardsStaleResponse(t *testing.T) {
	fake := testutil.NewFakeContent()
	seedPosts(fake, 25)
	service := newTestService(fake)
	ctx := context.Background()

	service.Load(ctx, Options{PageSize: 10})

	// Simulate a response that raced with a newer load: capture the
	// generation, let a fresh load bump it, then try to apply.
	service.mu.Lock()
	staleGen := service.generation
	service.mu.Unlock()

	service.SetSort(ctx, []models.SortField{{FieldName: "firstPublishedAt", Order: models.SortAsc}})

	service.applyFailure(staleGen, fmt.Errorf("late failure"), true)

	snap := service.Snapshot()
	if snap.State != StateLoaded {
		t.Errorf("State = %s, want %s (stale failure discarded)", snap.State, StateLoaded)
	}
	if len(snap.Posts) != 10 {
		t.Errorf("len(Posts) = %d, want 10", len(snap.Posts))
	}
	if snap.Err != "" {
		t.Errorf("Err = %q, want empty", snap.Err)
	}
}
