package resolve

import (
	"context"
	"testing"
	"time"

	"github.com/ewhitmore/inkfeed/internal/models"
	"github.com/ewhitmore/inkfeed/internal/testutil"
)

func newTestService(fake *testutil.FakeContent) *Service {
	return NewService(fake, testutil.NullLogger())
}

func TestResolve_DeduplicatesFetches(t *testing.T) {
	fake := testutil.NewFakeContent()
	fake.Members["m1"] = &models.Member{ID: "m1", Nickname: "Ada"}
	fake.Categories["c1"] = &models.Category{ID: "c1", Label: "Travel"}
	fake.Tags["t1"] = &models.Tag{ID: "t1", Label: "gear"}

	// Ten posts all referencing the same member, category, and tag
	posts := make([]*models.RawPost, 10)
	for i := range posts {
		posts[i] = &models.RawPost{
			ID:          "p" + string(rune('0'+i)),
			MemberID:    "m1",
			CategoryIDs: []string{"c1"},
			TagIDs:      []string{"t1"},
		}
	}

	svc := newTestService(fake)
	lookups := svc.Resolve(context.Background(), posts)

	if fake.MemberCalls["m1"] != 1 {
		t.Errorf("member m1 fetched %d times, want 1", fake.MemberCalls["m1"])
	}
	if fake.CategoryCalls["c1"] != 1 {
		t.Errorf("category c1 fetched %d times, want 1", fake.CategoryCalls["c1"])
	}
	if fake.TagCalls["t1"] != 1 {
		t.Errorf("tag t1 fetched %d times, want 1", fake.TagCalls["t1"])
	}

	if lookups.Members["m1"] == nil || lookups.Members["m1"].Nickname != "Ada" {
		t.Errorf("member lookup = %+v, want Ada", lookups.Members["m1"])
	}
}

func TestResolve_FailedFetchRecordedAsNil(t *testing.T) {
	fake := testutil.NewFakeContent()
	fake.Members["m1"] = &models.Member{ID: "m1"}
	fake.Categories["c1"] = &models.Category{ID: "c1"}
	fake.Categories["c2"] = &models.Category{ID: "c2"}
	fake.FailCategories["c1"] = true
	fake.Tags["t1"] = &models.Tag{ID: "t1"}

	posts := []*models.RawPost{
		{ID: "p1", MemberID: "m1", CategoryIDs: []string{"c1", "c2"}, TagIDs: []string{"t1"}},
	}

	svc := newTestService(fake)
	lookups := svc.Resolve(context.Background(), posts)

	// Failed id must still have an entry, mapped to nil
	if got, ok := lookups.Categories["c1"]; !ok {
		t.Error("failed category c1 should still have a map entry")
	} else if got != nil {
		t.Errorf("failed category c1 = %+v, want nil", got)
	}

	// The failure must not affect the other ids or kinds
	if lookups.Categories["c2"] == nil {
		t.Error("category c2 should resolve despite c1 failing")
	}
	if lookups.Members["m1"] == nil {
		t.Error("member m1 should resolve despite category failure")
	}
	if lookups.Tags["t1"] == nil {
		t.Error("tag t1 should resolve despite category failure")
	}
}

func TestResolve_NotFoundRecordedAsNil(t *testing.T) {
	fake := testutil.NewFakeContent()

	posts := []*models.RawPost{
		{ID: "p1", MemberID: "ghost"},
	}

	svc := newTestService(fake)
	lookups := svc.Resolve(context.Background(), posts)

	if got, ok := lookups.Members["ghost"]; !ok || got != nil {
		t.Errorf("missing member should map to nil entry, got %v (present=%v)", got, ok)
	}
}

func TestResolve_NilAndOwnerlessPostsContributeNothing(t *testing.T) {
	fake := testutil.NewFakeContent()
	fake.Members["m1"] = &models.Member{ID: "m1"}

	posts := []*models.RawPost{
		nil,
		{ID: "p1"}, // no owner, no categories, no tags
		{ID: "p2", MemberID: "m1"},
	}

	svc := newTestService(fake)
	lookups := svc.Resolve(context.Background(), posts)

	if len(lookups.Members) != 1 {
		t.Errorf("member map size = %d, want 1", len(lookups.Members))
	}
	if len(fake.MemberCalls) != 1 {
		t.Errorf("member fetches for %d distinct ids, want 1", len(fake.MemberCalls))
	}
	if len(lookups.Categories) != 0 || len(lookups.Tags) != 0 {
		t.Error("no category or tag ids were referenced, maps should be empty")
	}
}

func TestResolve_EmptyBatch(t *testing.T) {
	fake := testutil.NewFakeContent()
	svc := newTestService(fake)

	lookups := svc.Resolve(context.Background(), nil)

	if lookups == nil {
		t.Fatal("Resolve() returned nil lookups")
	}
	if len(lookups.Members)+len(lookups.Categories)+len(lookups.Tags) != 0 {
		t.Error("empty batch should resolve to empty maps")
	}
	if fake.QueryCalls != 0 {
		t.Error("Resolve() must not issue post queries")
	}
}

func TestResolve_ManyUniqueIDsAllFetched(t *testing.T) {
	fake := testutil.NewFakeContent()
	posts := make([]*models.RawPost, 0, 20)
	for i := 0; i < 20; i++ {
		id := "m" + string(rune('a'+i))
		fake.Members[id] = &models.Member{ID: id}
		posts = append(posts, &models.RawPost{
			ID:               "p" + string(rune('a'+i)),
			MemberID:         id,
			FirstPublishedAt: time.Now(),
		})
	}

	svc := newTestService(fake)
	lookups := svc.Resolve(context.Background(), posts)

	if len(lookups.Members) != 20 {
		t.Fatalf("resolved %d members, want 20", len(lookups.Members))
	}
	for id, count := range fake.MemberCalls {
		if count != 1 {
			t.Errorf("member %s fetched %d times, want 1", id, count)
		}
	}
}
