package feed

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/lysyi3m/newsdesk/app/cache"
	"github.com/lysyi3m/newsdesk/app/database"
	"github.com/lysyi3m/newsdesk/app/ranking"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type mockRepo struct {
	database.ArticleRepository

	articles   []database.Article
	err        error
	findCalls  int
	lastFilter database.ArticleFilter
}

func (m *mockRepo) Find(ctx context.Context, filter database.ArticleFilter) ([]database.Article, error) {
	m.findCalls++
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	out := make([]database.Article, len(m.articles))
	copy(out, m.articles)
	return out, nil
}

func newTestService(t *testing.T, repo *mockRepo) (*Service, *cache.Gateway) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := cache.NewRedisStore(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	scorer, err := ranking.NewScorer(map[string]float64{"election": 4, "football": 2})
	if err != nil {
		t.Fatalf("Failed to build scorer: %v", err)
	}

	gateway := cache.NewGateway(store)
	service := NewService(repo, gateway, ranking.NewRanker(scorer))
	service.now = func() time.Time { return testNow }

	return service, gateway
}

func testArticles() []database.Article {
	return []database.Article{
		{ID: "1", Slug: "one", Title: "Football tonight", Categories: []string{"Sports"},
			Body: database.PlainBody("x"), PublishedAt: testNow.Add(-time.Hour)},
		{ID: "2", Slug: "two", Title: "Election results", Categories: []string{"Politics"},
			Body: database.PlainBody("y"), PublishedAt: testNow.Add(-2 * time.Hour)},
		{ID: "3", Slug: "three", Title: "Election recap", Categories: []string{"Politics"},
			Body: database.PlainBody("z"), PublishedAt: testNow.Add(-72 * time.Hour)},
	}
}

func TestService_GetFeed_ReadThrough(t *testing.T) {
	repo := &mockRepo{articles: testArticles()}
	service, _ := newTestService(t, repo)
	ctx := context.Background()

	first, cached, err := service.GetFeed(ctx, 0)
	if err != nil {
		t.Fatalf("GetFeed returned error: %v", err)
	}
	if cached {
		t.Error("Expected first call to miss the cache")
	}
	if !repo.lastFilter.ExcludeHeadline {
		t.Error("Expected general feed to exclude headlines")
	}
	if len(first.Articles) != 3 {
		t.Fatalf("Expected 3 articles, got %d", len(first.Articles))
	}
	if first.Meta.Total != 3 || first.Meta.FreshCount != 2 || first.Meta.LatestInTop != 2 {
		t.Errorf("Unexpected meta: %+v", first.Meta)
	}
	if first.Articles[0].ID != "1" || !first.Articles[0].IsFresh {
		t.Errorf("Expected freshest article first, got %s", first.Articles[0].ID)
	}

	second, cached, err := service.GetFeed(ctx, 0)
	if err != nil {
		t.Fatalf("GetFeed returned error: %v", err)
	}
	if !cached {
		t.Error("Expected second call to hit the cache")
	}
	if repo.findCalls != 1 {
		t.Errorf("Expected 1 store query, got %d", repo.findCalls)
	}
	if len(second.Articles) != len(first.Articles) || second.Articles[2].ID != first.Articles[2].ID {
		t.Errorf("Expected cached feed to match computed feed")
	}
	if second.Articles[0].Score != first.Articles[0].Score {
		t.Errorf("Expected cached score %v, got %v", first.Articles[0].Score, second.Articles[0].Score)
	}
}

func TestService_GetFeed_MissAfterInvalidation(t *testing.T) {
	repo := &mockRepo{articles: testArticles()}
	service, gateway := newTestService(t, repo)
	ctx := context.Background()

	if _, _, err := service.GetFeed(ctx, 10); err != nil {
		t.Fatalf("GetFeed returned error: %v", err)
	}
	if _, _, err := service.GetFeedByCategory(ctx, "Politics", 30); err != nil {
		t.Fatalf("GetFeedByCategory returned error: %v", err)
	}

	gateway.Invalidate(ctx, cache.FamilyArticles)

	_, cached, err := service.GetFeed(ctx, 10)
	if err != nil {
		t.Fatalf("GetFeed returned error: %v", err)
	}
	if cached {
		t.Error("Expected cache miss after invalidating articles family")
	}
	_, cached, _ = service.GetFeedByCategory(ctx, "Politics", 30)
	if cached {
		t.Error("Expected category feed cache miss after invalidation")
	}
	if repo.findCalls != 4 {
		t.Errorf("Expected 4 store queries, got %d", repo.findCalls)
	}
}

func TestService_GetFeedByCategory(t *testing.T) {
	repo := &mockRepo{articles: testArticles()}
	service, _ := newTestService(t, repo)
	ctx := context.Background()

	feed, cached, err := service.GetFeedByCategory(ctx, "Politics", 0)
	if err != nil {
		t.Fatalf("GetFeedByCategory returned error: %v", err)
	}
	if cached {
		t.Error("Expected cache miss")
	}
	if repo.lastFilter.Category != "Politics" || !repo.lastFilter.ExcludeCategoryHeadline {
		t.Errorf("Unexpected filter: %+v", repo.lastFilter)
	}
	if feed.Meta.Category != "Politics" || feed.Meta.Tag != "" {
		t.Errorf("Expected category meta Politics, got %+v", feed.Meta)
	}
	if feed.Meta.FreshnessThreshold != "36 hours" {
		t.Errorf("Expected freshness threshold '36 hours', got %s", feed.Meta.FreshnessThreshold)
	}
	if feed.Meta.Sections.MixedSection.Ratio != "45:55" {
		t.Errorf("Expected ratio 45:55, got %s", feed.Meta.Sections.MixedSection.Ratio)
	}

	// each spelling gets its own entry so meta echoes the request
	lower, cached, _ := service.GetFeedByCategory(ctx, "politics", 0)
	if cached {
		t.Error("Expected a differently cased category to miss the cache")
	}
	if lower.Meta.Category != "politics" {
		t.Errorf("Expected meta category politics, got %s", lower.Meta.Category)
	}
}

func TestService_HugeLimitsAreClamped(t *testing.T) {
	repo := &mockRepo{articles: testArticles()}
	service, _ := newTestService(t, repo)
	ctx := context.Background()

	feed, _, err := service.GetFeedByCategory(ctx, "Politics", math.MaxInt)
	if err != nil {
		t.Fatalf("GetFeedByCategory returned error: %v", err)
	}
	if len(feed.Articles) != 3 {
		t.Errorf("Expected 3 articles, got %d", len(feed.Articles))
	}

	news, _, err := service.GetNewsByCategory(ctx, "Politics", 1, math.MaxInt)
	if err != nil {
		t.Fatalf("GetNewsByCategory returned error: %v", err)
	}
	if news.Meta.Limit != MaxLimit || news.Meta.TotalPages != 1 {
		t.Errorf("Expected clamped limit and one page, got %+v", news.Meta)
	}

	far, _, err := service.GetNewsByCategory(ctx, "Politics", math.MaxInt, 10)
	if err != nil {
		t.Fatalf("GetNewsByCategory returned error: %v", err)
	}
	if len(far.Articles) != 0 || far.Meta.TotalPages != 1 {
		t.Errorf("Expected empty page past the end, got %+v", far.Meta)
	}
}

func TestService_GetFeedByTag(t *testing.T) {
	repo := &mockRepo{articles: testArticles()}
	service, _ := newTestService(t, repo)

	feed, _, err := service.GetFeedByTag(context.Background(), "elect", 5)
	if err != nil {
		t.Fatalf("GetFeedByTag returned error: %v", err)
	}
	if repo.lastFilter.Tag != "elect" {
		t.Errorf("Expected tag filter 'elect', got %q", repo.lastFilter.Tag)
	}
	if feed.Meta.Tag != "elect" || feed.Meta.Category != "" {
		t.Errorf("Expected tag meta, got %+v", feed.Meta)
	}
	if len(feed.Articles) != 3 {
		t.Errorf("Expected 3 articles, got %d", len(feed.Articles))
	}
}

func TestService_GetNewsByCategory(t *testing.T) {
	repo := &mockRepo{articles: testArticles()}
	service, _ := newTestService(t, repo)
	ctx := context.Background()

	page, _, err := service.GetNewsByCategory(ctx, "Politics", 1, 2)
	if err != nil {
		t.Fatalf("GetNewsByCategory returned error: %v", err)
	}
	if !repo.lastFilter.ExcludeHeadline || repo.lastFilter.Category != "Politics" {
		t.Errorf("Unexpected filter: %+v", repo.lastFilter)
	}
	if len(page.Articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(page.Articles))
	}
	// fresh election story outranks the stale one
	if page.Articles[0].ID != "2" {
		t.Errorf("Expected article 2 first, got %s", page.Articles[0].ID)
	}
	want := NewsMeta{Category: "Politics", Total: 3, Page: 1, Limit: 2, TotalPages: 2}
	if page.Meta != want {
		t.Errorf("Expected meta %+v, got %+v", want, page.Meta)
	}

	second, _, _ := service.GetNewsByCategory(ctx, "Politics", 2, 2)
	if len(second.Articles) != 1 {
		t.Errorf("Expected 1 article on page 2, got %d", len(second.Articles))
	}

	defaults, _, _ := service.GetNewsByCategory(ctx, "Politics", -1, 0)
	if defaults.Meta.Page != 1 || defaults.Meta.Limit != DefaultNewsLimit {
		t.Errorf("Expected default paging, got %+v", defaults.Meta)
	}
}

func TestService_StoreErrorIsSurfaced(t *testing.T) {
	repo := &mockRepo{err: errors.New("disk on fire")}
	service, _ := newTestService(t, repo)
	ctx := context.Background()

	if _, _, err := service.GetFeed(ctx, 10); err == nil {
		t.Error("Expected error from failing store")
	}

	repo.err = nil
	repo.articles = testArticles()
	_, cached, err := service.GetFeed(ctx, 10)
	if err != nil {
		t.Fatalf("GetFeed returned error: %v", err)
	}
	if cached {
		t.Error("A failed request must not populate the cache")
	}
}

func TestService_WorksWithoutCache(t *testing.T) {
	repo := &mockRepo{articles: testArticles()}
	scorer, _ := ranking.NewScorer(map[string]float64{"election": 4})
	service := NewService(repo, cache.NewGateway(nil), ranking.NewRanker(scorer))

	for i := 0; i < 2; i++ {
		_, cached, err := service.GetFeed(context.Background(), 10)
		if err != nil {
			t.Fatalf("GetFeed returned error: %v", err)
		}
		if cached {
			t.Error("Expected every call to miss without a cache")
		}
	}
	if repo.findCalls != 2 {
		t.Errorf("Expected 2 store queries, got %d", repo.findCalls)
	}
}
