package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *ArticleStore {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return NewArticleStore(db)
}

func testArticle(id, slug string, published time.Time) *Article {
	return &Article{
		ID:          id,
		Slug:        slug,
		Title:       "Title " + id,
		Description: "Description " + id,
		Body:        PlainBody("Body " + id),
		Categories:  []string{"News"},
		Tags:        []string{},
		SourceName:  "Ghanaian web",
		Creator:     "Admin",
		PublishedAt: published,
		CreatedAt:   published,
		UpdatedAt:   published,
	}
}

func TestArticleStore_InsertAndFind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	article := testArticle("a1", "first-story", now)
	article.Tags = []string{"Politics", "Accra"}
	expires := now.Add(30 * time.Minute)
	article.IsBreaking = true
	article.BreakingExpiresAt = &expires

	if err := store.Insert(ctx, article); err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}

	got, err := store.FindBySlug(ctx, "first-story")
	if err != nil {
		t.Fatalf("FindBySlug returned error: %v", err)
	}
	if got == nil {
		t.Fatal("Expected article, got nil")
	}
	if got.ID != "a1" {
		t.Errorf("Expected id a1, got %s", got.ID)
	}
	if got.Body.Kind != BodyPlain || got.Body.Text != "Body a1" {
		t.Errorf("Expected plain body 'Body a1', got %+v", got.Body)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "Politics" {
		t.Errorf("Expected tags to round trip, got %v", got.Tags)
	}
	if !got.PublishedAt.Equal(now) {
		t.Errorf("Expected published_at %v, got %v", now, got.PublishedAt)
	}
	if got.BreakingExpiresAt == nil || !got.BreakingExpiresAt.Equal(expires) {
		t.Errorf("Expected breakingExpiresAt %v, got %v", expires, got.BreakingExpiresAt)
	}

	missing, err := store.FindByID(ctx, "missing")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for missing article, got %+v", missing)
	}
}

func TestArticleStore_DuplicateSlug(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Insert(ctx, testArticle("a1", "same", now)); err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}

	err := store.Insert(ctx, testArticle("a2", "same", now))
	if !errors.Is(err, ErrDuplicateSlug) {
		t.Errorf("Expected ErrDuplicateSlug, got %v", err)
	}

	exists, err := store.SlugExists(ctx, "same")
	if err != nil {
		t.Fatalf("SlugExists returned error: %v", err)
	}
	if !exists {
		t.Error("Expected slug to exist")
	}
}

func TestArticleStore_LiveBodyRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	article := testArticle("live", "live-story", now)
	article.IsLive = true
	article.Body = LiveBody(
		LiveUpdate{ID: "u1", Title: "Polls open", PublishedAt: now},
		LiveUpdate{ID: "u2", Title: "Results", PublishedAt: now.Add(time.Hour), IsKey: true},
	)

	if err := store.Insert(ctx, article); err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}

	got, err := store.FindByID(ctx, "live")
	if err != nil || got == nil {
		t.Fatalf("Expected article, got %v (err %v)", got, err)
	}
	if !got.Body.IsLive() {
		t.Fatalf("Expected live body, got %s", got.Body.Kind)
	}
	if len(got.Body.Updates) != 2 {
		t.Fatalf("Expected 2 updates, got %d", len(got.Body.Updates))
	}
	if keys := got.Body.KeyEvents(); len(keys) != 1 || keys[0].ID != "u2" {
		t.Errorf("Expected key event u2, got %v", keys)
	}
}

func TestArticleStore_FindFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	sports := testArticle("s1", "sports", base)
	sports.Categories = []string{"Sports"}
	sports.Tags = []string{"Black Stars", "Football"}

	politics := testArticle("p1", "politics", base.Add(time.Hour))
	politics.Categories = []string{"Politics", "News"}
	politics.Tags = []string{"Election"}
	politics.IsHeadline = true

	older := testArticle("p2", "politics-old", base.Add(-time.Hour))
	older.Categories = []string{"politics"}
	older.Tags = []string{"election"}
	older.IsCategoryHeadline = true

	for _, a := range []*Article{sports, politics, older} {
		if err := store.Insert(ctx, a); err != nil {
			t.Fatalf("Failed to insert %s: %v", a.ID, err)
		}
	}

	tests := []struct {
		name   string
		filter ArticleFilter
		want   []string
	}{
		{"all newest first", ArticleFilter{}, []string{"p1", "s1", "p2"}},
		{"category case-insensitive", ArticleFilter{Category: "POLITICS"}, []string{"p1", "p2"}},
		{"category excludes category headline", ArticleFilter{Category: "politics", ExcludeCategoryHeadline: true}, []string{"p1"}},
		{"tag substring", ArticleFilter{Tag: "star"}, []string{"s1"}},
		{"exclude headline", ArticleFilter{ExcludeHeadline: true}, []string{"s1", "p2"}},
		{"only headline", ArticleFilter{OnlyHeadline: true}, []string{"p1"}},
		{"any tags exact", ArticleFilter{AnyTags: []string{"Election"}}, []string{"p1"}},
		{"exclude slug", ArticleFilter{ExcludeSlug: "sports"}, []string{"p1", "p2"}},
		{"limit and offset", ArticleFilter{Offset: 1, Limit: 1}, []string{"s1"}},
		{"offset only", ArticleFilter{Offset: 2}, []string{"p2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Find(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Find returned error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d articles, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}

	count, err := store.Count(ctx, ArticleFilter{Category: "politics", Limit: 1})
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected count 2 ignoring limit, got %d", count)
	}
}

func TestArticleStore_UnicodeCaseFolding(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	lead := testArticle("e1", "economy-lead", base)
	lead.Categories = []string{"Économie"}
	lead.Tags = []string{"Énergie Solaire"}
	lead.IsCategoryHeadline = true

	other := testArticle("e2", "economy-other", base.Add(-time.Hour))
	other.Categories = []string{"économie"}

	for _, a := range []*Article{lead, other} {
		if err := store.Insert(ctx, a); err != nil {
			t.Fatalf("Failed to insert %s: %v", a.ID, err)
		}
	}

	for _, category := range []string{"économie", "Économie", "ÉCONOMIE"} {
		got, err := store.Find(ctx, ArticleFilter{Category: category})
		if err != nil {
			t.Fatalf("Find returned error: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("Category %q: expected 2 articles, got %d", category, len(got))
		}
	}

	got, err := store.Find(ctx, ArticleFilter{Tag: "énergie"})
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "e1" {
		t.Errorf("Expected tag match on e1, got %v", got)
	}

	if _, err := store.PromoteCategoryHeadline(ctx, "e2"); err != nil {
		t.Fatalf("PromoteCategoryHeadline failed: %v", err)
	}
	demoted, _ := store.FindByID(ctx, "e1")
	if demoted.IsCategoryHeadline {
		t.Error("Expected headline of the same category in another case to be demoted")
	}
}

func TestArticleStore_HeadlineIsExclusive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := testArticle("a1", "one", now)
	first.IsHeadline = true
	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	second := testArticle("a2", "two", now)
	second.IsHeadline = true
	if err := store.Insert(ctx, second); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	headlines, err := store.Find(ctx, ArticleFilter{OnlyHeadline: true})
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if len(headlines) != 1 || headlines[0].ID != "a2" {
		t.Fatalf("Expected only a2 as headline, got %v", headlines)
	}

	found, err := store.PromoteHeadline(ctx, "a1")
	if err != nil || !found {
		t.Fatalf("Expected promotion to succeed, got found=%v err=%v", found, err)
	}

	headlines, _ = store.Find(ctx, ArticleFilter{OnlyHeadline: true})
	if len(headlines) != 1 || headlines[0].ID != "a1" {
		t.Errorf("Expected only a1 as headline, got %v", headlines)
	}

	found, err = store.PromoteHeadline(ctx, "missing")
	if err != nil {
		t.Fatalf("PromoteHeadline returned error: %v", err)
	}
	if found {
		t.Error("Expected promotion of missing article to report not found")
	}

	// a failed promotion must not clear the current headline
	headlines, _ = store.Find(ctx, ArticleFilter{OnlyHeadline: true})
	if len(headlines) != 1 || headlines[0].ID != "a1" {
		t.Errorf("Expected a1 to remain headline, got %v", headlines)
	}
}

func TestArticleStore_PromoteCategoryHeadline(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	sports := testArticle("s1", "sports", now)
	sports.Categories = []string{"Sports"}
	sports.IsCategoryHeadline = true

	politics := testArticle("p1", "politics", now)
	politics.Categories = []string{"Politics"}
	politics.IsCategoryHeadline = true

	other := testArticle("s2", "sports-two", now)
	other.Categories = []string{"Sports"}

	for _, a := range []*Article{sports, politics, other} {
		if err := store.Insert(ctx, a); err != nil {
			t.Fatalf("Failed to insert %s: %v", a.ID, err)
		}
	}

	found, err := store.PromoteCategoryHeadline(ctx, "s2")
	if err != nil || !found {
		t.Fatalf("Expected promotion to succeed, got found=%v err=%v", found, err)
	}

	got, _ := store.FindByID(ctx, "s1")
	if got.IsCategoryHeadline {
		t.Error("Expected s1 to lose category headline")
	}
	got, _ = store.FindByID(ctx, "p1")
	if !got.IsCategoryHeadline {
		t.Error("Expected p1 to keep category headline in another category")
	}
	got, _ = store.FindByID(ctx, "s2")
	if !got.IsCategoryHeadline {
		t.Error("Expected s2 to be category headline")
	}
}

func TestArticleStore_UpdateAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	article := testArticle("a1", "story", now)
	if err := store.Insert(ctx, article); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	article.Title = "Changed"
	if err := store.Update(ctx, article); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	got, _ := store.FindByID(ctx, "a1")
	if got.Title != "Changed" {
		t.Errorf("Expected title Changed, got %s", got.Title)
	}

	missing := testArticle("nope", "nope", now)
	if err := store.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	deleted, err := store.Delete(ctx, "a1")
	if err != nil || !deleted {
		t.Fatalf("Expected delete to succeed, got deleted=%v err=%v", deleted, err)
	}
	deleted, err = store.Delete(ctx, "a1")
	if err != nil || deleted {
		t.Errorf("Expected second delete to report false, got deleted=%v err=%v", deleted, err)
	}
}

func TestArticleStore_ClearExpiredBreaking(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	expired := testArticle("old", "old", now)
	expiredAt := now.Add(-time.Minute)
	expired.IsBreaking = true
	expired.BreakingExpiresAt = &expiredAt

	active := testArticle("new", "new", now)
	activeAt := now.Add(10 * time.Minute)
	active.IsBreaking = true
	active.BreakingExpiresAt = &activeAt

	for _, a := range []*Article{expired, active} {
		if err := store.Insert(ctx, a); err != nil {
			t.Fatalf("Failed to insert %s: %v", a.ID, err)
		}
	}

	cleared, err := store.ClearExpiredBreaking(ctx, now)
	if err != nil {
		t.Fatalf("ClearExpiredBreaking returned error: %v", err)
	}
	if cleared != 1 {
		t.Errorf("Expected 1 cleared article, got %d", cleared)
	}

	got, _ := store.FindByID(ctx, "old")
	if got.IsBreaking || got.BreakingExpiresAt != nil {
		t.Errorf("Expected old to lose breaking flag, got %+v", got)
	}
	got, _ = store.FindByID(ctx, "new")
	if !got.IsBreaking {
		t.Error("Expected new to stay breaking")
	}
}
