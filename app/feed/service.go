package feed

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/lysyi3m/newsdesk/app/cache"
	"github.com/lysyi3m/newsdesk/app/database"
	"github.com/lysyi3m/newsdesk/app/ranking"
)

const (
	DefaultFeedLimit    = 10
	DefaultSectionLimit = 30
	DefaultNewsLimit    = 10
	MaxLimit            = 100

	FeedTTL = time.Hour
)

// Service assembles ranked feeds and serves them through the cache.
type Service struct {
	repo   database.ArticleRepository
	cache  *cache.Gateway
	ranker *ranking.Ranker
	now    func() time.Time
}

func NewService(repo database.ArticleRepository, gateway *cache.Gateway, ranker *ranking.Ranker) *Service {
	return &Service{
		repo:   repo,
		cache:  gateway,
		ranker: ranker,
		now:    time.Now,
	}
}

// GetFeed returns the blended general feed. The boolean reports a cache hit.
func (s *Service) GetFeed(ctx context.Context, limit int) (*GeneralFeed, bool, error) {
	limit = clampLimit(limit, DefaultFeedLimit)
	key := cache.Key(cache.DomainArticles, "feed", "main", limit)

	var cached GeneralFeed
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	articles, err := s.repo.Find(ctx, database.ArticleFilter{ExcludeHeadline: true})
	if err != nil {
		return nil, false, fmt.Errorf("failed to load feed candidates: %w", err)
	}

	ranked, meta := s.ranker.General(toItems(articles), limit, s.now())
	feed := &GeneralFeed{
		Articles: attach(articles, ranked),
		Meta:     meta,
	}

	s.cache.Set(ctx, key, feed, FeedTTL)
	return feed, false, nil
}

// GetFeedByCategory returns the sectioned feed for one category. Category
// headlines are left out since they are served on their own.
func (s *Service) GetFeedByCategory(ctx context.Context, category string, limit int) (*SectionedFeed, bool, error) {
	filter := database.ArticleFilter{Category: category, ExcludeCategoryHeadline: true}
	return s.sectioned(ctx, "category", category, filter, limit, func(meta *ranking.SectionMeta) {
		meta.Category = category
	})
}

// GetFeedByTag returns the sectioned feed for articles whose tags contain tag.
func (s *Service) GetFeedByTag(ctx context.Context, tag string, limit int) (*SectionedFeed, bool, error) {
	filter := database.ArticleFilter{Tag: tag}
	return s.sectioned(ctx, "tag", tag, filter, limit, func(meta *ranking.SectionMeta) {
		meta.Tag = tag
	})
}

func (s *Service) sectioned(ctx context.Context, selector, value string, filter database.ArticleFilter,
	limit int, label func(*ranking.SectionMeta)) (*SectionedFeed, bool, error) {
	limit = clampLimit(limit, DefaultSectionLimit)
	key := cache.Key(cache.DomainArticles, "feed", selector, value, limit)

	var cached SectionedFeed
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	articles, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load %s feed candidates: %w", selector, err)
	}

	ranked, meta := s.ranker.Sectioned(toItems(articles), limit, s.now())
	label(&meta)

	feed := &SectionedFeed{
		Articles: attach(articles, ranked),
		Meta:     meta,
	}

	s.cache.Set(ctx, key, feed, FeedTTL)
	return feed, false, nil
}

// GetNewsByCategory pages through a category in plain relevance order.
func (s *Service) GetNewsByCategory(ctx context.Context, category string, page, limit int) (*NewsPage, bool, error) {
	page = orDefault(page, 1)
	limit = clampLimit(limit, DefaultNewsLimit)
	key := cache.Key(cache.DomainArticles, "news", "category", category, page, limit)

	var cached NewsPage
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	articles, err := s.repo.Find(ctx, database.ArticleFilter{Category: category, ExcludeHeadline: true})
	if err != nil {
		return nil, false, fmt.Errorf("failed to load category news: %w", err)
	}

	ranked, total := s.ranker.ByScore(toItems(articles), offset(page, limit), limit, s.now())
	news := &NewsPage{
		Articles: attach(articles, ranked),
		Meta: NewsMeta{
			Category:   category,
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: (total + limit - 1) / limit,
		},
	}

	s.cache.Set(ctx, key, news, FeedTTL)
	return news, false, nil
}

func toItems(articles []database.Article) []ranking.Item {
	items := make([]ranking.Item, len(articles))
	for i, a := range articles {
		items[i] = ranking.Item{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			Tags:        a.Tags,
			PublishedAt: a.PublishedAt,
		}
	}
	return items
}

func attach(articles []database.Article, ranked []ranking.ScoredItem) []FeedArticle {
	byID := make(map[string]*database.Article, len(articles))
	for i := range articles {
		byID[articles[i].ID] = &articles[i]
	}

	result := make([]FeedArticle, 0, len(ranked))
	for _, item := range ranked {
		article, ok := byID[item.ID]
		if !ok {
			continue
		}
		result = append(result, FeedArticle{
			Article: *article,
			Score:   item.Score,
			IsFresh: item.IsFresh,
		})
	}
	return result
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func clampLimit(limit, fallback int) int {
	return min(orDefault(limit, fallback), MaxLimit)
}

// offset saturates instead of overflowing for absurd page numbers.
func offset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}
