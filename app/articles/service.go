package articles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/newsdesk/app/cache"
	"github.com/lysyi3m/newsdesk/app/database"
)

const (
	DefaultSourceName = "Ghanaian web"
	DefaultCreator    = "Admin"
	DefaultPageLimit  = 10
	MaxPageLimit      = 100

	BreakingWindow = 30 * time.Minute

	ArticleTTL  = time.Hour
	SimilarTTL  = 30 * time.Minute
	ListTTL     = 5 * 24 * time.Hour
	HeadlineTTL = 5 * 24 * time.Hour

	headlineSimilarLimit = 3
	similarLimit         = 5
)

// Service is the article write path plus the cached article reads. Every
// mutation ends by sweeping the cache families that could hold the article.
type Service struct {
	repo  database.ArticleRepository
	cache *cache.Gateway
	now   func() time.Time
	newID func() string
}

func NewService(repo database.ArticleRepository, gateway *cache.Gateway) *Service {
	return &Service{
		repo:  repo,
		cache: gateway,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*database.Article, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	content := strings.TrimSpace(input.Content)
	if title == "" || description == "" || content == "" || len(input.Category) == 0 || input.PublishedAt == nil {
		return nil, errMissingArticleFields
	}

	slug := DeriveSlug(title)
	if slug == "" {
		return nil, &ValidationError{Message: "title must contain at least one letter or digit"}
	}

	now := s.now()
	published := input.PublishedAt.UTC()

	article := &database.Article{
		ID:                 s.newID(),
		Slug:               slug,
		Title:              title,
		Description:        description,
		Body:               database.PlainBody(content),
		Categories:         []string(input.Category),
		Tags:               nonNil(input.Tags),
		IsBreaking:         input.IsBreaking,
		IsHeadline:         input.IsHeadline,
		IsCategoryHeadline: input.IsCategoryHeadline,
		Label:              strings.TrimSpace(input.Label),
		SourceName:         orDefault(input.SourceName, DefaultSourceName),
		MetaTitle:          DeriveMetaTitle(title),
		MetaDescription:    DeriveMetaDescription(title, description),
		Creator:            orDefault(input.Creator, DefaultCreator),
		ImageURL:           input.ImageURL,
		PublishedAt:        published,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if input.IsLive {
		article.IsLive = true
		article.Body = database.LiveBody(database.LiveUpdate{
			ID:          s.newID(),
			Title:       title,
			Description: description,
			Detail:      content,
			ImageURL:    orDefault(input.ContentImageURL, input.ImageURL),
			PublishedAt: published,
		})
	}

	if input.IsBreaking {
		expires := now.Add(BreakingWindow)
		article.BreakingExpiresAt = &expires
	}

	if err := s.repo.Insert(ctx, article); err != nil {
		return nil, err
	}

	slog.Info("Article created", "id", article.ID, "slug", article.Slug, "live", article.IsLive, "headline", article.IsHeadline)
	s.sweep(ctx)

	return article, nil
}

// Update applies a partial update to the article stored under slug. The slug
// itself never changes. Headline flags can be promoted here but not cleared;
// clearing happens when another article is promoted.
func (s *Service) Update(ctx context.Context, slug string, input UpdateInput) (*database.Article, error) {
	article, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, ErrNotFound
	}

	now := s.now()

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, &ValidationError{Message: "title must not be empty"}
		}
		article.Title = title
		article.MetaTitle = DeriveMetaTitle(title)
	}

	if input.Description != nil {
		article.Description = strings.TrimSpace(*input.Description)
		article.MetaDescription = DeriveMetaDescription(article.Title, article.Description)
	}

	if input.Content != nil {
		if article.Body.IsLive() {
			return nil, &ValidationError{Message: "live article content is changed through live updates"}
		}
		content := strings.TrimSpace(*input.Content)
		if content == "" {
			return nil, &ValidationError{Message: "content must not be empty"}
		}
		article.Body = database.PlainBody(content)
	}

	if input.Category != nil {
		if len(*input.Category) == 0 {
			return nil, &ValidationError{Message: "category must not be empty"}
		}
		article.Categories = []string(*input.Category)
	}
	if input.Tags != nil {
		article.Tags = nonNil(*input.Tags)
	}
	if input.Label != nil {
		article.Label = strings.TrimSpace(*input.Label)
	}
	if input.SourceName != nil {
		article.SourceName = orDefault(*input.SourceName, DefaultSourceName)
	}
	if input.Creator != nil {
		article.Creator = orDefault(*input.Creator, DefaultCreator)
	}
	if input.ImageURL != nil {
		article.ImageURL = *input.ImageURL
	}
	if input.PublishedAt != nil {
		article.PublishedAt = input.PublishedAt.UTC()
	}

	if input.IsHeadline != nil && *input.IsHeadline {
		article.IsHeadline = true
	}
	if input.IsCategoryHeadline != nil && *input.IsCategoryHeadline {
		article.IsCategoryHeadline = true
	}

	if input.IsBreaking != nil {
		switch {
		case *input.IsBreaking && !article.IsBreaking:
			expires := now.Add(BreakingWindow)
			article.BreakingExpiresAt = &expires
		case !*input.IsBreaking:
			article.BreakingExpiresAt = nil
		}
		article.IsBreaking = *input.IsBreaking
	}

	if input.IsLive != nil {
		article.IsLive = *input.IsLive
		if article.IsLive && !article.Body.IsLive() {
			article.Body = database.LiveBody(s.updateFromArticle(article))
		}
	}
	if input.WasLive != nil {
		article.WasLive = *input.WasLive
	}
	if article.WasLive {
		article.IsLive = false
	}

	article.UpdatedAt = now

	if err := s.repo.Update(ctx, article); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.sweep(ctx)
	return article, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if article == nil {
		return ErrNotFound
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}

	slog.Info("Article deleted", "id", article.ID, "slug", article.Slug)
	s.sweep(ctx)
	return nil
}

// PromoteHeadline makes id the single headline article.
func (s *Service) PromoteHeadline(ctx context.Context, id string) (*database.Article, error) {
	return s.promote(ctx, id, s.repo.PromoteHeadline)
}

// PromoteCategoryHeadline makes id the headline of each of its categories.
func (s *Service) PromoteCategoryHeadline(ctx context.Context, id string) (*database.Article, error) {
	return s.promote(ctx, id, s.repo.PromoteCategoryHeadline)
}

func (s *Service) promote(ctx context.Context, id string, fn func(context.Context, string) (bool, error)) (*database.Article, error) {
	found, err := fn(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, ErrNotFound
	}

	s.sweep(ctx)
	return article, nil
}

// AddLiveUpdate appends an update to a live article.
func (s *Service) AddLiveUpdate(ctx context.Context, id string, input LiveUpdateInput) (*database.LiveUpdate, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	detail := strings.TrimSpace(input.Detail)
	if title == "" || description == "" || detail == "" {
		return nil, errMissingUpdateFields
	}

	article, err := s.liveArticle(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	update := database.LiveUpdate{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		Detail:      detail,
		ImageURL:    input.ImageURL,
		PublishedAt: now,
		IsKey:       input.IsKey,
	}
	article.Body.Updates = append(article.Body.Updates, update)
	article.UpdatedAt = now

	if err := s.save(ctx, article); err != nil {
		return nil, err
	}
	return &update, nil
}

// MarkKeyEvent flags one update of a live article as a key event.
func (s *Service) MarkKeyEvent(ctx context.Context, id, updateID string) (*database.LiveUpdate, error) {
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, ErrNotFound
	}

	index := -1
	for i, u := range article.Body.Updates {
		if u.ID == updateID {
			index = i
			break
		}
	}
	if !article.Body.IsLive() || index < 0 {
		return nil, ErrUpdateNotFound
	}

	article.Body.Updates[index].IsKey = true
	article.UpdatedAt = s.now()

	if err := s.save(ctx, article); err != nil {
		return nil, err
	}

	update := article.Body.Updates[index]
	return &update, nil
}

// EndLive closes a live article. Its updates are kept.
func (s *Service) EndLive(ctx context.Context, id string) (*database.Article, error) {
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, ErrNotFound
	}

	article.IsLive = false
	article.WasLive = true
	article.UpdatedAt = s.now()

	if err := s.save(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// ExpireBreaking clears breaking flags whose window has passed.
func (s *Service) ExpireBreaking(ctx context.Context) (int64, error) {
	cleared, err := s.repo.ClearExpiredBreaking(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if cleared > 0 {
		s.sweep(ctx)
	}
	return cleared, nil
}

// IsKnown reports whether an article with the slug of title is stored.
func (s *Service) IsKnown(ctx context.Context, title string) (bool, error) {
	slug := DeriveSlug(title)
	if slug == "" {
		return false, nil
	}
	return s.repo.SlugExists(ctx, slug)
}

// Ingest stores syndicated items whose slug is not taken yet and returns how
// many were inserted.
func (s *Service) Ingest(ctx context.Context, items []IngestItem) (int, error) {
	inserted := 0
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		slug := DeriveSlug(title)
		if slug == "" || len(item.Categories) == 0 {
			continue
		}

		exists, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return inserted, err
		}
		if exists {
			continue
		}

		now := s.now()
		description := strings.TrimSpace(item.Description)
		published := item.PublishedAt.UTC()
		if item.PublishedAt.IsZero() {
			published = now
		}

		article := &database.Article{
			ID:              s.newID(),
			Slug:            slug,
			Title:           title,
			Description:     description,
			Body:            database.PlainBody(orDefault(item.Content, description)),
			Categories:      item.Categories,
			Tags:            nonNil(item.Tags),
			SourceName:      orDefault(item.SourceName, DefaultSourceName),
			MetaTitle:       DeriveMetaTitle(title),
			MetaDescription: DeriveMetaDescription(title, description),
			Creator:         orDefault(item.Creator, DefaultCreator),
			ImageURL:        item.ImageURL,
			PublishedAt:     published,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if err := s.repo.Insert(ctx, article); err != nil {
			// another writer took the slug between the check and the insert
			if errors.Is(err, ErrDuplicateSlug) {
				continue
			}
			return inserted, err
		}
		inserted++
	}

	if inserted > 0 {
		s.cache.InvalidateFamilies(ctx, cache.ArticleFamilies...)
	}
	return inserted, nil
}

// Get returns the article stored under slug, falling back to an id lookup.
func (s *Service) Get(ctx context.Context, slugOrID string) (*ArticleView, bool, error) {
	key := cache.Key(cache.DomainArticle, slugOrID)

	var cached ArticleView
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	article, err := s.repo.FindBySlug(ctx, slugOrID)
	if err != nil {
		return nil, false, err
	}
	if article == nil {
		if article, err = s.repo.FindByID(ctx, slugOrID); err != nil {
			return nil, false, err
		}
	}
	if article == nil {
		return nil, false, ErrNotFound
	}

	view := &ArticleView{
		Article:   *article,
		KeyEvents: article.Body.KeyEvents(),
	}

	s.cache.Set(ctx, key, view, ArticleTTL)
	return view, false, nil
}

// List pages through all articles, newest first.
func (s *Service) List(ctx context.Context, page, limit int) (*ArticlePage, bool, error) {
	page, limit = pagination(page, limit)
	key := cache.Key(cache.DomainArticles, "list", page, limit)
	return s.page(ctx, key, "", database.ArticleFilter{}, page, limit)
}

// ListByCategory pages through one category, newest first.
func (s *Service) ListByCategory(ctx context.Context, category string, page, limit int) (*ArticlePage, bool, error) {
	page, limit = pagination(page, limit)
	key := cache.Key(cache.DomainArticles, "category", category, page, limit)
	return s.page(ctx, key, category, database.ArticleFilter{Category: category}, page, limit)
}

func (s *Service) page(ctx context.Context, key, category string, filter database.ArticleFilter, page, limit int) (*ArticlePage, bool, error) {
	var cached ArticlePage
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, false, err
	}

	filter.Offset = pageOffset(page, limit)
	filter.Limit = limit
	articles, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, false, err
	}

	result := &ArticlePage{
		Category:    category,
		Results:     len(articles),
		Total:       total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
		Data:        ArticleList{Articles: articles},
	}

	s.cache.Set(ctx, key, result, ListTTL)
	return result, false, nil
}

// Headline returns the current headline with up to three non-headline
// articles sharing one of its tags.
func (s *Service) Headline(ctx context.Context) (*HeadlineView, bool, error) {
	key := cache.Key(cache.DomainHeadline, "main")

	var cached HeadlineView
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	found, err := s.repo.Find(ctx, database.ArticleFilter{OnlyHeadline: true, Limit: 1})
	if err != nil {
		return nil, false, err
	}
	if len(found) == 0 {
		return nil, false, ErrNoHeadline
	}
	headline := found[0]

	similar := []database.Article{}
	if len(headline.Tags) > 0 {
		similar, err = s.repo.Find(ctx, database.ArticleFilter{
			AnyTags:         headline.Tags,
			ExcludeHeadline: true,
			Limit:           headlineSimilarLimit,
		})
		if err != nil {
			return nil, false, err
		}
	}

	view := &HeadlineView{Headline: headline, SimilarArticles: similar}
	s.cache.Set(ctx, key, view, HeadlineTTL)
	return view, false, nil
}

// CategoryHeadline returns the headline of category with up to three other
// articles from the same category.
func (s *Service) CategoryHeadline(ctx context.Context, category string) (*CategoryHeadlineView, bool, error) {
	key := cache.Key(cache.DomainCategory, "headline", category)

	var cached CategoryHeadlineView
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	found, err := s.repo.Find(ctx, database.ArticleFilter{
		Category:             category,
		OnlyCategoryHeadline: true,
		Limit:                1,
	})
	if err != nil {
		return nil, false, err
	}
	if len(found) == 0 {
		return nil, false, ErrNoCategoryHeadline
	}
	headline := found[0]

	similar, err := s.repo.Find(ctx, database.ArticleFilter{
		Category:                category,
		ExcludeCategoryHeadline: true,
		ExcludeID:               headline.ID,
		Limit:                   headlineSimilarLimit,
	})
	if err != nil {
		return nil, false, err
	}

	view := &CategoryHeadlineView{CategoryHeadline: headline, SimilarArticles: similar}
	s.cache.Set(ctx, key, view, HeadlineTTL)
	return view, false, nil
}

// Similar returns up to five other articles sharing a tag with slug.
func (s *Service) Similar(ctx context.Context, slug string) (*ArticleList, bool, error) {
	key := cache.Key(cache.DomainArticle, "similar", slug)

	var cached ArticleList
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	article, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, false, err
	}
	if article == nil {
		return nil, false, ErrNotFound
	}

	similar := []database.Article{}
	if len(article.Tags) > 0 {
		similar, err = s.repo.Find(ctx, database.ArticleFilter{
			AnyTags:     article.Tags,
			ExcludeSlug: article.Slug,
			Limit:       similarLimit,
		})
		if err != nil {
			return nil, false, err
		}
	}

	list := &ArticleList{Articles: similar}
	s.cache.Set(ctx, key, list, SimilarTTL)
	return list, false, nil
}

func (s *Service) liveArticle(ctx context.Context, id string) (*database.Article, error) {
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, ErrNotFound
	}
	if !article.IsLive {
		return nil, ErrNotLive
	}
	return article, nil
}

func (s *Service) save(ctx context.Context, article *database.Article) error {
	if err := s.repo.Update(ctx, article); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to save article %s: %w", article.ID, err)
	}
	s.sweep(ctx)
	return nil
}

// updateFromArticle turns the plain body of an article going live into its
// first live update.
func (s *Service) updateFromArticle(article *database.Article) database.LiveUpdate {
	return database.LiveUpdate{
		ID:          s.newID(),
		Title:       article.Title,
		Description: article.Description,
		Detail:      article.Body.Text,
		ImageURL:    article.ImageURL,
		PublishedAt: article.PublishedAt,
	}
}

// sweep drops every family holding articles. Headline promotion and breaking
// expiry change flags on articles other than the one written, so the
// per-article keys go too.
func (s *Service) sweep(ctx context.Context) {
	s.cache.InvalidateFamilies(ctx, cache.ArticleFamilies...)
}

func pagination(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return page, min(limit, MaxPageLimit)
}

// pageOffset saturates instead of overflowing for absurd page numbers.
func pageOffset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
