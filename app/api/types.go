package api

import (
	"context"

	"github.com/lysyi3m/newsdesk/app/articles"
	"github.com/lysyi3m/newsdesk/app/database"
	"github.com/lysyi3m/newsdesk/app/feed"
	"github.com/lysyi3m/newsdesk/app/syndication"
	"github.com/lysyi3m/newsdesk/app/tasks"
)

// FeedService serves the ranked feeds. Every read reports whether it was
// answered from the cache.
type FeedService interface {
	GetFeed(ctx context.Context, limit int) (*feed.GeneralFeed, bool, error)
	GetFeedByCategory(ctx context.Context, category string, limit int) (*feed.SectionedFeed, bool, error)
	GetFeedByTag(ctx context.Context, tag string, limit int) (*feed.SectionedFeed, bool, error)
	GetNewsByCategory(ctx context.Context, category string, page, limit int) (*feed.NewsPage, bool, error)
}

type ArticleService interface {
	Create(ctx context.Context, input articles.CreateInput) (*database.Article, error)
	Update(ctx context.Context, slug string, input articles.UpdateInput) (*database.Article, error)
	Delete(ctx context.Context, id string) error
	PromoteHeadline(ctx context.Context, id string) (*database.Article, error)
	PromoteCategoryHeadline(ctx context.Context, id string) (*database.Article, error)
	AddLiveUpdate(ctx context.Context, id string, input articles.LiveUpdateInput) (*database.LiveUpdate, error)
	MarkKeyEvent(ctx context.Context, id, updateID string) (*database.LiveUpdate, error)
	EndLive(ctx context.Context, id string) (*database.Article, error)

	Get(ctx context.Context, slugOrID string) (*articles.ArticleView, bool, error)
	List(ctx context.Context, page, limit int) (*articles.ArticlePage, bool, error)
	ListByCategory(ctx context.Context, category string, page, limit int) (*articles.ArticlePage, bool, error)
	Headline(ctx context.Context) (*articles.HeadlineView, bool, error)
	CategoryHeadline(ctx context.Context, category string) (*articles.CategoryHeadlineView, bool, error)
	Similar(ctx context.Context, slug string) (*articles.ArticleList, bool, error)
}

type GeneratorInterface interface {
	Run(articles []feed.FeedArticle) (string, error)
}

type HealthReporter interface {
	Health(ctx context.Context) map[string]any
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

var (
	_ FeedService        = (*feed.Service)(nil)
	_ ArticleService     = (*articles.Service)(nil)
	_ GeneratorInterface = (*feed.Generator)(nil)
)

type Handler struct {
	feeds     FeedService
	articles  ArticleService
	generator GeneratorInterface
	cache     HealthReporter
	db        Pinger
	sources   *syndication.SourceCache
	scheduler tasks.TaskSchedulerInterface
	version   string
}

type HandlerDeps struct {
	Feeds     FeedService
	Articles  ArticleService
	Generator GeneratorInterface
	Cache     HealthReporter
	DB        Pinger
	Sources   *syndication.SourceCache
	Scheduler tasks.TaskSchedulerInterface
	Version   string
}
