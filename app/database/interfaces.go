package database

import (
	"context"
	"errors"
	"time"
)

var ErrDuplicateSlug = errors.New("slug must be unique")

// ArticleRepository is the content store used by the feed and article
// services. Lookups return (nil, nil) when nothing matches.
type ArticleRepository interface {
	Find(ctx context.Context, filter ArticleFilter) ([]Article, error)
	Count(ctx context.Context, filter ArticleFilter) (int, error)
	FindByID(ctx context.Context, id string) (*Article, error)
	FindBySlug(ctx context.Context, slug string) (*Article, error)
	SlugExists(ctx context.Context, slug string) (bool, error)

	Insert(ctx context.Context, article *Article) error
	Update(ctx context.Context, article *Article) error
	Delete(ctx context.Context, id string) (bool, error)

	PromoteHeadline(ctx context.Context, id string) (bool, error)
	PromoteCategoryHeadline(ctx context.Context, id string) (bool, error)
	ClearExpiredBreaking(ctx context.Context, now time.Time) (int64, error)
}
