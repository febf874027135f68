package tasks

import (
	"context"

	"github.com/lysyi3m/newsdesk/app/articles"
	"github.com/lysyi3m/newsdesk/app/syndication"
)

// TaskSchedulerInterface is what main needs from the scheduler.
//
//	scheduler := NewScheduler(articleService, sourceCache, httpClient, settings)
//	if err := scheduler.Start(); err != nil { ... }
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start() error
	Stop()
	EnqueueTask(task TaskInterface) error
	ImportNow(source *syndication.Source) (TaskInterface, error)
}

// ArticleWriter is the part of the article service the tasks drive.
type ArticleWriter interface {
	ExpireBreaking(ctx context.Context) (int64, error)
	IsKnown(ctx context.Context, title string) (bool, error)
	Ingest(ctx context.Context, items []articles.IngestItem) (int, error)
}

var _ ArticleWriter = (*articles.Service)(nil)
