package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type ExpireBreakingTask struct {
	Task
	articles ArticleWriter
}

func NewExpireBreakingTask(writer ArticleWriter) *ExpireBreakingTask {
	return &ExpireBreakingTask{
		Task:     NewTask(TaskTypeExpireBreaking, "articles"),
		articles: writer,
	}
}

func (t *ExpireBreakingTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cleared, err := t.articles.ExpireBreaking(ctx)
	if err != nil {
		return fmt.Errorf("failed to expire breaking articles: %w", err)
	}

	if cleared > 0 {
		slog.Info("Task completed",
			"type", t.GetType(),
			"duration", t.GetDuration(),
			"cleared", cleared)
	}

	return nil
}
