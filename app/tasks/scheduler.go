package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lysyi3m/newsdesk/app/syndication"
)

const (
	DefaultQueueSize        = 300
	DefaultTaskTimeout      = 5 * time.Minute
	DefaultBreakingSchedule = "@every 1m"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

var ErrQueueFull = errors.New("task queue is full")

type Settings struct {
	WorkerCount      int
	BreakingSchedule string
	UserAgent        string
}

type Scheduler struct {
	articles         ArticleWriter
	sources          *syndication.SourceCache
	httpClient       *http.Client
	parser           *syndication.Parser
	filterer         *syndication.Filterer
	extractor        *syndication.ContentExtractor
	userAgent        string
	breakingSchedule string
	workerCount      int
	taskTimeout      time.Duration
	cron             *cron.Cron
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface
}

func NewScheduler(articles ArticleWriter, sources *syndication.SourceCache, httpClient *http.Client, settings Settings) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if settings.WorkerCount <= 0 {
		settings.WorkerCount = 1
	}
	if settings.BreakingSchedule == "" {
		settings.BreakingSchedule = DefaultBreakingSchedule
	}

	return &Scheduler{
		articles:         articles,
		sources:          sources,
		httpClient:       httpClient,
		parser:           syndication.NewParser(),
		filterer:         syndication.NewFilterer(),
		extractor:        syndication.NewContentExtractor(),
		userAgent:        settings.UserAgent,
		breakingSchedule: settings.BreakingSchedule,
		workerCount:      settings.WorkerCount,
		taskTimeout:      DefaultTaskTimeout,
		cron:             cron.New(),
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, DefaultQueueSize),
	}
}

// Start registers the cron entries, launches the workers and queues one
// import per enabled source right away.
func (s *Scheduler) Start() error {
	if err := s.register(); err != nil {
		return err
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.cron.Start()
	s.enqueueStartupTasks()

	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// ImportNow queues an immediate import of source outside its schedule.
func (s *Scheduler) ImportNow(source *syndication.Source) (TaskInterface, error) {
	task := s.newImportTask(source)
	if err := s.EnqueueTask(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Scheduler) register() error {
	if _, err := s.cron.AddFunc(s.breakingSchedule, func() {
		s.enqueue(NewExpireBreakingTask(s.articles))
	}); err != nil {
		return fmt.Errorf("invalid breaking schedule %q: %w", s.breakingSchedule, err)
	}

	for _, source := range s.enabledSources() {
		if _, err := s.cron.AddFunc(source.Settings.Schedule, func() {
			s.enqueue(s.newImportTask(source))
		}); err != nil {
			return fmt.Errorf("invalid schedule for source %s: %w", source.Name, err)
		}
		slog.Debug("Source scheduled", "source", source.Name, "schedule", source.Settings.Schedule)
	}

	return nil
}

func (s *Scheduler) enqueueStartupTasks() {
	sources := s.enabledSources()
	if len(sources) == 0 {
		slog.Debug("No enabled sources found")
		return
	}

	for _, source := range sources {
		s.enqueue(s.newImportTask(source))
	}
}

func (s *Scheduler) enabledSources() []*syndication.Source {
	if s.sources == nil {
		return nil
	}
	return s.sources.GetEnabledSources()
}

func (s *Scheduler) newImportTask(source *syndication.Source) *ImportSourceTask {
	return NewImportSourceTask(source, s.httpClient, s.parser, s.filterer, s.extractor, s.articles, s.userAgent)
}

func (s *Scheduler) enqueue(task TaskInterface) {
	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue task", "type", string(task.GetType()), "target", task.GetTarget(), "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	delay := retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "target", task.GetTarget(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", delay.String())

	go func() {
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-time.After(delay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}
