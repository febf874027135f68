package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lysyi3m/newsdesk/app/articles"
	"github.com/lysyi3m/newsdesk/app/syndication"
)

type ImportSourceTask struct {
	Task
	Source     *syndication.Source
	httpClient *http.Client
	parser     *syndication.Parser
	filterer   *syndication.Filterer
	extractor  *syndication.ContentExtractor
	articles   ArticleWriter
	userAgent  string
}

func NewImportSourceTask(source *syndication.Source, httpClient *http.Client, parser *syndication.Parser, filterer *syndication.Filterer, extractor *syndication.ContentExtractor, writer ArticleWriter, userAgent string) *ImportSourceTask {
	return &ImportSourceTask{
		Task:       NewTask(TaskTypeImportSource, source.Name),
		Source:     source,
		httpClient: httpClient,
		parser:     parser,
		filterer:   filterer,
		extractor:  extractor,
		articles:   writer,
		userAgent:  userAgent,
	}
}

func (t *ImportSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Source.Settings.Enabled {
		slog.Debug("Source disabled, skipping", "source", t.Target)
		return nil
	}

	data, err := t.fetch(ctx, t.Source.URL, "")
	if err != nil {
		return fmt.Errorf("failed to fetch source: %w", err)
	}

	feedTitle, items, err := t.parser.Run(data)
	if err != nil {
		return fmt.Errorf("failed to parse source: %w", err)
	}

	known := 0
	fresh := make([]syndication.Item, 0, len(items))
	for _, item := range items {
		exists, err := t.articles.IsKnown(ctx, item.Title)
		if err != nil {
			return fmt.Errorf("failed to check for known articles: %w", err)
		}
		if exists {
			known++
			continue
		}
		fresh = append(fresh, item)
	}

	fresh = t.filterer.Run(fresh, t.Source.Filters)
	filtered := 0
	for _, item := range fresh {
		if item.IsFiltered {
			filtered++
		}
	}

	candidates := syndication.ToIngestItems(t.Source, feedTitle, fresh)

	extracted := 0
	if t.Source.Settings.ExtractContent {
		extracted = t.extractContent(ctx, fresh, candidates)
	}

	inserted, err := t.articles.Ingest(ctx, candidates)
	if err != nil {
		return fmt.Errorf("failed to store articles: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"source", t.Target,
		"duration", t.GetDuration(),
		"total", len(items),
		"known", known,
		"filtered", filtered,
		"extracted", extracted,
		"new", inserted)

	return nil
}

// extractContent replaces candidate bodies with the readable text of their
// linked page. candidates follow the unfiltered entries of items in order.
// Failures keep the feed provided body.
func (t *ImportSourceTask) extractContent(ctx context.Context, items []syndication.Item, candidates []articles.IngestItem) int {
	extracted := 0
	i := 0
	for _, item := range items {
		if item.IsFiltered {
			continue
		}
		if i >= len(candidates) {
			break
		}
		candidate := &candidates[i]
		i++

		if item.Link == "" {
			continue
		}

		select {
		case <-ctx.Done():
			return extracted
		default:
		}

		data, err := t.fetch(ctx, item.Link, "text/html")
		if err != nil {
			slog.Warn("Failed to fetch article page", "source", t.Target, "url", item.Link, "error", err)
			continue
		}

		content, err := t.extractor.Run(data, item.Link)
		if err != nil {
			slog.Warn("Failed to extract content", "source", t.Target, "url", item.Link, "error", err)
			continue
		}

		candidate.Content = content
		extracted++
	}
	return extracted
}

func (t *ImportSourceTask) fetch(ctx context.Context, url, wantType string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.Source.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if wantType != "" {
		contentType := resp.Header.Get("Content-Type")
		if !strings.Contains(strings.ToLower(contentType), wantType) {
			return nil, fmt.Errorf("unexpected content type: %s", contentType)
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
