package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/newsdesk/app/database"
)

func TestGenerator_Run(t *testing.T) {
	generator := NewGenerator(Channel{
		Title:   "Test Desk",
		BaseURL: "https://news.example.com/",
		Version: "1.2.3",
	})

	published := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	articles := []FeedArticle{
		{Article: database.Article{
			ID:          "id-1",
			Slug:        "first-story",
			Title:       "First & foremost",
			Description: "Short summary",
			Body:        database.PlainBody("<p>Full text</p>"),
			Categories:  []string{"Politics", "News"},
			Creator:     "Admin",
			ImageURL:    "https://cdn.example.com/a.jpg",
			PublishedAt: published,
		}, Score: 12},
		{Article: database.Article{
			ID:          "id-2",
			Slug:        "live-story",
			Title:       "Live coverage",
			Body:        database.LiveBody(database.LiveUpdate{ID: "u1", Title: "Update"}),
			PublishedAt: published.Add(time.Hour),
		}},
	}

	rss, err := generator.Run(articles)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(rss, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("RSS should contain XML declaration")
	}
	if !strings.Contains(rss, `href="https://news.example.com/feed/rss"`) {
		t.Error("RSS should contain self link built from base URL")
	}
	if !strings.Contains(rss, "<generator>Newsdesk/1.2.3</generator>") {
		t.Error("RSS should contain generator with version")
	}
	if !strings.Contains(rss, `type="image/jpeg"`) {
		t.Error("RSS should contain image enclosure")
	}
	if !strings.Contains(rss, published.Add(time.Hour).In(time.Local).Format(time.RFC1123Z)) {
		t.Error("lastBuildDate should use the newest item")
	}

	parsed, err := gofeed.NewParser().ParseString(rss)
	if err != nil {
		t.Fatalf("Generated RSS should parse, got: %v", err)
	}

	if parsed.Title != "Test Desk" {
		t.Errorf("Expected title 'Test Desk', got '%s'", parsed.Title)
	}
	if len(parsed.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(parsed.Items))
	}

	first := parsed.Items[0]
	if first.Title != "First & foremost" {
		t.Errorf("Expected escaped title to round trip, got '%s'", first.Title)
	}
	if first.Link != "https://news.example.com/articles/first-story" {
		t.Errorf("Unexpected link: %s", first.Link)
	}
	if first.GUID != "id-1" {
		t.Errorf("Expected GUID id-1, got %s", first.GUID)
	}
	if first.Content != "<p>Full text</p>" {
		t.Errorf("Expected content:encoded body, got '%s'", first.Content)
	}
	if len(first.Categories) != 2 {
		t.Errorf("Expected 2 categories, got %v", first.Categories)
	}

	second := parsed.Items[1]
	if second.Description != "No description available" {
		t.Errorf("Expected placeholder description, got '%s'", second.Description)
	}
	if second.Content != "" {
		t.Errorf("Live articles should not render content:encoded, got '%s'", second.Content)
	}
}

func TestGenerator_EmptyFeed(t *testing.T) {
	rss, err := NewGenerator(Channel{BaseURL: "http://localhost:8080"}).Run(nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	parsed, err := gofeed.NewParser().ParseString(rss)
	if err != nil {
		t.Fatalf("Generated RSS should parse, got: %v", err)
	}
	if parsed.Title != "Newsdesk" {
		t.Errorf("Expected default title, got '%s'", parsed.Title)
	}
	if len(parsed.Items) != 0 {
		t.Errorf("Expected no items, got %d", len(parsed.Items))
	}
}
