package syndication

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses an RSS, Atom or JSON feed and returns its title with the
// normalized items.
func (p *Parser) Run(data []byte) (string, []Item, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		items = append(items, normalizeItem(item))
	}

	return strings.TrimSpace(feed.Title), items, nil
}

func normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		GUID:        cmp.Or(item.GUID, item.Link),
		Title:       strings.TrimSpace(item.Title),
		Link:        item.Link,
		Description: strings.TrimSpace(item.Description),
		Content:     item.Content,
		Authors:     extractAuthors(item),
		Categories:  trimCategories(item.Categories),
		ImageURL:    imageURL(item),
	}

	switch {
	case item.PublishedParsed != nil:
		normalized.PublishedAt = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		normalized.PublishedAt = item.UpdatedParsed.UTC()
	}

	return normalized
}

// imageURL prefers the item image and falls back to the first image
// enclosure.
func imageURL(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}
	return ""
}

func extractAuthors(item *gofeed.Item) []string {
	var authors []string

	if len(item.Authors) > 0 {
		for _, author := range item.Authors {
			if author == nil {
				continue
			}
			if name := formatAuthor(author.Name, author.Email); name != "" {
				authors = append(authors, name)
			}
		}
	} else if item.Author != nil {
		if name := formatAuthor(item.Author.Name, item.Author.Email); name != "" {
			authors = append(authors, name)
		}
	}

	return authors
}

func formatAuthor(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s (%s)", email, name)
	case name != "":
		return name
	default:
		return email
	}
}

func trimCategories(categories []string) []string {
	trimmed := make([]string, 0, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			trimmed = append(trimmed, c)
		}
	}
	return trimmed
}
