package syndication

import (
	"time"
)

// Item is one normalized entry of a syndicated feed.
type Item struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	PublishedAt time.Time
	Authors     []string
	Categories  []string
	ImageURL    string

	IsFiltered   bool
	FilterReason string
}

// Source is one syndicated feed, loaded from <name>.yml in the sources
// directory.
type Source struct {
	Name       string         // derived from filename (without .yml extension)
	URL        string         `yaml:"url"`
	SourceName string         `yaml:"source_name"`
	Categories []string       `yaml:"categories"`
	Settings   SourceSettings `yaml:"settings"`
	Filters    []SourceFilter `yaml:"filters"`
}

type SourceSettings struct {
	Enabled        bool   `yaml:"enabled"`
	Schedule       string `yaml:"schedule"` // cron spec or descriptor
	MaxItems       int    `yaml:"max_items"`
	Timeout        int    `yaml:"timeout"` // seconds
	ExtractContent bool   `yaml:"extract_content"`
}

type SourceFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
