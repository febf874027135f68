package syndication

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSchedule = "@hourly"
	DefaultMaxItems = 100
	DefaultTimeout  = 30
)

var validFilterFields = map[string]bool{
	"title":       true,
	"description": true,
	"content":     true,
	"authors":     true,
	"link":        true,
	"categories":  true,
}

type SourceCache struct {
	sourcesDir string
	cache      map[string]*Source
	mu         sync.RWMutex
}

func NewSourceCache(sourcesDir string) *SourceCache {
	return &SourceCache{
		sourcesDir: sourcesDir,
		cache:      make(map[string]*Source),
	}
}

// Run loads every *.yml file of the sources directory. A missing directory
// means no sources.
func (sc *SourceCache) Run() error {
	if _, err := os.Stat(sc.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(sc.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")

		source, err := sc.LoadSource(name)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Source loaded", "source", name, "enabled", source.Settings.Enabled, "schedule", source.Settings.Schedule)
	}

	return nil
}

func (sc *SourceCache) LoadSource(name string) (*Source, error) {
	file := filepath.Join(sc.sourcesDir, name+".yml")
	source, err := parseSource(file)
	if err != nil {
		return nil, err
	}

	source.Name = name

	if err := validateSource(source); err != nil {
		return nil, fmt.Errorf("invalid source %s: %w", file, err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cache[source.Name] = source

	return source, nil
}

func (sc *SourceCache) GetSource(name string) (*Source, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	source, ok := sc.cache[name]
	if !ok {
		return nil, fmt.Errorf("source with name '%s' not found", name)
	}
	return source, nil
}

// GetEnabledSources returns the enabled sources ordered by name.
func (sc *SourceCache) GetEnabledSources() []*Source {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	enabled := make([]*Source, 0, len(sc.cache))
	for _, source := range sc.cache {
		if source.Settings.Enabled {
			enabled = append(enabled, source)
		}
	}
	sort.Slice(enabled, func(i, j int) bool { return enabled[i].Name < enabled[j].Name })
	return enabled
}

func (sc *SourceCache) GetSourceCount() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.cache)
}

func parseSource(file string) (*Source, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var source Source
	if err := yaml.Unmarshal(data, &source); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if source.Settings.Schedule == "" {
		source.Settings.Schedule = DefaultSchedule
	}
	if source.Settings.MaxItems == 0 {
		source.Settings.MaxItems = DefaultMaxItems
	}
	if source.Settings.Timeout == 0 {
		source.Settings.Timeout = DefaultTimeout
	}

	return &source, nil
}

func validateSource(source *Source) error {
	if source.URL == "" {
		return errors.New("source URL is required")
	}
	if len(source.Categories) == 0 {
		return errors.New("at least one category is required")
	}

	if source.Settings.MaxItems < 0 {
		return errors.New("max items must be non-negative")
	}
	if source.Settings.Timeout < 0 {
		return errors.New("timeout must be non-negative")
	}

	if _, err := cron.ParseStandard(source.Settings.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", source.Settings.Schedule, err)
	}

	for i, filter := range source.Filters {
		if !validFilterFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}
