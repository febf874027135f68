package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/robfig/cron/v3"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath        string `long:"db-path" env:"DB_PATH" default:"./data/newsdesk.db" description:"Path of the SQLite database file"`
	RedisAddr     string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address for the response cache (empty disables caching)"`
	RedisPassword string `long:"redis-password" env:"REDIS_PASSWORD" description:"Redis password"`
	RedisDB       int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database number"`

	// Application configuration
	Port             string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl          string `long:"base-url" env:"BASE_URL" default:"http://localhost:8080" description:"Public base URL used for article links in the RSS output"`
	SiteTitle        string `long:"site-title" env:"SITE_TITLE" default:"Newsdesk" description:"Channel title of the RSS output"`
	SiteDescription  string `long:"site-description" env:"SITE_DESCRIPTION" default:"Latest news, ranked" description:"Channel description of the RSS output"`
	KeywordsFile     string `long:"keywords-file" env:"KEYWORDS_FILE" description:"YAML keyword weight table (built-in table when empty)"`
	SourcesDir       string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing syndicated source files"`
	WorkerCount      int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers"`
	BreakingSchedule string `long:"breaking-schedule" env:"BREAKING_SCHEDULE" default:"@every 1m" description:"Cron schedule of the breaking flag expiry"`
	APIAccessKey     string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for the write endpoints (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Newsdesk/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Africa/Accra)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses the command line and environment. It returns nil, nil when
// help was requested.
func Load() (*Cfg, error) {
	cfg, err := parse(os.Args[1:])
	if err != nil || cfg == nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:           raw.DBPath,
		RedisAddr:        raw.RedisAddr,
		RedisPassword:    raw.RedisPassword,
		RedisDB:          raw.RedisDB,
		Port:             raw.Port,
		BaseUrl:          strings.TrimRight(raw.BaseUrl, "/"),
		SiteTitle:        raw.SiteTitle,
		SiteDescription:  raw.SiteDescription,
		KeywordsFile:     raw.KeywordsFile,
		SourcesDir:       raw.SourcesDir,
		WorkerCount:      raw.WorkerCount,
		BreakingSchedule: raw.BreakingSchedule,
		APIAccessKey:     raw.APIAccessKey,
		UserAgent:        raw.UserAgent,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	if cfg.DBPath == "" {
		return errors.New("db path is required")
	}
	if cfg.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", cfg.WorkerCount)
	}
	if cfg.RedisDB < 0 {
		return fmt.Errorf("redis db must be non-negative, got %d", cfg.RedisDB)
	}
	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", cfg.Port)
	}
	if _, err := cron.ParseStandard(cfg.BreakingSchedule); err != nil {
		return fmt.Errorf("invalid breaking schedule %q: %w", cfg.BreakingSchedule, err)
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return err
		}
		time.Local = loc
		fmt.Printf("Timezone configured: %s\n", timezone)
	}
	return nil
}
