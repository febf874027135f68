package cfg

type Cfg struct {
	// Storage
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Application configuration
	Port             string
	BaseUrl          string
	SiteTitle        string
	SiteDescription  string
	KeywordsFile     string
	SourcesDir       string
	WorkerCount      int
	BreakingSchedule string
	APIAccessKey     string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
