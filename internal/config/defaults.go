package config

const (
	defaultBaseURL           = "https://api.showgrab.example"
	defaultRequestTimeout    = 20
	defaultOutputDir         = "~/Downloads/showgrab"
	defaultTemplate          = "{title} {quality}"
	defaultConcurrency       = 3
	defaultJobRetries        = 2
	defaultStreamRetries     = 4
	defaultExpiryWarnSeconds = 120
	defaultSubtitleFormat    = "srt"
	defaultPostProcess       = "none"
	defaultCachePath         = "~/.cache/showgrab/discovery.json"
	defaultHistoryPath       = "~/.local/share/showgrab/history.db"
	defaultLogFormat         = "auto"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Catalog: Catalog{
			BaseURL:        defaultBaseURL,
			RequestTimeout: defaultRequestTimeout,
			CrawlLanguages: []string{"ar", "en"},
			CrawlLevels:    []int{0, 1},
		},
		Output: Output{
			Dir:      defaultOutputDir,
			Template: defaultTemplate,
		},
		Download: Download{
			Concurrency:       defaultConcurrency,
			JobRetries:        defaultJobRetries,
			StreamRetries:     defaultStreamRetries,
			ExpiryWarnSeconds: defaultExpiryWarnSeconds,
		},
		Subtitles: Subtitles{
			Languages:   []string{"ar"},
			Format:      defaultSubtitleFormat,
			PostProcess: defaultPostProcess,
		},
		Cache: Cache{
			Enabled: true,
			Path:    defaultCachePath,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
