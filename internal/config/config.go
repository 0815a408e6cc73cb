package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Catalog contains the remote catalog endpoints and crawl parameters.
type Catalog struct {
	BaseURL string `toml:"base_url"`
	// EpisodesEndpoint is an optional URL template for a season-scoped episode
	// listing. "{id}" is replaced with the series identifier and "{season}",
	// when present, with the season filter. Empty disables strategy B.
	EpisodesEndpoint string   `toml:"episodes_endpoint"`
	RequestTimeout   int      `toml:"request_timeout"`
	CrawlLanguages   []string `toml:"crawl_languages"`
	CrawlLevels      []int    `toml:"crawl_levels"`
}

// Output contains configuration for target paths and naming.
type Output struct {
	Dir          string `toml:"dir"`
	Template     string `toml:"template"`
	SeriesDirs   bool   `toml:"series_dirs"`
	SkipExisting bool   `toml:"skip_existing"`
	Overwrite    bool   `toml:"overwrite"`
}

// Download contains concurrency and retry policy.
type Download struct {
	Concurrency       int `toml:"concurrency"`
	JobRetries        int `toml:"job_retries"`
	StreamRetries     int `toml:"stream_retries"`
	ExpiryWarnSeconds int `toml:"expiry_warn_seconds"`
}

// Subtitles contains the language/format filters and post-processing mode.
type Subtitles struct {
	Languages   []string `toml:"languages"`
	Format      string   `toml:"format"`       // srt | vtt | both
	PostProcess string   `toml:"post_process"` // none | mux | burn
}

// Cache contains configuration for the discovery cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// History contains configuration for the run history database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"` // auto | console | json
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for showgrab.
type Config struct {
	Catalog   Catalog   `toml:"catalog"`
	Output    Output    `toml:"output"`
	Download  Download  `toml:"download"`
	Subtitles Subtitles `toml:"subtitles"`
	Cache     Cache     `toml:"cache"`
	History   History   `toml:"history"`
	Logging   Logging   `toml:"logging"`
}

// SampleConfig returns the annotated sample configuration file contents.
func SampleConfig() string {
	return sampleConfig
}

// ExpandPath expands a leading "~" and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// DefaultConfigPath returns the absolute path of the default config location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/showgrab/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded. A missing file yields defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// normalize expands user paths and canonicalizes enumerated values.
func (c *Config) normalize() error {
	var err error
	if c.Output.Dir, err = expandPath(c.Output.Dir); err != nil {
		return err
	}
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return err
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return err
	}
	if c.Logging.File != "" {
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return err
		}
	}

	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	c.Subtitles.Format = strings.ToLower(strings.TrimSpace(c.Subtitles.Format))
	c.Subtitles.PostProcess = strings.ToLower(strings.TrimSpace(c.Subtitles.PostProcess))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	langs := make([]string, 0, len(c.Subtitles.Languages))
	for _, lang := range c.Subtitles.Languages {
		if lang = strings.TrimSpace(lang); lang != "" {
			langs = append(langs, lang)
		}
	}
	c.Subtitles.Languages = langs

	return nil
}

// EnsureDirectories creates the directories the run will write into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Output.Dir}
	if c.Cache.Enabled && c.Cache.Path != "" {
		dirs = append(dirs, filepath.Dir(c.Cache.Path))
	}
	if c.History.Enabled && c.History.Path != "" {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return "", nil
	}
	if pathValue == "~" || strings.HasPrefix(pathValue, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			return home, nil
		}
		return filepath.Join(home, pathValue[2:]), nil
	}
	return filepath.Abs(pathValue)
}
