package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCatalog() error {
	if c.Catalog.BaseURL == "" {
		return errors.New("catalog.base_url must be set")
	}
	parsed, err := url.Parse(c.Catalog.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("catalog.base_url is not a valid URL: %q", c.Catalog.BaseURL)
	}
	if c.Catalog.EpisodesEndpoint != "" && !strings.Contains(c.Catalog.EpisodesEndpoint, "{id}") {
		return errors.New("catalog.episodes_endpoint must contain the {id} placeholder")
	}
	if c.Catalog.RequestTimeout <= 0 {
		return errors.New("catalog.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.Dir == "" {
		return errors.New("output.dir must be set")
	}
	if strings.TrimSpace(c.Output.Template) == "" {
		return errors.New("output.template must be set")
	}
	if c.Output.SkipExisting && c.Output.Overwrite {
		return errors.New("output.skip_existing and output.overwrite are mutually exclusive")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.Concurrency < 1 {
		return errors.New("download.concurrency must be at least 1")
	}
	if c.Download.JobRetries < 0 {
		return errors.New("download.job_retries must not be negative")
	}
	if c.Download.StreamRetries < 0 {
		return errors.New("download.stream_retries must not be negative")
	}
	if c.Download.ExpiryWarnSeconds < 0 {
		return errors.New("download.expiry_warn_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	switch c.Subtitles.Format {
	case "srt", "vtt", "both":
	default:
		return fmt.Errorf("subtitles.format must be srt, vtt, or both (got %q)", c.Subtitles.Format)
	}
	switch c.Subtitles.PostProcess {
	case "none", "mux", "burn":
	default:
		return fmt.Errorf("subtitles.post_process must be none, mux, or burn (got %q)", c.Subtitles.PostProcess)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console, or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
