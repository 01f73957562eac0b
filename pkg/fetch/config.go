// Package fetch downloads law files from gesetze-im-internet.de: the
// site-wide table of contents and the per-law ZIP archives, plus batch
// download with mapping upkeep.
package fetch

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the public host serving the law archive.
const DefaultBaseURL = "https://www.gesetze-im-internet.de"

// DefaultTimeout is the per-request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultRateLimit is the minimum interval between downloads in batch
// mode.
const DefaultRateLimit = 2 * time.Second

// DefaultSaveInterval is how many successful downloads pass between
// mapping file saves during a batch run.
const DefaultSaveInterval = 10

// Duration is a time.Duration that decodes from YAML strings like
// "30s" or "100ms".
type Duration time.Duration

// UnmarshalYAML parses a duration string scalar.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds downloader settings, loadable from a YAML file.
type Config struct {
	// BaseURL is the archive host; the table of contents lives at
	// BaseURL/gii-toc.xml.
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request timeout.
	Timeout Duration `yaml:"timeout"`

	// RateLimit is the pause between consecutive batch downloads.
	RateLimit Duration `yaml:"rate_limit"`

	// MaxDownloads caps a batch run; 0 means unlimited.
	MaxDownloads int `yaml:"max_downloads"`

	// SkipExisting leaves laws alone that are already on disk.
	SkipExisting bool `yaml:"skip_existing"`

	// SaveInterval is the number of downloads between mapping saves.
	SaveInterval int `yaml:"save_interval"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		Timeout:      Duration(DefaultTimeout),
		RateLimit:    Duration(DefaultRateLimit),
		SkipExisting: true,
		SaveInterval: DefaultSaveInterval,
	}
}

// LoadConfig reads a YAML config file. Absent fields keep their
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return cfg, nil
}

// TOCURL returns the URL of the site-wide table of contents.
func (c Config) TOCURL() string {
	return c.BaseURL + "/gii-toc.xml"
}
