package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for the taxwgs CLI.
type Config struct {
	// Include is the taxid whose WGS projects are collected, subtree
	// included.
	Include string `yaml:"include"`

	// Exclude is an optional taxid whose subtree is removed from the
	// selection.
	Exclude string `yaml:"exclude"`

	// DownloadOnly retrieves archives without building the FASTA output.
	DownloadOnly bool `yaml:"download_only"`

	// Force restarts from scratch, refetching archives and discarding any
	// prior ledger and output.
	Force bool `yaml:"force"`

	// Resume continues an interrupted run from the ledger.
	Resume bool `yaml:"resume"`

	// Reverse processes projects in reverse lexicographic order.
	Reverse bool `yaml:"reverse"`

	// Verbose prints one line per project instead of the progress bar.
	Verbose bool `yaml:"verbose"`

	// Host is the FTP host:port serving the WGS archives.
	Host string `yaml:"host"`

	// Timeout bounds FTP dials and discovery requests.
	Timeout time.Duration `yaml:"timeout"`

	// Keepalive is the interval between NOOPs on an idle control channel
	// during a transfer.
	Keepalive time.Duration `yaml:"keepalive"`

	// StoreURL selects the archive store. Empty means a file store rooted
	// in the working directory.
	StoreURL string `yaml:"store_url"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Include:   "548681",
		Host:      "ftp.ncbi.nlm.nih.gov:21",
		Timeout:   30 * time.Second,
		Keepalive: 30 * time.Second,
	}
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	Include      string `yaml:"include"`
	Exclude      string `yaml:"exclude"`
	DownloadOnly bool   `yaml:"download_only"`
	Force        bool   `yaml:"force"`
	Resume       bool   `yaml:"resume"`
	Reverse      bool   `yaml:"reverse"`
	Verbose      bool   `yaml:"verbose"`
	Host         string `yaml:"host"`
	Timeout      string `yaml:"timeout"`
	Keepalive    string `yaml:"keepalive"`
	StoreURL     string `yaml:"store_url"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.Include != "" {
		cfg.Include = yc.Include
	}
	if yc.Exclude != "" {
		cfg.Exclude = yc.Exclude
	}
	cfg.DownloadOnly = yc.DownloadOnly
	cfg.Force = yc.Force
	cfg.Resume = yc.Resume
	cfg.Reverse = yc.Reverse
	cfg.Verbose = yc.Verbose
	if yc.Host != "" {
		cfg.Host = yc.Host
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if yc.Keepalive != "" {
		d, err := time.ParseDuration(yc.Keepalive)
		if err != nil {
			return Config{}, fmt.Errorf("parse keepalive: %w", err)
		}
		cfg.Keepalive = d
	}
	if yc.StoreURL != "" {
		cfg.StoreURL = yc.StoreURL
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the TAXWGS_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("TAXWGS_INCLUDE"); v != "" {
		c.Include = v
	}
	if v := os.Getenv("TAXWGS_EXCLUDE"); v != "" {
		c.Exclude = v
	}
	if v := os.Getenv("TAXWGS_DOWNLOAD_ONLY"); v != "" {
		c.DownloadOnly = v == "true" || v == "1"
	}
	if v := os.Getenv("TAXWGS_FORCE"); v != "" {
		c.Force = v == "true" || v == "1"
	}
	if v := os.Getenv("TAXWGS_RESUME"); v != "" {
		c.Resume = v == "true" || v == "1"
	}
	if v := os.Getenv("TAXWGS_REVERSE"); v != "" {
		c.Reverse = v == "true" || v == "1"
	}
	if v := os.Getenv("TAXWGS_VERBOSE"); v != "" {
		c.Verbose = v == "true" || v == "1"
	}
	if v := os.Getenv("TAXWGS_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("TAXWGS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse TAXWGS_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("TAXWGS_KEEPALIVE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse TAXWGS_KEEPALIVE: %w", err)
		}
		c.Keepalive = d
	}
	if v := os.Getenv("TAXWGS_STORE_URL"); v != "" {
		c.StoreURL = v
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Include == "" {
		return errors.New("config: include taxid is required")
	}
	if c.Force && c.Resume {
		return errors.New("config: force and resume are mutually exclusive")
	}
	if c.Host == "" {
		return errors.New("config: host is required")
	}
	if c.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	if c.Keepalive <= 0 {
		return errors.New("config: keepalive must be positive")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.Include != "" {
		c.Include = override.Include
	}
	if override.Exclude != "" {
		c.Exclude = override.Exclude
	}
	if override.DownloadOnly {
		c.DownloadOnly = override.DownloadOnly
	}
	if override.Force {
		c.Force = override.Force
	}
	if override.Resume {
		c.Resume = override.Resume
	}
	if override.Reverse {
		c.Reverse = override.Reverse
	}
	if override.Verbose {
		c.Verbose = override.Verbose
	}
	if override.Host != "" {
		c.Host = override.Host
	}
	if override.Timeout != 0 {
		c.Timeout = override.Timeout
	}
	if override.Keepalive != 0 {
		c.Keepalive = override.Keepalive
	}
	if override.StoreURL != "" {
		c.StoreURL = override.StoreURL
	}
	return c
}

// OutputPath returns the FASTA output file name for the taxid selection.
func (c Config) OutputPath() string {
	name := "WGS4taxid" + c.Include
	if c.Exclude != "" {
		name += "-" + c.Exclude
	}
	return name + ".fa"
}

// LedgerPath returns the ledger file name paired with the output.
func (c Config) LedgerPath() string {
	name := "WGS4taxid" + c.Include
	if c.Exclude != "" {
		name += "-" + c.Exclude
	}
	return name + ".tmp"
}
