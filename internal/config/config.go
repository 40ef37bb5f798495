// Package config handles loading and validating branchsweep configuration
// from files and environment variables. The loaded values become the CLI
// flag defaults, so flags always win.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// File names inside the config directory.
const (
	yamlFile  = "config.yaml"
	shellFile = "branchsweep.conf"
)

// Config holds all branchsweep configuration.
type Config struct {
	StaleDays          int      `yaml:"stale_days"`
	CheckPRs           bool     `yaml:"check_prs"`
	IncludeRemote      bool     `yaml:"include_remote"`
	GithubToken        string   `yaml:"github_token"`
	DryRun             bool     `yaml:"dry_run"`
	ExcludePattern     string   `yaml:"exclude_pattern"`
	HTTPTimeoutSeconds int      `yaml:"http_timeout_seconds"`
	MaxRetries         int      `yaml:"max_retries"`
	Metrics            bool     `yaml:"metrics"`
	WorkspaceExclude   []string `yaml:"workspace_exclude"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		StaleDays:          30,
		ExcludePattern:     "main|master|develop|dev",
		HTTPTimeoutSeconds: 30,
		MaxRetries:         3,
		Metrics:            true,
		WorkspaceExclude:   []string{".archive", "vendor"},
	}
}

// HTTPTimeout returns the API request timeout.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// Validate checks values that would otherwise fail later in the run.
func (c Config) Validate() error {
	if c.StaleDays < 0 {
		return fmt.Errorf("stale days must not be negative, got %d", c.StaleDays)
	}
	if _, err := regexp.Compile(c.ExcludePattern); err != nil {
		return fmt.Errorf("invalid exclude pattern %q: %w", c.ExcludePattern, err)
	}
	if c.HTTPTimeoutSeconds < 0 {
		return fmt.Errorf("http timeout must not be negative, got %d", c.HTTPTimeoutSeconds)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}
	return nil
}

// Load reads configuration from the config files and environment
// variables. Values are layered: defaults < config.yaml < branchsweep.conf
// < environment variables.
func Load() (Config, error) {
	cfg := Defaults()
	dir := Dir()

	if err := loadYAML(&cfg, filepath.Join(dir, yamlFile)); err != nil {
		return cfg, err
	}
	if err := loadShell(&cfg, filepath.Join(dir, shellFile)); err != nil {
		return cfg, err
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Dir returns the directory holding the config files.
func Dir() string {
	if dir := os.Getenv("BRANCHSWEEP_CONFIG_DIR"); dir != "" {
		return ExpandHome(dir)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "branchsweep")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "branchsweep")
}

func loadYAML(cfg *Config, path string) error {
	path = filepath.Clean(path)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil // no config file is fine
	}
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// loadShell applies a KEY=value file. Unknown keys are ignored.
func loadShell(cfg *Config, path string) error {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	for key, v := range values {
		if err := setValue(cfg, key, v); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	return nil
}

func setValue(cfg *Config, key, v string) error {
	var err error
	switch key {
	case "STALE_DAYS":
		cfg.StaleDays, err = strconv.Atoi(v)
	case "CHECK_PRS":
		cfg.CheckPRs, err = strconv.ParseBool(v)
	case "INCLUDE_REMOTE":
		cfg.IncludeRemote, err = strconv.ParseBool(v)
	case "DRY_RUN":
		cfg.DryRun, err = strconv.ParseBool(v)
	case "GITHUB_TOKEN":
		cfg.GithubToken = v
	case "EXCLUDE_PATTERN":
		cfg.ExcludePattern = v
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s=%q: %w", key, v, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("BRANCHSWEEP_STALE_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BRANCHSWEEP_STALE_DAYS=%q: %w", v, err)
		}
		cfg.StaleDays = days
	}
	if v := os.Getenv("BRANCHSWEEP_EXCLUDE"); v != "" {
		cfg.ExcludePattern = v
	}
	if v := os.Getenv("BRANCHSWEEP_GITHUB_TOKEN"); v != "" {
		cfg.GithubToken = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" && cfg.GithubToken == "" {
		cfg.GithubToken = v
	}
	if v := os.Getenv("GH_TOKEN"); v != "" && cfg.GithubToken == "" {
		cfg.GithubToken = v
	}
	return nil
}

// ExpandHome replaces a leading ~/ in path with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
