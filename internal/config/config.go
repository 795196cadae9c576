package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBucketURL is the archive destination when none is configured:
// a local submissions directory, created on first write.
const DefaultBucketURL = "file://./submissions?create_dir=true"

// Config defines configuration for the canvasdl CLI.
type Config struct {
	APIURL         string        `yaml:"api_url"`
	APIKey         string        `yaml:"api_key"`
	CourseID       string        `yaml:"course_id"`
	Bucket         string        `yaml:"bucket"`
	Workers        int           `yaml:"workers"`
	IncludeAll     bool          `yaml:"include_all"`
	ExcludedExts   []string      `yaml:"excluded_exts"`
	AssignmentDirs bool          `yaml:"assignment_dirs"`
	Progress       bool          `yaml:"progress"`
	Timeout        time.Duration `yaml:"timeout"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Bucket:  DefaultBucketURL,
		Workers: 10,
		Timeout: 30 * time.Second,
	}
}

// yamlConfig is used for YAML unmarshaling with a string timeout.
type yamlConfig struct {
	APIURL         string   `yaml:"api_url"`
	APIKey         string   `yaml:"api_key"`
	CourseID       string   `yaml:"course_id"`
	Bucket         string   `yaml:"bucket"`
	Workers        int      `yaml:"workers"`
	IncludeAll     bool     `yaml:"include_all"`
	ExcludedExts   []string `yaml:"excluded_exts"`
	AssignmentDirs bool     `yaml:"assignment_dirs"`
	Progress       bool     `yaml:"progress"`
	Timeout        string   `yaml:"timeout"`
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

	if yc.APIURL != "" {
		cfg.APIURL = yc.APIURL
	}
	if yc.APIKey != "" {
		cfg.APIKey = yc.APIKey
	}
	if yc.CourseID != "" {
		cfg.CourseID = yc.CourseID
	}
	if yc.Bucket != "" {
		cfg.Bucket = yc.Bucket
	}
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	cfg.IncludeAll = yc.IncludeAll
	cfg.AssignmentDirs = yc.AssignmentDirs
	cfg.Progress = yc.Progress
	if len(yc.ExcludedExts) > 0 {
		cfg.ExcludedExts = normalizeExts(yc.ExcludedExts)
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("CANVAS_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("CANVAS_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("CANVAS_COURSE_ID"); v != "" {
		c.CourseID = v
	}
	if v := os.Getenv("CANVAS_BUCKET"); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv("MAX_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse MAX_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("INCLUDE_ALL_SUBMISSIONS"); v != "" {
		c.IncludeAll = v == "true" || v == "1"
	}
	if v := os.Getenv("EXCLUDED_EXTENSIONS"); v != "" {
		c.ExcludedExts = normalizeExts(strings.Split(v, ","))
	}
	if v := os.Getenv("CANVAS_ASSIGNMENT_DIRS"); v != "" {
		c.AssignmentDirs = v == "true" || v == "1"
	}
	if v := os.Getenv("CANVAS_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("CANVAS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CANVAS_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("config: CANVAS_API_URL is required")
	}
	if c.APIKey == "" {
		return errors.New("config: CANVAS_API_KEY is required")
	}
	if c.CourseID == "" {
		return errors.New("config: CANVAS_COURSE_ID is required")
	}
	if c.Bucket == "" {
		return errors.New("config: bucket is required")
	}
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	for _, ext := range c.ExcludedExts {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("config: excluded extension %q must start with a dot", ext)
		}
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.APIURL != "" {
		c.APIURL = override.APIURL
	}
	if override.APIKey != "" {
		c.APIKey = override.APIKey
	}
	if override.CourseID != "" {
		c.CourseID = override.CourseID
	}
	if override.Bucket != "" {
		c.Bucket = override.Bucket
	}
	if override.Workers != 0 {
		c.Workers = override.Workers
	}
	if override.IncludeAll {
		c.IncludeAll = override.IncludeAll
	}
	if len(override.ExcludedExts) > 0 {
		c.ExcludedExts = normalizeExts(override.ExcludedExts)
	}
	if override.AssignmentDirs {
		c.AssignmentDirs = override.AssignmentDirs
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.Timeout != 0 {
		c.Timeout = override.Timeout
	}
	return c
}

// ExcludedSet returns the excluded extensions as a lookup set.
func (c *Config) ExcludedSet() map[string]bool {
	set := make(map[string]bool, len(c.ExcludedExts))
	for _, ext := range c.ExcludedExts {
		set[ext] = true
	}
	return set
}

// normalizeExts lowercases extensions and ensures a leading dot.
func normalizeExts(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
