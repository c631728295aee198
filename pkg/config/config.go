package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names
const (
	EnvSchool            = "TAPESTRY_SCHOOL"
	EnvCookieValue       = "TAPESTRY_COOKIE_VALUE"
	EnvName              = "TAPESTRY_NAME"
	EnvBaseURL           = "TAPESTRY_BASE_URL"
	EnvOutputDir         = "TAPESTRY_OUTPUT_DIR"
	EnvRequestsPerMinute = "TAPESTRY_REQUESTS_PER_MINUTE"
	EnvLogLevel          = "TAPESTRY_LOG_LEVEL"
	EnvNotifications     = "TAPESTRY_NOTIFICATIONS_ENABLED"
)

// Config holds all configuration options for the archiver
type Config struct {
	// Tapestry session and account
	Tapestry TapestryConfig `yaml:"tapestry" json:"tapestry"`

	// Request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TapestryConfig holds the remote service settings
type TapestryConfig struct {
	School      string `yaml:"school" json:"school"`
	CookieValue string `yaml:"cookie_value" json:"cookie_value"`
	Name        string `yaml:"name" json:"name"`
	BaseURL     string `yaml:"base_url" json:"base_url"`
	UserAgent   string `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds request pacing configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	WriteJournal  bool   `yaml:"write_journal" json:"write_journal"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	DownloadTimeout time.Duration `yaml:"download_timeout" json:"download_timeout"`
	SkipVideos      bool          `yaml:"skip_videos" json:"skip_videos"`
	SkipImages      bool          `yaml:"skip_images" json:"skip_images"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Tapestry: TapestryConfig{
			BaseURL:   "https://tapestryjournal.com",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         5,
		},
		Output: OutputConfig{
			BaseDirectory: "images",
			WriteJournal:  true,
		},
		Download: DownloadConfig{
			DownloadTimeout: 60 * time.Second,
		},
		Notifications: NotificationConfig{
			Enabled:          false,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if school := os.Getenv(EnvSchool); school != "" {
		c.Tapestry.School = school
	}
	if cookie := os.Getenv(EnvCookieValue); cookie != "" {
		c.Tapestry.CookieValue = cookie
	}
	if name := os.Getenv(EnvName); name != "" {
		c.Tapestry.Name = name
	}
	if baseURL := os.Getenv(EnvBaseURL); baseURL != "" {
		c.Tapestry.BaseURL = baseURL
	}

	if rpm := os.Getenv(EnvRequestsPerMinute); rpm != "" {
		var val int
		if _, err := fmt.Sscanf(rpm, "%d", &val); err != nil {
			return fmt.Errorf("invalid %s: %q", EnvRequestsPerMinute, rpm)
		}
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if outputDir := os.Getenv(EnvOutputDir); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if notifEnabled := os.Getenv(EnvNotifications); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}

	if logLevel := os.Getenv(EnvLogLevel); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in the standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"tapestry-archive.yaml",
		".tapestry-archive.yaml",
		".tapestry-archive.yml",
		filepath.Join(home, ".config", "tapestry-archive", "config.yaml"),
		filepath.Join(home, ".tapestry-archive.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid.
// Credentials are checked separately by HasCredentials since they may come
// from the credential store after loading.
func (c *Config) Validate() error {
	var errs []error

	if c.Tapestry.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	} else if !strings.HasPrefix(c.Tapestry.BaseURL, "http://") && !strings.HasPrefix(c.Tapestry.BaseURL, "https://") {
		errs = append(errs, errors.New("base URL must start with http:// or https://"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.SkipImages && c.Download.SkipVideos {
		errs = append(errs, errors.New("skipping both images and videos leaves nothing to download"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level: %s", c.Logging.Level))
	}

	validNotifTypes := map[string]bool{
		"terminal": true, "desktop": true, "none": true,
	}
	if !validNotifTypes[strings.ToLower(c.Notifications.NotificationType)] {
		errs = append(errs, fmt.Errorf("invalid notification type: %s", c.Notifications.NotificationType))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// HasCredentials reports whether both the school and the session cookie are set
func (c *Config) HasCredentials() bool {
	return strings.TrimSpace(c.Tapestry.School) != "" && strings.TrimSpace(c.Tapestry.CookieValue) != ""
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Config may hold the session cookie
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if school, ok := flags["school"].(string); ok && school != "" {
		c.Tapestry.School = school
	}
	if cookie, ok := flags["cookie"].(string); ok && cookie != "" {
		c.Tapestry.CookieValue = cookie
	}
	if name, ok := flags["name"].(string); ok && name != "" {
		c.Tapestry.Name = name
	}
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Tapestry.BaseURL = baseURL
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if timeout, ok := flags["download-timeout"].(time.Duration); ok && timeout > 0 {
		c.Download.DownloadTimeout = timeout
	}
	if skip, ok := flags["skip-videos"].(bool); ok {
		c.Download.SkipVideos = skip
	}
	if skip, ok := flags["skip-images"].(bool); ok {
		c.Download.SkipImages = skip
	}
	if journal, ok := flags["journal"].(bool); ok {
		c.Output.WriteJournal = journal
	}
	if enabled, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = enabled
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tapestry-archive.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
