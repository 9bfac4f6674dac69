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

// Config holds all configuration options for the PAA fetcher
type Config struct {
	// DataForSEO API settings
	API APIConfig `yaml:"api" json:"api"`

	// Recursive expansion budgets
	Expand ExpandConfig `yaml:"expand" json:"expand"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Per-request retry configuration
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds DataForSEO-specific configuration
type APIConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	Login          string        `yaml:"login" json:"login"`
	Password       string        `yaml:"password" json:"password"`
	LanguageCode   string        `yaml:"language_code" json:"language_code"`
	CountryCode    string        `yaml:"country_code" json:"country_code"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// ExpandConfig holds the per-root traversal budgets.
// Depth 1 means only the root keyword is queried.
type ExpandConfig struct {
	Depth        int `yaml:"depth" json:"depth"`
	MaxQuestions int `yaml:"max_questions" json:"max_questions"`
	MaxRequests  int `yaml:"max_requests" json:"max_requests"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry configuration for individual API calls
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// OutputConfig holds output settings
type OutputConfig struct {
	Format    string `yaml:"format" json:"format"`
	Directory string `yaml:"directory" json:"directory"`
	Overwrite bool   `yaml:"overwrite" json:"overwrite"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults.
// Budget defaults match the original tool: depth 1, 20 questions,
// 15 requests per root keyword.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "https://api.dataforseo.com",
			LanguageCode:   "en",
			CountryCode:    "US",
			RequestTimeout: 5 * time.Minute,
		},
		Expand: ExpandConfig{
			Depth:        1,
			MaxQuestions: 20,
			MaxRequests:  15,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			BurstSize:         5,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    30 * time.Second,
		},
		Output: OutputConfig{
			Format:    "csv",
			Directory: ".",
			Overwrite: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if login := os.Getenv("PAAFETCH_API_LOGIN"); login != "" {
		c.API.Login = login
	}
	if password := os.Getenv("PAAFETCH_API_PASSWORD"); password != "" {
		c.API.Password = password
	}
	if baseURL := os.Getenv("PAAFETCH_API_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if lang := os.Getenv("PAAFETCH_LANGUAGE"); lang != "" {
		c.API.LanguageCode = lang
	}
	if country := os.Getenv("PAAFETCH_COUNTRY"); country != "" {
		c.API.CountryCode = country
	}

	if rpm := os.Getenv("PAAFETCH_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if depth := os.Getenv("PAAFETCH_DEPTH"); depth != "" {
		var val int
		fmt.Sscanf(depth, "%d", &val)
		if val > 0 {
			c.Expand.Depth = val
		}
	}

	if outputDir := os.Getenv("PAAFETCH_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}

	if logLevel := os.Getenv("PAAFETCH_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
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

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".paafetch.yaml",
		".paafetch.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "paafetch", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "paafetch", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".paafetch.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Budget bounds are
// checked here, before any traversal starts.
func (c *Config) Validate() error {
	var errs []error

	if c.Expand.Depth < 1 {
		errs = append(errs, errors.New("depth must be >= 1"))
	}
	if c.Expand.MaxQuestions < 1 {
		errs = append(errs, errors.New("max questions must be >= 1"))
	}
	if c.Expand.MaxRequests < 1 {
		errs = append(errs, errors.New("max requests must be >= 1"))
	}

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.API.LanguageCode == "" {
		errs = append(errs, errors.New("language code is required"))
	}
	if c.API.CountryCode == "" {
		errs = append(errs, errors.New("country code is required"))
	}
	if c.API.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retry attempts cannot be negative"))
	}

	switch strings.ToLower(c.Output.Format) {
	case "csv", "json":
	default:
		errs = append(errs, errors.New("output format must be csv or json"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
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

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if lang, ok := flags["language"].(string); ok && lang != "" {
		c.API.LanguageCode = lang
	}
	if country, ok := flags["country"].(string); ok && country != "" {
		c.API.CountryCode = country
	}
	if depth, ok := flags["depth"].(int); ok && depth > 0 {
		c.Expand.Depth = depth
	}
	if questions, ok := flags["max-questions"].(int); ok && questions > 0 {
		c.Expand.MaxQuestions = questions
	}
	if requests, ok := flags["max-requests"].(int); ok && requests > 0 {
		c.Expand.MaxRequests = requests
	}
	if format, ok := flags["format"].(string); ok && format != "" {
		c.Output.Format = format
	}
	if outputDir, ok := flags["output-dir"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if overwrite, ok := flags["overwrite"].(bool); ok {
		c.Output.Overwrite = overwrite
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".paafetch.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
